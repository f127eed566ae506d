// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/fse"
)

// sequenceTableMode selects where a sequence-class FSE table comes
// from, per §3's sequences-section mode fields.
type sequenceTableMode uint8

const (
	tablePredefined sequenceTableMode = iota
	tableRLE
	tableFSECompressed
	tableRepeat
)

// sequence is one decoded (literal_length, match_length, offset) triple.
type sequence struct {
	litLen   uint32
	matchLen uint32
	offset   uint32
}

// parseNumSequences reads the 1-3 byte varint count of sequences in a
// compressed block.
func parseNumSequences(r *bitio.Reader) (int, error) {
	b0, err := r.GetBits(8)
	if err != nil {
		return 0, err
	}
	switch {
	case b0 == 0:
		return 0, nil
	case b0 < 128:
		return int(b0), nil
	case b0 < 255:
		b1, err := r.GetBits(8)
		if err != nil {
			return 0, err
		}
		return int((b0-128)<<8) + int(b1), nil
	default:
		lo, err := r.GetBits(8)
		if err != nil {
			return 0, err
		}
		hi, err := r.GetBits(8)
		if err != nil {
			return 0, err
		}
		return int(lo) + int(hi)<<8 + 0x7F00, nil
	}
}

// selectTable resolves one sequence-class table given its mode byte,
// the predefined distribution/log/maxLog for that class, the reader
// positioned at the table description (for FSE_Compressed), and the
// scratch slot holding any previously established table (for Repeat).
func selectTable(mode sequenceTableMode, r *bitio.Reader, defaultNorm []int32, defaultLog uint8, maxLog uint8, current **fse.Table) error {
	switch mode {
	case tablePredefined:
		*current = fse.BuildFromProbabilities(padProbs(defaultNorm), defaultLog)
		return nil
	case tableRLE:
		symBits, err := r.GetBits(8)
		if err != nil {
			return err
		}
		probs := make([]int32, 256)
		probs[symBits] = 1
		*current = fse.BuildFromProbabilities(probs, 0)
		return nil
	case tableFSECompressed:
		table, err := fse.ReadHeader(r, maxLog)
		if err != nil {
			return err
		}
		*current = table
		return nil
	case tableRepeat:
		if *current == nil {
			return newError(KindMissingRepeatTable, "Repeat sequence table mode with no prior table")
		}
		return nil
	}
	return newError(KindCorruptTable, "unreachable sequence table mode %d", mode)
}

func padProbs(norm []int32) []int32 {
	probs := make([]int32, 256)
	copy(probs, norm)
	return probs
}

// decodeSequences parses the sequences section of a compressed block
// and returns the decoded (ll, ml, off) triples in file order.
func decodeSequences(payload []byte, scratch *scratchSpace) ([]sequence, int, error) {
	r := bitio.NewReader(payload)
	n, err := parseNumSequences(r)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		if err := r.AlignToByte(); err != nil {
			return nil, 0, err
		}
		return nil, r.BytePos(), nil
	}

	modeByte, err := r.GetBits(8)
	if err != nil {
		return nil, 0, err
	}
	llMode := sequenceTableMode((modeByte >> 6) & 0x3)
	ofMode := sequenceTableMode((modeByte >> 4) & 0x3)
	mlMode := sequenceTableMode((modeByte >> 2) & 0x3)

	if err := selectTable(llMode, r, defaultLiteralLengthNorm, defaultLiteralLengthLog, maxLiteralLengthLog, &scratch.litLenTable); err != nil {
		return nil, 0, err
	}
	if err := selectTable(ofMode, r, defaultOffsetNorm, defaultOffsetLog, maxOffsetLog, &scratch.offsetTable); err != nil {
		return nil, 0, err
	}
	if err := selectTable(mlMode, r, defaultMatchLengthNorm, defaultMatchLengthLog, maxMatchLengthLog, &scratch.matchTable); err != nil {
		return nil, 0, err
	}

	if err := r.AlignToByte(); err != nil {
		return nil, 0, err
	}
	bitstreamStart := r.BytePos()
	bitstream := payload[bitstreamStart:]

	rr, err := bitio.NewReverseReader(bitstream)
	if err != nil {
		return nil, 0, err
	}

	llState, err := rr.GetBits(uint(scratch.litLenTable.AccuracyLog()))
	if err != nil {
		return nil, 0, err
	}
	ofState, err := rr.GetBits(uint(scratch.offsetTable.AccuracyLog()))
	if err != nil {
		return nil, 0, err
	}
	mlState, err := rr.GetBits(uint(scratch.matchTable.AccuracyLog()))
	if err != nil {
		return nil, 0, err
	}

	seqs := make([]sequence, n)
	for i := 0; i < n; i++ {
		ofSymbol, ofBaseline, ofNumBits := scratch.offsetTable.DecodeEntry(uint32(ofState))
		mlSymbol, mlBaseline, mlNumBits := scratch.matchTable.DecodeEntry(uint32(mlState))
		llSymbol, llBaseline, llNumBits := scratch.litLenTable.DecodeEntry(uint32(llState))

		ofEntry := offsetCode(ofSymbol)
		ofExtra, err := rr.GetBits(uint(ofEntry.extra))
		if err != nil {
			return nil, 0, err
		}
		rawOffset := ofEntry.baseline + uint32(ofExtra)

		mlExtra, err := rr.GetBits(uint(matchLengthCodes[mlSymbol].extra))
		if err != nil {
			return nil, 0, err
		}
		matchLen := matchLengthCodes[mlSymbol].baseline + uint32(mlExtra)

		llExtra, err := rr.GetBits(uint(literalLengthCodes[llSymbol].extra))
		if err != nil {
			return nil, 0, err
		}
		litLen := literalLengthCodes[llSymbol].baseline + uint32(llExtra)

		offset := resolveOffset(rawOffset, litLen, &scratch.repeats)
		seqs[i] = sequence{litLen: litLen, matchLen: matchLen, offset: offset}

		if i == n-1 {
			break
		}

		// Transition order is mandatory: literal_length, then
		// match_length, then offset.
		bits, err := rr.GetBits(uint(llNumBits))
		if err != nil {
			return nil, 0, err
		}
		llState = uint64(llBaseline + uint32(bits))

		bits, err = rr.GetBits(uint(mlNumBits))
		if err != nil {
			return nil, 0, err
		}
		mlState = uint64(mlBaseline + uint32(bits))

		bits, err = rr.GetBits(uint(ofNumBits))
		if err != nil {
			return nil, 0, err
		}
		ofState = uint64(ofBaseline + uint32(bits))
	}

	return seqs, len(payload), nil
}

// resolveOffset applies §4.6's repeat-offset rule: a raw value > 3 is
// a fresh literal offset (value-3); a raw value in {1,2,3} selects a
// repeat register, with the documented swap when litLen == 0.
func resolveOffset(raw uint32, litLen uint32, repeats *repeatOffsets) uint32 {
	var offset uint32
	if raw > 3 {
		offset = raw - 3
		repeats[2] = repeats[1]
		repeats[1] = repeats[0]
		repeats[0] = offset
		return offset
	}

	code := raw
	if litLen == 0 {
		code++
	}

	switch code {
	case 1:
		offset = repeats[0]
	case 2:
		offset = repeats[1]
		repeats[1] = repeats[0]
		repeats[0] = offset
	case 3:
		offset = repeats[2]
		repeats[2] = repeats[1]
		repeats[1] = repeats[0]
		repeats[0] = offset
	case 4:
		offset = repeats[0] - 1
		repeats[2] = repeats[1]
		repeats[1] = repeats[0]
		repeats[0] = offset
	}
	return offset
}
