// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/fse"
)

// writeNumSequences emits nb_sequences in the 1-3 byte varint format
// parseNumSequences reads back.
func writeNumSequences(w *bitio.Writer, n int) {
	switch {
	case n == 0:
		w.WriteBits(0, 8)
	case n < 128:
		w.WriteBits(uint64(n), 8)
	case n < 0x7F00:
		w.WriteBits(uint64(n>>8)+128, 8)
		w.WriteBits(uint64(n&0xFF), 8)
	default:
		v := n - 0x7F00
		w.WriteBits(255, 8)
		w.WriteBits(uint64(v&0xFF), 8)
		w.WriteBits(uint64(v>>8), 8)
	}
}

// encodeSequences emits nb_sequences, the Predefined-mode byte (all
// three classes), and the interleaved FSE bitstream for seqs. The
// encoder never uses the repeat-offset codes (every offset is written
// as a fresh literal offset, raw = offset+3) — legal per §4.6's
// decoding rule, just not maximally compact.
func encodeSequences(seqs []sequence, llTable, mlTable, ofTable *fse.Table) ([]byte, error) {
	w := bitio.NewWriter()
	writeNumSequences(w, len(seqs))
	if len(seqs) == 0 {
		if m := w.Misaligned(); m != 0 {
			w.WriteBits(0, m)
		}
		return w.Bytes(), nil
	}

	// Mode byte: Predefined (00) for literal-lengths, offsets, and
	// match-lengths alike.
	w.WriteBits(0, 8)

	n := len(seqs)
	llCodes := make([]byte, n)
	mlCodes := make([]byte, n)
	ofCodes := make([]byte, n)
	llExtra := make([]uint32, n)
	mlExtra := make([]uint32, n)
	ofExtra := make([]uint32, n)
	llExtraBits := make([]uint8, n)
	mlExtraBits := make([]uint8, n)
	ofExtraBits := make([]uint8, n)

	for i, s := range seqs {
		llCodes[i], llExtraBits[i], llExtra[i] = literalLengthCodeFor(s.litLen)
		mlCodes[i], mlExtraBits[i], mlExtra[i] = matchLengthCodeFor(s.matchLen)
		ofCodes[i], ofExtraBits[i], ofExtra[i] = offsetCodeFor(s.offset + 3)
	}

	stLL := llTable.EncodeInitial(llCodes[n-1])
	stML := mlTable.EncodeInitial(mlCodes[n-1])
	stOF := ofTable.EncodeInitial(ofCodes[n-1])

	w.WriteBits(uint64(llExtra[n-1]), uint(llExtraBits[n-1]))
	w.WriteBits(uint64(mlExtra[n-1]), uint(mlExtraBits[n-1]))
	w.WriteBits(uint64(ofExtra[n-1]), uint(ofExtraBits[n-1]))

	for i := n - 2; i >= 0; i-- {
		val, nb, next, ok := ofTable.EncodeTransition(ofCodes[i], stOF)
		if !ok {
			return nil, newError(KindCorruptTable, "offset symbol %d has no successor state", ofCodes[i])
		}
		w.WriteBits(val, uint(nb))
		stOF = next

		val, nb, next, ok = mlTable.EncodeTransition(mlCodes[i], stML)
		if !ok {
			return nil, newError(KindCorruptTable, "match_length symbol %d has no successor state", mlCodes[i])
		}
		w.WriteBits(val, uint(nb))
		stML = next

		val, nb, next, ok = llTable.EncodeTransition(llCodes[i], stLL)
		if !ok {
			return nil, newError(KindCorruptTable, "literal_length symbol %d has no successor state", llCodes[i])
		}
		w.WriteBits(val, uint(nb))
		stLL = next

		w.WriteBits(uint64(llExtra[i]), uint(llExtraBits[i]))
		w.WriteBits(uint64(mlExtra[i]), uint(mlExtraBits[i]))
		w.WriteBits(uint64(ofExtra[i]), uint(ofExtraBits[i]))
	}

	w.WriteBits(uint64(stML), uint(mlTable.AccuracyLog()))
	w.WriteBits(uint64(stOF), uint(ofTable.AccuracyLog()))
	w.WriteBits(uint64(stLL), uint(llTable.AccuracyLog()))
	w.WriteEndMark()

	return w.Bytes(), nil
}
