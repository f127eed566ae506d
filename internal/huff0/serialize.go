// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package huff0

import (
	"errors"

	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/fse"
)

// ErrCorruptWeights is returned when a weight section's byte-length
// placeholder or symbol count is inconsistent with the table
// invariants (§4.5: the encoded weight-FSE length must be < 128).
var ErrCorruptWeights = errors.New("huff0: corrupt weight section")

// fseWeightMaxLog is the accuracy-log ceiling used for the FSE-coded
// weight section (§4.5 caps this at 6, matching the small alphabet of
// Huffman code lengths: 0..11).
const fseWeightMaxLog = 6

// maxWeightValue caps how many weights the FSE weight decode is
// allowed to produce.
const maxWeightValue = 255

// WriteTable serializes this table's weight section: if n-1 <= 16,
// weights are packed two per byte as 4-bit nibbles; otherwise they are
// FSE-encoded (interleaved, avoid-zero-numbit) behind an 8-bit
// byte-length placeholder. The final weight is never stored — a
// decoder derives it so that Σ2^(w-1) is a power of two.
func (t *Table) WriteTable(w *bitio.Writer) error {
	full := t.weights()
	last := -1
	for i, wv := range full {
		if wv > 0 {
			last = i
		}
	}
	if last < 0 {
		return ErrCorruptWeights
	}
	weights := full[:last+1]
	weights = weights[:len(weights)-1] // drop the derived final weight

	if len(weights) <= 16 {
		w.WriteBits(uint64(len(weights)+127), 8)
		i := 0
		for ; i+1 < len(weights); i += 2 {
			w.WriteBits(uint64(weights[i+1]), 4)
			w.WriteBits(uint64(weights[i]), 4)
		}
		if i < len(weights) {
			w.WriteBits(uint64(weights[i])<<4, 8)
		}
		return nil
	}

	sizeIdx := w.Index()
	w.WriteBits(0, 8)
	before := w.Index()

	counts := make([]int, 256)
	for _, wv := range weights {
		counts[wv]++
	}
	// Scale the histogram so its sum stays below 64 (every present
	// weight keeps a count of at least 1), so the table fits
	// fseWeightMaxLog.
	for i, c := range counts {
		if c > 0 {
			counts[i] = max(1, c*32/len(weights))
		}
	}
	table, err := fse.BuildFromCounts(counts, fseWeightMaxLog, true)
	if err != nil {
		return err
	}
	table.WriteHeader(w)

	data := make([]byte, len(weights))
	for i, wv := range weights {
		data[i] = byte(wv)
	}
	encoded, err := table.EncodeInterleaved(data)
	if err != nil {
		return err
	}
	for _, b := range encoded {
		w.WriteBits(uint64(b), 8)
	}

	encodedLen := (w.Index() - before) / 8
	if encodedLen >= 128 {
		return ErrCorruptWeights
	}
	w.ChangeBits(sizeIdx, uint64(encodedLen), 8)
	return nil
}

// ReadTable parses a weight section written by WriteTable and
// rebuilds the canonical code table.
func ReadTable(r *bitio.Reader) (*Table, error) {
	header, err := r.GetBits(8)
	if err != nil {
		return nil, err
	}

	var weights []int
	if header >= 128 {
		n := int(header) - 127
		weights = make([]int, 0, n)
		for i := 0; i < n; i += 2 {
			pair, err := r.GetBits(8)
			if err != nil {
				return nil, err
			}
			weights = append(weights, int(pair>>4))
			if i+1 < n {
				weights = append(weights, int(pair&0xF))
			}
		}
	} else {
		byteLen := int(header)
		if byteLen == 0 || byteLen >= 128 {
			return nil, ErrCorruptWeights
		}
		startByte := r.BytePos()
		table, err := fse.ReadHeader(r, fseWeightMaxLog)
		if err != nil {
			return nil, err
		}
		headerBytes := r.BytePos() - startByte
		payloadLen := byteLen - headerBytes
		if payloadLen <= 0 {
			return nil, ErrCorruptWeights
		}
		payload := make([]byte, payloadLen)
		for i := range payload {
			v, err := r.GetBits(8)
			if err != nil {
				return nil, err
			}
			payload[i] = byte(v)
		}
		decoded, err := table.DecodeInterleavedUntilExhausted(payload, maxWeightValue)
		if err != nil {
			return nil, err
		}
		weights = make([]int, len(decoded))
		for i, b := range decoded {
			weights[i] = int(b)
		}
	}

	weights = appendDerivedWeight(weights)
	return BuildFromWeights(weights), nil
}

// appendDerivedWeight computes and appends the final weight so that
// Σ2^(w-1) over all weights (including the derived one) is a power of
// two, per §4.5.
func appendDerivedWeight(weights []int) []int {
	sum := 0
	for _, w := range weights {
		sum += 1 << uint(w-1)
	}
	total := nextPowerOfTwo(sum + 1)
	rem := total - sum
	derived := 0
	for rem > 1 {
		rem >>= 1
		derived++
	}
	derived++
	return append(weights, derived)
}

func nextPowerOfTwo(x int) int {
	p := 1
	for p < x {
		p <<= 1
	}
	return p
}
