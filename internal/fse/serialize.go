// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fse

import (
	"errors"

	"github.com/gozstd/gozstd/internal/bitio"
)

// ErrCorruptHeader is returned when a table header violates the
// normalized-count encoding invariants (a count of 0 with no
// following repeat-zero code, or a cumulative sum that never reaches
// 2^accuracy_log).
var ErrCorruptHeader = errors.New("fse: corrupt table header")

// WriteHeader serializes the table description: (accuracy_log - 5) in
// 4 bits, then one variable-width normalized-count code per symbol
// (ascending symbol order) until the cumulative probability reaches
// 2^accuracy_log. Zero counts are packed into runs of up to 3 using a
// 2-bit repeat code. The header is padded with zero bits to the next
// byte boundary.
func (t *Table) WriteHeader(w *bitio.Writer) {
	w.WriteBits(uint64(t.accLog-5), 4)

	probSum := t.tableSize
	counter := uint32(0)
	symbol := 0

	probOf := func(sym int) int32 {
		return t.bySymbol[sym].probability
	}

	for counter < probSum {
		maxRemaining := probSum - counter + 1
		bitsToWrite := uint(log2Floor(maxRemaining)) + 1
		lowThreshold := (uint32(1)<<bitsToWrite - 1) - maxRemaining
		mask := uint32(1)<<(bitsToWrite-1) - 1

		prob := probOf(symbol)
		symbol++
		value := uint32(prob + 1)

		switch {
		case value < lowThreshold:
			w.WriteBits(uint64(value), bitsToWrite-1)
		case value > mask:
			w.WriteBits(uint64(value+lowThreshold), bitsToWrite)
		default:
			w.WriteBits(uint64(value), bitsToWrite)
		}

		switch {
		case prob == -1:
			counter++
		case prob > 0:
			counter += uint32(prob)
		default:
			zeros := 0
			for symbol < 256 && probOf(symbol) == 0 {
				zeros++
				symbol++
				if zeros == 3 {
					w.WriteBits(3, 2)
					zeros = 0
				}
			}
			w.WriteBits(uint64(zeros), 2)
		}
	}

	if m := w.Misaligned(); m != 0 {
		w.WriteBits(0, m)
	}
}

// ReadHeader parses a table header written by WriteHeader and builds
// the corresponding decode/encode table. maxLog bounds the accuracy
// log accepted for this symbol class.
func ReadHeader(r *bitio.Reader, maxLog uint8) (*Table, error) {
	rawLog, err := r.GetBits(4)
	if err != nil {
		return nil, err
	}
	accLog := uint8(rawLog) + 5
	if accLog > maxLog {
		return nil, ErrAccuracyLogTooLarge
	}

	probSum := uint32(1) << accLog
	counter := uint32(0)
	symbol := 0
	probs := make([]int32, 256)

	for counter < probSum && symbol < 256 {
		maxRemaining := probSum - counter + 1
		bitsToWrite := uint(log2Floor(maxRemaining)) + 1
		lowThreshold := (uint32(1)<<bitsToWrite - 1) - maxRemaining
		mask := uint32(1)<<(bitsToWrite-1) - 1

		low, err := r.GetBits(bitsToWrite - 1)
		if err != nil {
			return nil, err
		}
		value := uint32(low)
		if value >= lowThreshold {
			extra, err := r.GetBits(1)
			if err != nil {
				return nil, err
			}
			value |= uint32(extra) << (bitsToWrite - 1)
			if value > mask {
				value -= lowThreshold
			}
		}
		prob := int32(value) - 1
		probs[symbol] = prob
		symbol++

		switch {
		case prob == -1:
			counter++
		case prob > 0:
			counter += uint32(prob)
		default:
			for {
				zeros, err := r.GetBits(2)
				if err != nil {
					return nil, err
				}
				for i := uint64(0); i < zeros && symbol < 256; i++ {
					probs[symbol] = 0
					symbol++
				}
				if zeros != 3 {
					break
				}
			}
		}
	}
	if counter != probSum {
		return nil, ErrCorruptHeader
	}

	if err := r.AlignToByte(); err != nil {
		return nil, err
	}

	return BuildFromProbabilities(probs, accLog), nil
}
