// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package huff0

import (
	"errors"

	"github.com/gozstd/gozstd/internal/bitio"
)

// ErrTooFewSymbols is returned by Encode4X when data is too short to
// split into four streams.
var ErrTooFewSymbols = errors.New("huff0: need at least 4 symbols for a 4x stream")

// ErrCorruptStream is returned by a decode when a bit sequence does
// not correspond to any assigned code.
var ErrCorruptStream = errors.New("huff0: bit sequence does not match any code")

// encodeStream writes data's symbols in reverse order (code,
// numBits each), then finalizes with the reverse-read marker bit.
func encodeStream(w *bitio.Writer, t *Table, data []byte) {
	for i := len(data) - 1; i >= 0; i-- {
		c := t.codes[data[i]]
		w.WriteBits(uint64(c.value), uint(c.numBits))
	}
	w.WriteEndMark()
}

// Encode writes a single Huffman stream for data.
func (t *Table) Encode(data []byte) []byte {
	w := bitio.NewWriter()
	encodeStream(w, t, data)
	return w.Bytes()
}

// Encode4X splits data into four roughly equal streams (the first
// three sized ceil(len/4)), encodes each independently, and returns
// the 3 jump-table sizes (in bytes) alongside the concatenated
// payload, per §4.5's streaming description.
func (t *Table) Encode4X(data []byte) (sizes [3]uint16, payload []byte, err error) {
	if len(data) < 4 {
		return sizes, nil, ErrTooFewSymbols
	}
	splitSize := (len(data) + 3) / 4
	end1, end2, end3 := splitSize, splitSize*2, splitSize*3
	if end3 > len(data) {
		end3 = len(data)
	}
	if end2 > end3 {
		end2 = end3
	}
	if end1 > end2 {
		end1 = end2
	}
	streams := [4][]byte{data[:end1], data[end1:end2], data[end2:end3], data[end3:]}

	var out []byte
	for i, s := range streams {
		w := bitio.NewWriter()
		encodeStream(w, t, s)
		if i < 3 {
			if len(w.Bytes()) > 0xFFFF {
				return sizes, nil, errors.New("huff0: stream too large for 16-bit jump table")
			}
			sizes[i] = uint16(len(w.Bytes()))
		}
		out = append(out, w.Bytes()...)
	}
	return sizes, out, nil
}

// decodeStream reads outLen symbols from a single reverse-read
// Huffman stream, walking the canonical code tree bit by bit: the
// accumulated prefix is compared against every assigned code of the
// same length, exactly as a canonical code's prefix-free property
// guarantees a unique match once a code's length is reached.
func decodeStream(payload []byte, t *Table, outLen int) ([]byte, error) {
	r, err := bitio.NewReverseReader(payload)
	if err != nil {
		return nil, err
	}

	byLen := make(map[uint8][]struct {
		value  uint32
		symbol byte
	})
	for s, c := range t.codes {
		if c.numBits == 0 {
			continue
		}
		byLen[c.numBits] = append(byLen[c.numBits], struct {
			value  uint32
			symbol byte
		}{c.value, byte(s)})
	}

	out := make([]byte, 0, outLen)
	for len(out) < outLen {
		var acc uint32
		found := false
		for n := uint8(1); n <= t.maxNumBits; n++ {
			bit, err := r.GetBits(1)
			if err != nil {
				return nil, err
			}
			acc = (acc << 1) | uint32(bit)
			for _, e := range byLen[n] {
				if e.value == acc {
					out = append(out, e.symbol)
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return nil, ErrCorruptStream
		}
	}
	return out, nil
}

// Decode reads outLen symbols from a single Huffman stream.
func (t *Table) Decode(payload []byte, outLen int) ([]byte, error) {
	return decodeStream(payload, t, outLen)
}

// Decode4X reads four independently-framed streams (sized by sizes
// and the remainder of payload) and concatenates their
// totalOutLen/4-ish outputs; outLens gives the exact regenerated size
// of each of the four streams.
func (t *Table) Decode4X(sizes [3]uint16, payload []byte, outLens [4]int) ([]byte, error) {
	offsets := [4]int{0, int(sizes[0]), int(sizes[0]) + int(sizes[1]), int(sizes[0]) + int(sizes[1]) + int(sizes[2])}
	ends := [4]int{offsets[1], offsets[2], offsets[3], len(payload)}

	var out []byte
	for i := 0; i < 4; i++ {
		if offsets[i] > len(payload) || ends[i] > len(payload) || offsets[i] > ends[i] {
			return nil, ErrCorruptStream
		}
		decoded, err := decodeStream(payload[offsets[i]:ends[i]], t, outLens[i])
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}
