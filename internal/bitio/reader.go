// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package bitio implements the unaligned bit-level readers and writer
// that the entropy coders and frame codec build on: a forward reader
// (LSB-first, used for header fields and table descriptions), a
// reverse reader (MSB-first from the tail of a buffer, used for
// entropy-coded payloads), and a bit writer with retroactive patching.
package bitio

import (
	"errors"
	"math/bits"
)

// ErrNotEnoughBits is returned when a read would cross the end of the
// underlying buffer.
var ErrNotEnoughBits = errors.New("bitio: not enough bits available")

// ErrCorrupt is returned by NewReverseReader when the buffer has no
// stream-marker bit to anchor on.
var ErrCorrupt = errors.New("bitio: missing reverse-stream marker bit")

// Reader reads bits forward from the low bits of each byte upward,
// i.e. bit 0 of byte 0 is read first, then bit 1 of byte 0, and so on.
type Reader struct {
	data   []byte
	bitPos int
}

// NewReader returns a forward bit reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// BitsLeft reports how many unread bits remain.
func (r *Reader) BitsLeft() int {
	return len(r.data)*8 - r.bitPos
}

// BytePos reports the index of the byte containing the next unread bit.
func (r *Reader) BytePos() int {
	return r.bitPos / 8
}

// BitPos reports the absolute bit offset of the next unread bit.
func (r *Reader) BitPos() int {
	return r.bitPos
}

// AlignToByte advances the cursor to the next byte boundary, if it is
// not already aligned.
func (r *Reader) AlignToByte() error {
	if m := r.bitPos % 8; m != 0 {
		_, err := r.GetBits(uint(8 - m))
		return err
	}
	return nil
}

// GetBits reads n (<= 64) bits and returns them in the low bits of the
// result, least-significant bit read first.
func (r *Reader) GetBits(n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 64 {
		panic("bitio: GetBits called with n > 64")
	}
	if r.bitPos+int(n) > len(r.data)*8 {
		return 0, ErrNotEnoughBits
	}

	bitsLeftInByte := uint(8 - r.bitPos%8)
	value := uint64(r.data[r.bitPos/8]) >> (8 - bitsLeftInByte)

	if bitsLeftInByte >= n {
		value &= (uint64(1) << n) - 1
		r.bitPos += int(n)
		return value, nil
	}

	r.bitPos += int(bitsLeftInByte)
	remaining := n - bitsLeftInByte
	fullBytes := remaining / 8
	tailBits := remaining - fullBytes*8
	shift := bitsLeftInByte

	for i := uint(0); i < fullBytes; i++ {
		value |= uint64(r.data[r.bitPos/8]) << shift
		r.bitPos += 8
		shift += 8
	}

	if tailBits > 0 {
		last := uint64(r.data[r.bitPos/8]) & ((uint64(1) << tailBits) - 1)
		value |= last << shift
		r.bitPos += int(tailBits)
	}

	return value, nil
}

// ReturnBits rewinds the cursor by n bits, as if the last GetBits(n)
// call had never happened.
func (r *Reader) ReturnBits(n uint) {
	if int(n) > r.bitPos {
		panic("bitio: ReturnBits would rewind before the start of the buffer")
	}
	r.bitPos -= int(n)
}

// ReverseReader reads bits MSB-first, starting just below the stream
// marker bit located in the final byte of the buffer and moving
// towards the front.
type ReverseReader struct {
	data   []byte
	cursor int // virtual bit position, 0 == MSB of the final byte
	total  int // total virtual bits (len(data)*8)
}

// NewReverseReader locates the stream marker (the most significant set
// bit of the last byte) and returns a reader positioned just below it.
func NewReverseReader(data []byte) (*ReverseReader, error) {
	if len(data) == 0 {
		return nil, ErrCorrupt
	}
	last := data[len(data)-1]
	if last == 0 {
		return nil, ErrCorrupt
	}
	skip := 9 - bits.Len8(last)
	return &ReverseReader{data: data, cursor: skip, total: len(data) * 8}, nil
}

// BitsLeft reports how many unread bits remain.
func (r *ReverseReader) BitsLeft() int {
	return r.total - r.cursor
}

// bitAt returns the virtual bit (0 or 1) at the given MSB-first virtual
// position, where position 0 is the most significant bit of the last
// byte of the buffer and position increases moving towards the front.
func (r *ReverseReader) bitAt(pos int) byte {
	byteFromEnd := pos / 8
	bitInByte := uint(pos % 8)
	b := r.data[len(r.data)-1-byteFromEnd]
	return (b >> (7 - bitInByte)) & 1
}

// GetBits reads the next n (<= 64) bits, MSB-first.
func (r *ReverseReader) GetBits(n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 64 {
		panic("bitio: GetBits called with n > 64")
	}
	if r.cursor+int(n) > r.total {
		return 0, ErrNotEnoughBits
	}
	var value uint64
	for i := 0; i < int(n); i++ {
		value = (value << 1) | uint64(r.bitAt(r.cursor+i))
	}
	r.cursor += int(n)
	return value, nil
}
