// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bitio

// Writer appends bits LSB-first into a growing byte buffer: write_bits
// packs the low bit of value into the next free bit position, moving
// from the low end of a byte towards its high end before advancing to
// the next byte. This is the exact dual of ReverseReader: bits
// appended here in order k=0,1,2,... are visited by a ReverseReader
// positioned at the end of the same buffer in order k=N-1,...,1,0,
// which is what lets an FSE/Huffman encoder process its input back to
// front and have a forward decoder read it front to back.
type Writer struct {
	buf   []byte
	nbits int
}

// NewWriter returns an empty bit writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Index returns the current bit offset, suitable for a later ChangeBits
// call.
func (w *Writer) Index() int {
	return w.nbits
}

// WriteBits appends the low n (<= 64) bits of value.
func (w *Writer) WriteBits(value uint64, n uint) {
	if n > 64 {
		panic("bitio: WriteBits called with n > 64")
	}
	for n > 0 {
		byteIdx := w.nbits / 8
		bitInByte := uint(w.nbits % 8)
		if bitInByte == 0 {
			w.buf = append(w.buf, 0)
		}
		free := 8 - bitInByte
		take := n
		if take > free {
			take = free
		}
		var mask uint64
		if take == 64 {
			mask = ^uint64(0)
		} else {
			mask = (uint64(1) << take) - 1
		}
		chunk := byte(value&mask) << bitInByte
		w.buf[byteIdx] |= chunk
		value >>= take
		n -= take
		w.nbits += int(take)
	}
}

// ChangeBits overwrites n (<= 64) bits starting at bitOffset (as
// returned by an earlier Index call) without changing the writer's
// current position. Used to reserve a slot, keep writing, and patch
// the slot in afterwards (block/stream sizes, jump tables).
func (w *Writer) ChangeBits(bitOffset int, value uint64, n uint) {
	if bitOffset+int(n) > w.nbits {
		panic("bitio: ChangeBits would write past the current position")
	}
	pos := bitOffset
	for n > 0 {
		byteIdx := pos / 8
		bitInByte := uint(pos % 8)
		free := 8 - bitInByte
		take := n
		if take > free {
			take = free
		}
		var bitMask uint64
		if take == 64 {
			bitMask = ^uint64(0)
		} else {
			bitMask = (uint64(1) << take) - 1
		}
		clear := byte(bitMask) << bitInByte
		set := byte(value&bitMask) << bitInByte
		w.buf[byteIdx] = (w.buf[byteIdx] &^ clear) | set
		value >>= take
		pos += int(take)
		n -= take
	}
}

// Misaligned returns the number of bits needed to reach the next byte
// boundary, or 0 if the writer is already aligned.
func (w *Writer) Misaligned() uint {
	m := w.nbits % 8
	if m == 0 {
		return 0
	}
	return uint(8 - m)
}

// WriteEndMark appends the terminating 1-bit marker that a
// ReverseReader uses to locate the start of an entropy-coded stream: a
// full 0x01 byte if already aligned, otherwise a single 1 bit in the
// remaining space of the current byte.
func (w *Writer) WriteEndMark() {
	if m := w.Misaligned(); m == 0 {
		w.WriteBits(1, 8)
	} else {
		w.WriteBits(1, m)
	}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of whole bytes currently in the buffer.
func (w *Writer) Len() int {
	return len(w.buf)
}
