// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package ringbuffer implements the sliding decode window a frame
// decoder reconstructs match copies against: a growable byte buffer
// sized to the frame's window, with byte-by-byte overlap-safe repeat
// copies and periodic draining to a sink while keeping the trailing
// window_size bytes available for further back-references.
package ringbuffer

import "errors"

// ErrOffsetTooLarge is returned by Repeat when offset exceeds the
// number of bytes written so far.
var ErrOffsetTooLarge = errors.New("ringbuffer: offset exceeds bytes written")

// Buffer is a flat byte buffer sized to the next power of two at or
// above windowSize+128KiB, reused across an entire frame decode
// (and across frames, via Reset) the way a decoder's block-sized
// scratch buffers are reused across blocks.
type Buffer struct {
	data       []byte
	written    int // logical count of bytes ever pushed, monotonic
	windowSize int
}

// capacityFor returns the smallest power of two >= windowSize+128KiB.
func capacityFor(windowSize int) int {
	need := windowSize + 128*1024
	cap := 1
	for cap < need {
		cap <<= 1
	}
	return cap
}

// New returns a Buffer sized for the given window.
func New(windowSize int) *Buffer {
	return &Buffer{
		data:       make([]byte, 0, capacityFor(windowSize)),
		windowSize: windowSize,
	}
}

// Reset clears the buffer for reuse with a (possibly different)
// window size, growing the backing array only if it is too small.
func (b *Buffer) Reset(windowSize int) {
	b.written = 0
	b.windowSize = windowSize
	need := capacityFor(windowSize)
	if cap(b.data) < need {
		b.data = make([]byte, 0, need)
		return
	}
	b.data = b.data[:0]
}

// Len returns the number of bytes currently held (not yet drained).
func (b *Buffer) Len() int {
	return len(b.data)
}

// BytesWritten returns the total logical byte count ever pushed,
// including bytes already drained.
func (b *Buffer) BytesWritten() int {
	return b.written
}

// PushSlice appends bytes to the buffer, advancing the write cursor.
func (b *Buffer) PushSlice(bytes []byte) {
	b.data = append(b.data, bytes...)
	b.written += len(bytes)
}

// Repeat copies len bytes ending offset bytes before the current
// cursor. It copies byte by byte so that an offset smaller than len
// produces the expected repeating-overlap expansion (the i-th copied
// byte reads from cursor-offset+i, which may itself have just been
// written by this same call).
func (b *Buffer) Repeat(offset, length int) error {
	if offset <= 0 || offset > b.written {
		return ErrOffsetTooLarge
	}
	start := len(b.data) - offset
	for i := 0; i < length; i++ {
		b.data = append(b.data, b.data[start+i])
	}
	b.written += length
	return nil
}

// DrainTo moves all but the trailing windowSize bytes of the buffer
// to sink, compacting the retained tail to the front of the backing
// array. Returns the number of bytes written to sink.
func (b *Buffer) DrainTo(sink func([]byte) error) (int, error) {
	keep := b.windowSize
	if keep > len(b.data) {
		keep = len(b.data)
	}
	emit := len(b.data) - keep
	if emit <= 0 {
		return 0, nil
	}
	if err := sink(b.data[:emit]); err != nil {
		return 0, err
	}
	n := copy(b.data, b.data[emit:])
	b.data = b.data[:n]
	return emit, nil
}

// DrainAll moves every currently held byte to sink, regardless of
// windowSize. Used once a frame's last block has been decoded and no
// further back-references will ever be issued against this buffer.
func (b *Buffer) DrainAll(sink func([]byte) error) (int, error) {
	if len(b.data) == 0 {
		return 0, nil
	}
	if err := sink(b.data); err != nil {
		return 0, err
	}
	n := len(b.data)
	b.data = b.data[:0]
	return n, nil
}

// Tail returns the trailing n bytes currently retained (n is clamped
// to Len()), without draining them. Used to feed the bytes a block has
// just added to the content checksum.
func (b *Buffer) Tail(n int) []byte {
	if n > len(b.data) {
		n = len(b.data)
	}
	return b.data[len(b.data)-n:]
}
