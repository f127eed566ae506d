// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"encoding/binary"
	"errors"
	"io"
)

const zstdMagic = 0xFD2FB528

const (
	skippableMagicLow  = 0x184D2A50
	skippableMagicHigh = 0x184D2A5F
)

const minWindowSize = 1024

// FrameHeader is the parsed fixed portion of a frame, ahead of its
// block sequence.
type FrameHeader struct {
	SingleSegment       bool
	WindowSize          int
	HasFrameContentSize bool
	FrameContentSize    uint64
	DictionaryID        uint32
	ContentChecksum     bool
}

// readMagic consumes magic numbers from source, transparently skipping
// any skippable frames (magic in [0x184D2A50, 0x184D2A5F]) that
// precede the next zstd frame, per §1's "recognized and skipped only"
// non-goal.
func readMagic(source io.Reader) error {
	var buf [4]byte
	first := true
	for {
		if _, err := io.ReadFull(source, buf[:]); err != nil {
			// A clean io.EOF on the very first read of a frame is a
			// legitimate end of a (possibly multi-frame) stream, not a
			// truncated frame; pass it through unchanged so callers can
			// detect "no more frames". Any other short read, here or on
			// a skippable frame's trailing fields, is structural.
			if first && errors.Is(err, io.EOF) {
				return err
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return newError(KindUnexpectedEof, "unexpected end of input: %v", err)
			}
			return err
		}
		first = false
		magic := binary.LittleEndian.Uint32(buf[:])
		if magic == zstdMagic {
			return nil
		}
		if magic >= skippableMagicLow && magic <= skippableMagicHigh {
			var sizeBuf [4]byte
			if err := readFull(source, sizeBuf[:]); err != nil {
				return err
			}
			size := binary.LittleEndian.Uint32(sizeBuf[:])
			if _, err := io.CopyN(io.Discard, source, int64(size)); err != nil {
				if errors.Is(err, io.EOF) {
					return newError(KindUnexpectedEof, "unexpected end of input: %v", err)
				}
				return err
			}
			continue
		}
		return newError(KindBadMagic, "unrecognized magic number %#x", magic)
	}
}

// readFrameHeader parses the frame header descriptor and its
// following optional fields, per §3/§4.7. strictReservedBits rejects a
// non-zero descriptor reserved bit (bit 3) instead of ignoring it;
// maxWindowSize, if non-zero, caps the window size this frame may
// declare.
func readFrameHeader(source io.Reader, strictReservedBits bool, maxWindowSize int) (FrameHeader, error) {
	var descByte [1]byte
	if err := readFull(source, descByte[:]); err != nil {
		return FrameHeader{}, err
	}
	desc := descByte[0]

	fcsFlag := desc >> 6
	singleSegment := desc&(1<<5) != 0
	reservedBit := desc&(1<<3) != 0
	checksumFlag := desc&(1<<2) != 0
	dictIDFlag := desc & 0x3

	if reservedBit && strictReservedBits {
		return FrameHeader{}, newError(KindReservedBitSet, "frame header descriptor reserved bit is set")
	}

	hdr := FrameHeader{SingleSegment: singleSegment, ContentChecksum: checksumFlag}

	if !singleSegment {
		var wdByte [1]byte
		if err := readFull(source, wdByte[:]); err != nil {
			return FrameHeader{}, err
		}
		exponent := uint(wdByte[0] >> 3)
		mantissa := uint(wdByte[0] & 0x7)
		windowBase := 1 << (10 + exponent)
		windowAdd := (windowBase / 8) * int(mantissa)
		hdr.WindowSize = windowBase + windowAdd
		if hdr.WindowSize < minWindowSize {
			return FrameHeader{}, newError(KindUnsupportedFrame, "window size %d below minimum", hdr.WindowSize)
		}
	}

	var dictIDBytes int
	switch dictIDFlag {
	case 0:
		dictIDBytes = 0
	case 1:
		dictIDBytes = 1
	case 2:
		dictIDBytes = 2
	case 3:
		dictIDBytes = 4
	}
	if dictIDBytes > 0 {
		buf := make([]byte, dictIDBytes)
		if err := readFull(source, buf); err != nil {
			return FrameHeader{}, err
		}
		var v uint32
		for i := dictIDBytes - 1; i >= 0; i-- {
			v = v<<8 | uint32(buf[i])
		}
		hdr.DictionaryID = v
	}

	var fcsBytes int
	switch fcsFlag {
	case 0:
		if singleSegment {
			fcsBytes = 1
		}
	case 1:
		fcsBytes = 2
	case 2:
		fcsBytes = 4
	case 3:
		fcsBytes = 8
	}
	if fcsBytes > 0 {
		buf := make([]byte, fcsBytes)
		if err := readFull(source, buf); err != nil {
			return FrameHeader{}, err
		}
		var v uint64
		for i := fcsBytes - 1; i >= 0; i-- {
			v = v<<8 | uint64(buf[i])
		}
		if fcsBytes == 2 {
			v += 256
		}
		hdr.HasFrameContentSize = true
		hdr.FrameContentSize = v
	}

	if !singleSegment && hdr.WindowSize == 0 {
		return FrameHeader{}, newError(KindUnsupportedFrame, "frame header carries neither window size nor single-segment content size")
	}
	if singleSegment {
		hdr.WindowSize = int(hdr.FrameContentSize)
	}

	if maxWindowSize > 0 && hdr.WindowSize > maxWindowSize {
		return FrameHeader{}, newError(KindWindowTooLarge, "window size %d exceeds configured maximum %d", hdr.WindowSize, maxWindowSize)
	}

	return hdr, nil
}
