// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/ringbuffer"
)

type blockType uint8

const (
	blockRaw blockType = iota
	blockRLE
	blockCompressed
	blockReserved
)

const maxBlockDecompressedSize = 128 * 1024

// blockHeader is the parsed 3-byte block header.
type blockHeader struct {
	last bool
	typ  blockType
	size int // meaning depends on typ: byte count (Raw/Compressed) or repeat count (RLE)
}

func parseBlockHeader(b []byte) (blockHeader, error) {
	if len(b) < 3 {
		return blockHeader{}, newError(KindNotEnoughBits, "block header truncated")
	}
	raw := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	return blockHeader{
		last: raw&1 != 0,
		typ:  blockType((raw >> 1) & 0x3),
		size: int(raw >> 3),
	}, nil
}

// decodeBlock parses and executes one block's content against win,
// using and updating scratch's entropy tables across the frame.
// Returns the number of bytes of body consumed from payload.
func decodeBlock(hdr blockHeader, payload []byte, win *ringbuffer.Buffer, scratch *scratchSpace, windowSize int) (int, error) {
	maxSize := maxBlockDecompressedSize
	if windowSize < maxSize {
		maxSize = windowSize
	}

	switch hdr.typ {
	case blockRaw:
		if hdr.size > maxSize {
			return 0, newError(KindBlockTooLarge, "raw block size %d exceeds %d", hdr.size, maxSize)
		}
		if hdr.size > len(payload) {
			return 0, newError(KindNotEnoughBits, "raw block truncated")
		}
		win.PushSlice(payload[:hdr.size])
		return hdr.size, nil

	case blockRLE:
		if hdr.size > maxSize {
			return 0, newError(KindBlockTooLarge, "RLE block size %d exceeds %d", hdr.size, maxSize)
		}
		if len(payload) < 1 {
			return 0, newError(KindNotEnoughBits, "RLE block truncated")
		}
		b := payload[0]
		buf := make([]byte, hdr.size)
		for i := range buf {
			buf[i] = b
		}
		win.PushSlice(buf)
		return 1, nil

	case blockCompressed:
		return decodeCompressedBlock(payload[:hdr.size], win, scratch, maxSize)

	default:
		return 0, newError(KindReservedBlockType, "reserved block type")
	}
}

func decodeCompressedBlock(payload []byte, win *ringbuffer.Buffer, scratch *scratchSpace, maxSize int) (int, error) {
	literals, litConsumed, err := decodeLiterals(payload, scratch)
	if err != nil {
		return 0, err
	}
	if len(literals) > maxSize {
		return 0, newError(KindBlockTooLarge, "literals size %d exceeds %d", len(literals), maxSize)
	}

	seqs, seqConsumed, err := decodeSequences(payload[litConsumed:], scratch)
	if err != nil {
		return 0, err
	}

	litPos := 0
	for _, s := range seqs {
		if int(s.litLen) > len(literals)-litPos {
			return 0, newError(KindBlockTooLarge, "sequence literal_length exceeds available literals")
		}
		win.PushSlice(literals[litPos : litPos+int(s.litLen)])
		litPos += int(s.litLen)
		if s.matchLen > 0 {
			if err := win.Repeat(int(s.offset), int(s.matchLen)); err != nil {
				return 0, err
			}
		}
	}
	if litPos < len(literals) {
		win.PushSlice(literals[litPos:])
	}

	return litConsumed + seqConsumed, nil
}
