// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/huff0"
)

// literalsMode identifies how a literals section's bytes are stored.
type literalsMode uint8

const (
	literalsRaw literalsMode = iota
	literalsRLE
	literalsHuffmanNewTree
	literalsHuffmanRepeatTree
)

const maxRegeneratedLiteralsSize = 128 * 1024

// literalsHeader is the parsed 5-18 bit literals section header.
type literalsHeader struct {
	mode            literalsMode
	regeneratedSize int
	compressedSize  int // 0 for Raw/RLE
	streamCount     int // 1 or 4; 0 for Raw/RLE
}

// parseLiteralsHeader reads the variable-width literals header
// described in §4.6: the first byte's low 2 bits select the mode,
// and (for compressed modes) the next 2 bits select the header size
// class, which in turn selects the bit-widths of regenerated_size and
// compressed_size.
func parseLiteralsHeader(r *bitio.Reader) (literalsHeader, error) {
	modeBits, err := r.GetBits(2)
	if err != nil {
		return literalsHeader{}, err
	}
	mode := literalsMode(modeBits)

	switch mode {
	case literalsRaw, literalsRLE:
		sizeFormat, err := r.GetBits(2)
		if err != nil {
			return literalsHeader{}, err
		}
		var size uint64
		switch sizeFormat {
		case 0, 2:
			size, err = r.GetBits(5)
		case 1:
			size, err = r.GetBits(12)
		default:
			size, err = r.GetBits(20)
		}
		if err != nil {
			return literalsHeader{}, err
		}
		return literalsHeader{mode: mode, regeneratedSize: int(size)}, nil

	case literalsHuffmanNewTree, literalsHuffmanRepeatTree:
		sizeFormat, err := r.GetBits(2)
		if err != nil {
			return literalsHeader{}, err
		}
		var regen, comp uint64
		streamCount := 4
		switch sizeFormat {
		case 0:
			streamCount = 1
			regen, err = r.GetBits(10)
			if err == nil {
				comp, err = r.GetBits(10)
			}
		case 1:
			regen, err = r.GetBits(10)
			if err == nil {
				comp, err = r.GetBits(10)
			}
		case 2:
			regen, err = r.GetBits(14)
			if err == nil {
				comp, err = r.GetBits(14)
			}
		default:
			regen, err = r.GetBits(18)
			if err == nil {
				comp, err = r.GetBits(18)
			}
		}
		if err != nil {
			return literalsHeader{}, err
		}
		if regen > maxRegeneratedLiteralsSize {
			return literalsHeader{}, newError(KindBlockTooLarge, "literals regenerated size %d exceeds 128KiB", regen)
		}
		return literalsHeader{
			mode:            mode,
			regeneratedSize: int(regen),
			compressedSize:  int(comp),
			streamCount:     streamCount,
		}, nil
	}
	return literalsHeader{}, newError(KindCorruptTable, "unreachable literals mode %d", mode)
}

// decodeLiterals parses and materializes a literals section, updating
// scratch's Huffman table when a new tree is present. Returns the
// regenerated literal bytes and the number of section bytes consumed
// from blockPayload, section header included.
func decodeLiterals(blockPayload []byte, scratch *scratchSpace) ([]byte, int, error) {
	r := bitio.NewReader(blockPayload)
	hdr, err := parseLiteralsHeader(r)
	if err != nil {
		return nil, 0, err
	}
	if err := r.AlignToByte(); err != nil {
		return nil, 0, err
	}
	headerBytes := r.BytePos()

	switch hdr.mode {
	case literalsRaw:
		if headerBytes+hdr.regeneratedSize > len(blockPayload) {
			return nil, 0, newError(KindNotEnoughBits, "raw literals section truncated")
		}
		out := make([]byte, hdr.regeneratedSize)
		copy(out, blockPayload[headerBytes:headerBytes+hdr.regeneratedSize])
		return out, headerBytes + hdr.regeneratedSize, nil

	case literalsRLE:
		if headerBytes >= len(blockPayload) {
			return nil, 0, newError(KindNotEnoughBits, "RLE literals section truncated")
		}
		out := make([]byte, hdr.regeneratedSize)
		b := blockPayload[headerBytes]
		for i := range out {
			out[i] = b
		}
		return out, headerBytes + 1, nil

	case literalsHuffmanNewTree, literalsHuffmanRepeatTree:
		if hdr.mode == literalsHuffmanRepeatTree && scratch.huffTable == nil {
			return nil, 0, newError(KindMissingRepeatTable, "Repeat literals mode with no prior Huffman tree")
		}
		tableBytes := 0
		if hdr.mode == literalsHuffmanNewTree {
			tr := bitio.NewReader(blockPayload[headerBytes:])
			table, err := huff0.ReadTable(tr)
			if err != nil {
				return nil, 0, err
			}
			scratch.huffTable = table
			if err := tr.AlignToByte(); err != nil {
				return nil, 0, err
			}
			tableBytes = tr.BytePos()
		}

		payloadStart := headerBytes + tableBytes
		payloadEnd := headerBytes + hdr.compressedSize
		if payloadEnd > len(blockPayload) || payloadStart > payloadEnd {
			return nil, 0, newError(KindNotEnoughBits, "huffman literals payload truncated")
		}
		payload := blockPayload[payloadStart:payloadEnd]

		var out []byte
		if hdr.streamCount == 1 {
			out, err = scratch.huffTable.Decode(payload, hdr.regeneratedSize)
		} else {
			if len(payload) < 6 {
				return nil, 0, newError(KindNotEnoughBits, "4x huffman jump table truncated")
			}
			jr := bitio.NewReader(payload[:6])
			var sizes [3]uint16
			for i := range sizes {
				v, _ := jr.GetBits(16)
				sizes[i] = uint16(v)
			}
			base := (hdr.regeneratedSize + 3) / 4
			o := [4]int{base, base, base, hdr.regeneratedSize - 3*base}
			out, err = scratch.huffTable.Decode4X(sizes, payload[6:], o)
		}
		if err != nil {
			return nil, 0, err
		}
		return out, payloadEnd, nil
	}
	return nil, 0, newError(KindCorruptTable, "unreachable literals mode %d", hdr.mode)
}
