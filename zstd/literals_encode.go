// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/huff0"
)

func writeLiteralsHeader(w *bitio.Writer, mode literalsMode, sizeFormat uint64, regen, comp int) {
	w.WriteBits(uint64(mode), 2)
	w.WriteBits(sizeFormat, 2)
	switch mode {
	case literalsRaw, literalsRLE:
		switch sizeFormat {
		case 0, 2:
			w.WriteBits(uint64(regen), 5)
		case 1:
			w.WriteBits(uint64(regen), 12)
		default:
			w.WriteBits(uint64(regen), 20)
		}
	default:
		switch sizeFormat {
		case 0, 1:
			w.WriteBits(uint64(regen), 10)
			w.WriteBits(uint64(comp), 10)
		case 2:
			w.WriteBits(uint64(regen), 14)
			w.WriteBits(uint64(comp), 14)
		default:
			w.WriteBits(uint64(regen), 18)
			w.WriteBits(uint64(comp), 18)
		}
	}
}

// encodeLiterals builds a complete literals section (header + payload)
// for data, choosing Raw when Huffman coding would not shrink it and
// falling back to 1 or 4 streams the same way parseLiteralsHeader's
// mode/size-format pairing expects them read back.
func encodeLiterals(data []byte) []byte {
	if len(data) == 0 {
		w := bitio.NewWriter()
		writeLiteralsHeader(w, literalsRaw, 3, 0, 0)
		padToByte(w)
		return w.Bytes()
	}

	if huffman, ok := tryEncodeHuffmanLiterals(data); ok {
		return huffman
	}

	w := bitio.NewWriter()
	writeLiteralsHeader(w, literalsRaw, 3, len(data), 0)
	padToByte(w)
	out := w.Bytes()
	out = append(out, data...)
	return out
}

func tryEncodeHuffmanLiterals(data []byte) ([]byte, bool) {
	table := huff0.BuildFromData(data)
	if table.MaxNumBits() == 0 {
		return nil, false
	}

	tw := bitio.NewWriter()
	if err := table.WriteTable(tw); err != nil {
		return nil, false
	}
	padToByte(tw)
	weightBytes := tw.Bytes()

	var payload []byte
	sizeFormat := uint64(0)
	if len(data) < 1024 {
		payload = table.Encode(data)
	} else {
		sizes, p, err := table.Encode4X(data)
		if err != nil {
			return nil, false
		}
		jump := make([]byte, 6)
		jump[0], jump[1] = byte(sizes[0]), byte(sizes[0]>>8)
		jump[2], jump[3] = byte(sizes[1]), byte(sizes[1]>>8)
		jump[4], jump[5] = byte(sizes[2]), byte(sizes[2]>>8)
		payload = append(jump, p...)
		switch {
		case len(data) < 16384:
			sizeFormat = 2
		default:
			sizeFormat = 3
		}
	}

	compSize := len(weightBytes) + len(payload)
	if compSize >= len(data) {
		return nil, false
	}

	w := bitio.NewWriter()
	writeLiteralsHeader(w, literalsHuffmanNewTree, sizeFormat, len(data), compSize)
	padToByte(w)
	out := w.Bytes()
	out = append(out, weightBytes...)
	out = append(out, payload...)
	return out, true
}

func padToByte(w *bitio.Writer) {
	if m := w.Misaligned(); m != 0 {
		w.WriteBits(0, m)
	}
}
