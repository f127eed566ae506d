// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import "math/bits"

// codeEntry maps an FSE symbol (a "code") to the baseline value it
// represents and the number of extra bits that follow it in the
// bitstream to select the exact value within that code's range.
type codeEntry struct {
	baseline uint32
	extra    uint8
}

// literalLengthCodes and matchLengthCodes are RFC 8878's fixed
// baseline/extra-bit tables for the literal_length and match_length
// symbol alphabets (36 and 53 codes respectively); offsetCode(n)
// gives the equivalent for the open-ended offset alphabet, where code
// N means baseline 2^N with N extra bits.
var literalLengthCodes = [36]codeEntry{
	{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0},
	{8, 0}, {9, 0}, {10, 0}, {11, 0}, {12, 0}, {13, 0}, {14, 0}, {15, 0},
	{16, 1}, {18, 1}, {20, 1}, {22, 1}, {24, 2}, {28, 2}, {32, 3}, {40, 3},
	{48, 4}, {64, 6}, {128, 7}, {256, 8}, {512, 9}, {1024, 10}, {2048, 11},
	{4096, 12}, {8192, 13}, {16384, 14}, {32768, 15}, {65536, 16},
}

var matchLengthCodes = [53]codeEntry{
	{3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0}, {10, 0},
	{11, 0}, {12, 0}, {13, 0}, {14, 0}, {15, 0}, {16, 0}, {17, 0}, {18, 0},
	{19, 0}, {20, 0}, {21, 0}, {22, 0}, {23, 0}, {24, 0}, {25, 0}, {26, 0},
	{27, 0}, {28, 0}, {29, 0}, {30, 0}, {31, 0}, {32, 0}, {33, 0}, {34, 0},
	{35, 1}, {37, 1}, {39, 1}, {41, 1}, {43, 2}, {47, 2}, {51, 3}, {59, 3},
	{67, 4}, {83, 4}, {99, 5}, {131, 7}, {259, 8}, {515, 9}, {1027, 10},
	{2051, 11}, {4099, 12}, {8195, 13}, {16387, 14}, {32771, 15}, {65539, 16},
}

// offsetCode returns the baseline/extra-bit entry for offset code n:
// baseline 2^n, n extra bits (n unbounded in principle, capped by the
// window size in practice).
func offsetCode(n uint8) codeEntry {
	return codeEntry{baseline: uint32(1) << n, extra: n}
}

// Default (predefined) normalized distributions, fixed by RFC 8878
// for the Predefined sequence-table mode.
var (
	defaultLiteralLengthNorm = []int32{
		4, 3, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 1, 1, 1,
		2, 2, 2, 2, 2, 2, 2, 2, 2, 3, 2, 1, 1, 1, 1, 1,
		-1, -1, -1, -1,
	}
	defaultMatchLengthNorm = []int32{
		1, 4, 3, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1,
		-1, -1, -1, -1, -1,
	}
	defaultOffsetNorm = []int32{
		1, 1, 1, 1, 1, 1, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1,
	}
)

// literalLengthCodeFor returns the code, extra-bit count, and extra
// value for a literal_length the encoder needs to emit, by scanning
// literalLengthCodes from its top (highest baseline) down for the
// first entry whose baseline does not exceed v.
func literalLengthCodeFor(v uint32) (code byte, extraBits uint8, extraVal uint32) {
	for i := len(literalLengthCodes) - 1; i >= 0; i-- {
		if v >= literalLengthCodes[i].baseline {
			return byte(i), literalLengthCodes[i].extra, v - literalLengthCodes[i].baseline
		}
	}
	return 0, 0, v
}

// matchLengthCodeFor is literalLengthCodeFor's match_length counterpart.
func matchLengthCodeFor(v uint32) (code byte, extraBits uint8, extraVal uint32) {
	for i := len(matchLengthCodes) - 1; i >= 0; i-- {
		if v >= matchLengthCodes[i].baseline {
			return byte(i), matchLengthCodes[i].extra, v - matchLengthCodes[i].baseline
		}
	}
	return 0, 0, v
}

// offsetCodeFor returns the code/extra split for a raw offset value
// (already shifted by the +3 literal-offset convention): code is
// floor(log2(raw)), extra is raw with that leading bit cleared.
func offsetCodeFor(raw uint32) (code byte, extraBits uint8, extraVal uint32) {
	if raw == 0 {
		return 0, 0, 0
	}
	n := bits.Len32(raw) - 1
	return byte(n), uint8(n), raw - (uint32(1) << uint(n))
}

const (
	defaultLiteralLengthLog = 6
	defaultMatchLengthLog   = 6
	defaultOffsetLog        = 5

	maxLiteralLengthLog = 9
	maxMatchLengthLog   = 8
	maxOffsetLog        = 8
)
