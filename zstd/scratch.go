// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"github.com/gozstd/gozstd/internal/fse"
	"github.com/gozstd/gozstd/internal/huff0"
)

// repeatOffsets holds the three most-recently-used match offsets, in
// most-recent-first order, per §3's decoding-window repeat-offset
// registers.
type repeatOffsets [3]uint32

var defaultRepeatOffsets = repeatOffsets{1, 4, 8}

// scratchSpace holds the entropy tables and buffers a FrameDecoder
// reuses across blocks (and, via Reset, across frames), so that
// decoding many frames back to back does not reallocate per frame —
// the same role the teacher's reusable block-sized buffers play
// across bzip2 blocks.
type scratchSpace struct {
	huffTable *huff0.Table

	litLenTable *fse.Table
	matchTable  *fse.Table
	offsetTable *fse.Table

	repeats repeatOffsets

	literalsBuf []byte
}

func newScratchSpace() *scratchSpace {
	return &scratchSpace{repeats: defaultRepeatOffsets}
}

// reset clears per-frame entropy state. The Huffman/FSE tables are
// dropped because Repeat modes must not reach across a frame
// boundary; the dictionary attach step (if any) repopulates them
// immediately afterwards.
func (s *scratchSpace) reset() {
	s.huffTable = nil
	s.litLenTable = nil
	s.matchTable = nil
	s.offsetTable = nil
	s.repeats = defaultRepeatOffsets
	s.literalsBuf = s.literalsBuf[:0]
}
