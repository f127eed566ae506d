// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/gozstd/gozstd/internal/ringbuffer"
)

type frameState uint8

const (
	stateEmpty frameState = iota
	stateHeaderRead
	stateBlocksDecoding
	stateFinished
)

// StrategyKind selects how far decode_blocks should drive a frame
// before returning control to the caller.
type StrategyKind uint8

const (
	// StrategyAllBlocks decodes until the frame's last block.
	StrategyAllBlocks StrategyKind = iota
	// StrategyBlockCount decodes up to N further blocks.
	StrategyBlockCount
	// StrategyByteCount decodes until at least N further bytes have
	// been produced into the window.
	StrategyByteCount
)

// DecodeStrategy bounds one decode_blocks call, per §4.7.
type DecodeStrategy struct {
	kind StrategyKind
	n    int
}

// All drives decode_blocks to the frame's last block.
func All() DecodeStrategy { return DecodeStrategy{kind: StrategyAllBlocks} }

// UptoBlocks drives decode_blocks through at most n further blocks.
func UptoBlocks(n int) DecodeStrategy { return DecodeStrategy{kind: StrategyBlockCount, n: n} }

// UptoBytes drives decode_blocks until at least n further bytes have
// landed in the window.
func UptoBytes(n int) DecodeStrategy { return DecodeStrategy{kind: StrategyByteCount, n: n} }

// DecoderOption configures a FrameDecoder at construction time
// (WithMaxWindowSize, WithStrictReservedBits). A dictionary is attached
// with AttachDictionary, and checksum checking follows each frame
// header's content_checksum flag.
type DecoderOption func(*decoderOptions)

type decoderOptions struct {
	maxWindowSize      int
	strictReservedBits bool
}

// WithMaxWindowSize rejects any frame whose window size exceeds n.
// Zero (the default) means no limit.
func WithMaxWindowSize(n int) DecoderOption {
	return func(o *decoderOptions) { o.maxWindowSize = n }
}

// WithStrictReservedBits rejects a frame header whose descriptor
// reserved bit is set instead of ignoring it.
func WithStrictReservedBits(enabled bool) DecoderOption {
	return func(o *decoderOptions) { o.strictReservedBits = enabled }
}

// FrameDecoder decodes one zstd frame at a time against a reusable
// window and entropy scratch space, the same reuse-across-calls shape
// the teacher's decompressor gives its block-sized buffers.
type FrameDecoder struct {
	opts     decoderOptions
	state    frameState
	header   FrameHeader
	window   *ringbuffer.Buffer
	scratch  *scratchSpace
	dict     *Dictionary
	hasher   *xxhash.Digest
	source   io.Reader
	lastSeen bool

	// dictPrefixRemaining is the number of bytes at the front of the
	// window, seeded from an attached dictionary's content in Reset,
	// still owed a skip before collected output reaches the caller:
	// that content primes back-references but was never part of the
	// frame's own regenerated bytes.
	dictPrefixRemaining int
}

// NewFrameDecoder returns an empty decoder configured by opts, ready
// for Reset.
func NewFrameDecoder(opts ...DecoderOption) *FrameDecoder {
	d := &FrameDecoder{state: stateEmpty, scratch: newScratchSpace()}
	for _, o := range opts {
		o(&d.opts)
	}
	return d
}

// AttachDictionary configures the dictionary used by every subsequent
// Reset. Pass nil to detach.
func (d *FrameDecoder) AttachDictionary(dict *Dictionary) {
	d.dict = dict
}

// Reset reads a frame's magic and header from source, allocates or
// reuses the window, and attaches any configured dictionary's content
// and entropy tables.
func (d *FrameDecoder) Reset(source io.Reader) error {
	if err := readMagic(source); err != nil {
		return err
	}
	hdr, err := readFrameHeader(source, d.opts.strictReservedBits, d.opts.maxWindowSize)
	if err != nil {
		return err
	}
	if d.dict != nil && hdr.DictionaryID != 0 && d.dict.ID != 0 && hdr.DictionaryID != d.dict.ID {
		return newError(KindDictionaryMismatch, "frame dictionary id %d does not match attached dictionary id %d", hdr.DictionaryID, d.dict.ID)
	}

	d.header = hdr
	d.source = source
	d.lastSeen = false
	d.dictPrefixRemaining = 0
	d.scratch.reset()

	if d.window == nil {
		d.window = ringbuffer.New(hdr.WindowSize)
	} else {
		d.window.Reset(hdr.WindowSize)
	}

	if d.dict != nil {
		d.window.PushSlice(d.dict.Content)
		d.dictPrefixRemaining = len(d.dict.Content)
		d.scratch.huffTable = d.dict.huffTable
		d.scratch.litLenTable = d.dict.litLenTable
		d.scratch.matchTable = d.dict.matchTable
		d.scratch.offsetTable = d.dict.offsetTable
		d.scratch.repeats = d.dict.repeats
	}

	if hdr.ContentChecksum {
		d.hasher = xxhash.New()
	} else {
		d.hasher = nil
	}

	d.state = stateHeaderRead
	return nil
}

// IsFinished reports whether the frame (including its checksum, if
// any) has been fully decoded.
func (d *FrameDecoder) IsFinished() bool {
	return d.state == stateFinished
}

// CanCollect reports how many decoded bytes are available to drain
// without giving up any of the retained window; once the frame's last
// block has been decoded, every byte still held counts.
func (d *FrameDecoder) CanCollect() int {
	if d.window == nil {
		return 0
	}
	if d.lastSeen {
		return d.window.Len()
	}
	keep := d.header.WindowSize
	if keep > d.window.Len() {
		keep = d.window.Len()
	}
	return d.window.Len() - keep
}

// DecodeBlocks drives the frame forward according to strategy,
// returning when the strategy is satisfied or the frame finishes.
func (d *FrameDecoder) DecodeBlocks(strategy DecodeStrategy) error {
	if d.state == stateFinished {
		return nil
	}
	if d.state != stateHeaderRead && d.state != stateBlocksDecoding {
		return newError(KindUnsupportedFrame, "DecodeBlocks called before Reset")
	}
	d.state = stateBlocksDecoding

	blocksDone := 0
	bytesStart := d.window.BytesWritten()

	for {
		if d.lastSeen {
			return d.finish()
		}

		var hdrBuf [3]byte
		if err := readFull(d.source, hdrBuf[:]); err != nil {
			return err
		}
		hdr, err := parseBlockHeader(hdrBuf[:])
		if err != nil {
			return err
		}

		var body []byte
		switch hdr.typ {
		case blockRaw, blockCompressed:
			body = make([]byte, hdr.size)
		case blockRLE:
			body = make([]byte, 1)
		default:
			return newError(KindReservedBlockType, "reserved block type")
		}
		if err := readFull(d.source, body); err != nil {
			return err
		}

		before := d.window.BytesWritten()
		if _, err := decodeBlock(hdr, body, d.window, d.scratch, d.header.WindowSize); err != nil {
			return err
		}
		after := d.window.BytesWritten()
		if d.hasher != nil && after > before {
			d.hasher.Write(d.window.Tail(after - before))
		}

		blocksDone++
		d.lastSeen = hdr.last

		switch strategy.kind {
		case StrategyBlockCount:
			if blocksDone >= strategy.n {
				return nil
			}
		case StrategyByteCount:
			if d.window.BytesWritten()-bytesStart >= strategy.n {
				return nil
			}
		}
	}
}

func (d *FrameDecoder) finish() error {
	if d.header.ContentChecksum {
		var trailer [4]byte
		if err := readFull(d.source, trailer[:]); err != nil {
			return err
		}
		want := binary.LittleEndian.Uint32(trailer[:])
		got := uint32(d.hasher.Sum64())
		if got != want {
			return newError(KindChecksumMismatch, "content checksum mismatch: got %#x want %#x", got, want)
		}
	}
	d.state = stateFinished
	return nil
}

// CollectToWriter drains all currently-collectible bytes to sink,
// preserving the trailing window_size bytes for further back-references
// until the last block has been decoded (then the window is drained in
// full), and silently discarding any not-yet-skipped dictionary content primed
// at the front of the window. Returns the number of bytes actually
// delivered to sink (which can be less than the number of bytes removed
// from the window, when some of those were dictionary prefix).
func (d *FrameDecoder) CollectToWriter(sink io.Writer) (int, error) {
	if d.window == nil {
		return 0, nil
	}
	delivered := 0
	write := func(b []byte) error {
		if d.dictPrefixRemaining > 0 {
			skip := d.dictPrefixRemaining
			if skip > len(b) {
				skip = len(b)
			}
			d.dictPrefixRemaining -= skip
			b = b[skip:]
		}
		if len(b) == 0 {
			return nil
		}
		n, err := sink.Write(b)
		delivered += n
		return err
	}
	var err error
	if d.lastSeen {
		_, err = d.window.DrainAll(write)
	} else {
		_, err = d.window.DrainTo(write)
	}
	return delivered, err
}

// DecodeAll resets the decoder against src, drives it to completion,
// and writes the regenerated content into dst. It returns the number
// of bytes written, erroring with KindBufferTooSmall if dst cannot
// hold the frame's content.
func (d *FrameDecoder) DecodeAll(src io.Reader, dst []byte) (int, error) {
	if err := d.Reset(src); err != nil {
		return 0, err
	}
	written := 0
	drain := func() error {
		for d.CanCollect() > 0 {
			if written >= len(dst) {
				return newError(KindBufferTooSmall, "destination buffer too small for decoded frame")
			}
			n, err := d.CollectToWriter(sliceWriter{dst: dst[written:]})
			if err != nil {
				return err
			}
			written += n
		}
		return nil
	}
	for !d.IsFinished() {
		if err := d.DecodeBlocks(UptoBytes(64 * 1024)); err != nil {
			return written, err
		}
		if err := drain(); err != nil {
			return written, err
		}
	}
	if err := drain(); err != nil {
		return written, err
	}
	return written, nil
}

// sliceWriter is an io.Writer backed by a fixed slice, used by
// DecodeAll to drain directly into the caller's buffer without an
// intermediate allocation.
type sliceWriter struct {
	dst []byte
}

func (w sliceWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.dst) {
		return 0, newError(KindBufferTooSmall, "destination buffer too small for decoded frame")
	}
	copy(w.dst, p)
	return len(p), nil
}
