// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package zstd implements a Zstandard (RFC 8878) frame decoder,
// frame encoder, and COVER dictionary trainer on top of the FSE and
// Huffman entropy coders in internal/fse and internal/huff0.
package zstd

import (
	"errors"
	"fmt"
	"io"
)

// Kind identifies a family of decode/encode failure, so callers can
// branch on the failure mode by reading an *Error's Kind instead of
// parsing a message string.
type Kind int

const (
	_ Kind = iota
	// KindNotEnoughBits means a read ran past the end of its bitstream.
	KindNotEnoughBits
	// KindBadMagic means a frame or dictionary's magic number didn't match.
	KindBadMagic
	// KindUnsupportedFrame means a frame header's window fields could
	// not be used (a window below the minimum, or neither a window
	// descriptor nor a content size), or DecodeBlocks was called before
	// Reset.
	KindUnsupportedFrame
	// KindReservedBlockType means a block's type field was Reserved.
	KindReservedBlockType
	// KindBlockTooLarge means a block's decompressed size exceeds
	// min(window_size, 128KiB).
	KindBlockTooLarge
	// KindOffsetTooLarge means a sequence's offset exceeded the bytes
	// available to copy from (window + dictionary content).
	KindOffsetTooLarge
	// KindMissingRepeatTable means a Repeat-mode section referenced an
	// entropy table that was never established.
	KindMissingRepeatTable
	// KindChecksumMismatch means the frame's trailing checksum didn't
	// match the decoded content.
	KindChecksumMismatch
	// KindDictionaryMismatch means a frame declared a dictionary ID
	// that didn't match the attached dictionary's ID.
	KindDictionaryMismatch
	// KindAccuracyLogTooLarge means an FSE table's accuracy_log
	// exceeded the maximum allowed for its symbol class.
	KindAccuracyLogTooLarge
	// KindCorruptTable means an FSE or Huffman table description
	// violated the encoding's structural invariants.
	KindCorruptTable
	// KindNoSamples means a dictionary trainer was given zero samples.
	KindNoSamples
	// KindSegmentTooLarge means DictParams.SegmentSize exceeded the
	// epoch size computed from the training corpus.
	KindSegmentTooLarge
	// KindBufferTooSmall means decode_all's destination buffer could
	// not hold the frame's regenerated content.
	KindBufferTooSmall
	// KindReservedBitSet means a frame header descriptor's reserved bit
	// was non-zero and strict_reserved_bits rejects that.
	KindReservedBitSet
	// KindWindowTooLarge means a frame's window size exceeded the
	// decoder's configured max_window_size.
	KindWindowTooLarge
	// KindEncoderState means an encoder method was called in a sequence
	// its state machine doesn't allow.
	KindEncoderState
	// KindUnexpectedEof means a source ended before a frame, block, or
	// dictionary's structure was fully read.
	KindUnexpectedEof
)

// Error is a structural failure in a frame, block, or table. It
// carries a Kind so callers can distinguish failure families, and a
// message for humans.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("zstd: %s", e.Msg)
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// readFull is io.ReadFull with both io.EOF and io.ErrUnexpectedEOF
// mapped to a typed KindUnexpectedEof, for structural reads where any
// short read means a truncated frame rather than a legitimate end of
// stream.
func readFull(source io.Reader, buf []byte) error {
	if _, err := io.ReadFull(source, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return newError(KindUnexpectedEof, "unexpected end of input: %v", err)
		}
		return err
	}
	return nil
}
