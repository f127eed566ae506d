// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/gozstd/gozstd/internal/fse"
)

// Level selects how a FrameEncoder treats its input.
type Level uint8

const (
	// Uncompressed chunks input into Raw blocks with no entropy coding.
	Uncompressed Level = iota
	// Compressed runs a naive matcher, Huffman literals, and FSE
	// sequences per chunk, falling back to Raw when that doesn't help.
	Compressed
)

const (
	maxChunkSize  = 128 * 1024
	minMatchLen   = 3
	maxMatchSpan  = 1 << 16
	hashTableSize = 1 << 16
)

// EncoderOption configures a FrameEncoder at construction time.
type EncoderOption func(*encoderOptions)

type encoderOptions struct {
	level           Level
	contentChecksum bool
	windowSize      int
}

// WithLevel selects the compression level.
func WithLevel(l Level) EncoderOption {
	return func(o *encoderOptions) { o.level = l }
}

// WithContentChecksum enables the trailing XXH64-low-32 checksum.
func WithContentChecksum(enabled bool) EncoderOption {
	return func(o *encoderOptions) { o.contentChecksum = enabled }
}

// WithWindowSize records a window size in the encoder's options. Frames
// are always written single-segment, so the header advertises the
// content size and this value is not used.
func WithWindowSize(n int) EncoderOption {
	return func(o *encoderOptions) { o.windowSize = n }
}

// FrameEncoder writes one self-contained zstd frame per Encode call.
type FrameEncoder struct {
	opts     encoderOptions
	dict     *Dictionary
	encoding bool
}

// NewFrameEncoder returns an encoder configured by opts.
func NewFrameEncoder(opts ...EncoderOption) *FrameEncoder {
	e := &FrameEncoder{opts: encoderOptions{
		level:      Compressed,
		windowSize: maxChunkSize,
	}}
	for _, o := range opts {
		o(&e.opts)
	}
	return e
}

// AttachDictionary configures the dictionary ID recorded in every
// subsequent Encode call's frame header. Pass nil to detach.
func (e *FrameEncoder) AttachDictionary(d *Dictionary) {
	e.dict = d
}

// Encode writes one frame containing src to dst. Encode is not
// reentrant: calling it from within a callback invoked by an
// in-flight Encode on the same FrameEncoder is an ordering error.
func (e *FrameEncoder) Encode(dst io.Writer, src []byte) error {
	if e.encoding {
		return newError(KindEncoderState, "Encode called while another Encode on this FrameEncoder is in flight")
	}
	e.encoding = true
	defer func() { e.encoding = false }()

	if err := writeMagicAndHeader(dst, e.opts, e.dict, len(src)); err != nil {
		return err
	}

	var hasher *xxhash.Digest
	if e.opts.contentChecksum {
		hasher = xxhash.New()
	}

	for offset := 0; offset < len(src) || (len(src) == 0 && offset == 0); {
		end := offset + maxChunkSize
		if end > len(src) {
			end = len(src)
		}
		chunk := src[offset:end]
		last := end == len(src)

		var body []byte
		var err error
		if e.opts.level == Uncompressed {
			body = chunk
			if err := writeBlock(dst, blockRaw, last, body); err != nil {
				return err
			}
		} else {
			body, err = encodeCompressedBlockBody(chunk)
			if err != nil {
				return err
			}
			if len(body) >= len(chunk) {
				if err := writeBlock(dst, blockRaw, last, chunk); err != nil {
					return err
				}
			} else {
				if err := writeBlock(dst, blockCompressed, last, body); err != nil {
					return err
				}
			}
		}

		if hasher != nil {
			hasher.Write(chunk)
		}
		offset = end
		if len(src) == 0 {
			break
		}
	}

	if hasher != nil {
		var trailer [4]byte
		binary.LittleEndian.PutUint32(trailer[:], uint32(hasher.Sum64()))
		if _, err := dst.Write(trailer[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeBlock(dst io.Writer, typ blockType, last bool, body []byte) error {
	raw := uint32(len(body))<<3 | uint32(typ)<<1
	if last {
		raw |= 1
	}
	var hdr [3]byte
	hdr[0] = byte(raw)
	hdr[1] = byte(raw >> 8)
	hdr[2] = byte(raw >> 16)
	if _, err := dst.Write(hdr[:]); err != nil {
		return err
	}
	_, err := dst.Write(body)
	return err
}

func writeMagicAndHeader(dst io.Writer, opts encoderOptions, dict *Dictionary, contentSize int) error {
	var magic [4]byte
	binary.LittleEndian.PutUint32(magic[:], zstdMagic)
	if _, err := dst.Write(magic[:]); err != nil {
		return err
	}

	var fcsFlag byte
	var fcsBytes int
	switch {
	case contentSize < 256:
		fcsFlag, fcsBytes = 0, 1
	case contentSize < 65536+256:
		fcsFlag, fcsBytes = 1, 2
	case uint64(contentSize) < 1<<32:
		fcsFlag, fcsBytes = 2, 4
	default:
		fcsFlag, fcsBytes = 3, 8
	}

	var dictIDFlag byte
	var dictIDBytes int
	dictID := uint32(0)
	if dict != nil {
		dictID = dict.ID
	}
	switch {
	case dictID == 0:
		dictIDFlag, dictIDBytes = 0, 0
	case dictID < 256:
		dictIDFlag, dictIDBytes = 1, 1
	case dictID < 65536:
		dictIDFlag, dictIDBytes = 2, 2
	default:
		dictIDFlag, dictIDBytes = 3, 4
	}

	desc := fcsFlag<<6 | 1<<5 /* single_segment */
	if opts.contentChecksum {
		desc |= 1 << 2
	}
	desc |= dictIDFlag
	if _, err := dst.Write([]byte{desc}); err != nil {
		return err
	}

	if dictIDBytes > 0 {
		buf := make([]byte, dictIDBytes)
		v := dictID
		for i := 0; i < dictIDBytes; i++ {
			buf[i] = byte(v)
			v >>= 8
		}
		if _, err := dst.Write(buf); err != nil {
			return err
		}
	}

	fcsValue := uint64(contentSize)
	if fcsBytes == 2 {
		fcsValue -= 256
	}
	buf := make([]byte, fcsBytes)
	v := fcsValue
	for i := 0; i < fcsBytes; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	_, err := dst.Write(buf)
	return err
}

// encodeCompressedBlockBody runs a greedy single-candidate hash matcher over
// chunk, builds its literals and sequences sections, and concatenates
// them into one compressed block body.
func encodeCompressedBlockBody(chunk []byte) ([]byte, error) {
	seqs, literals := findMatches(chunk)

	litSection := encodeLiterals(literals)

	llTable := fse.BuildFromProbabilities(padProbs(defaultLiteralLengthNorm), defaultLiteralLengthLog)
	mlTable := fse.BuildFromProbabilities(padProbs(defaultMatchLengthNorm), defaultMatchLengthLog)
	ofTable := fse.BuildFromProbabilities(padProbs(defaultOffsetNorm), defaultOffsetLog)

	seqSection, err := encodeSequences(seqs, llTable, mlTable, ofTable)
	if err != nil {
		return nil, err
	}

	return append(litSection, seqSection...), nil
}

// findMatches runs a minimal 3-byte-hash greedy matcher over chunk,
// returning the LZ77 sequence list and the concatenated literal bytes
// those sequences (plus the trailing run) reference.
func findMatches(chunk []byte) ([]sequence, []byte) {
	var seqs []sequence
	var literals []byte

	lastPos := make(map[uint32]int)
	litStart := 0
	i := 0
	for i+minMatchLen <= len(chunk) {
		key := hash3(chunk[i:])
		if j, ok := lastPos[key]; ok && i-j <= maxMatchSpan {
			matchLen := matchLength(chunk, j, i)
			if matchLen >= minMatchLen {
				literals = append(literals, chunk[litStart:i]...)
				seqs = append(seqs, sequence{
					litLen:   uint32(i - litStart),
					matchLen: uint32(matchLen),
					offset:   uint32(i - j),
				})
				lastPos[key] = i
				i += matchLen
				litStart = i
				continue
			}
		}
		lastPos[key] = i
		i++
	}
	literals = append(literals, chunk[litStart:]...)
	return seqs, literals
}

func hash3(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func matchLength(data []byte, j, i int) int {
	n := 0
	for i+n < len(data) && data[j+n] == data[i+n] {
		n++
	}
	return n
}
