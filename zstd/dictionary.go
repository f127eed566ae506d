// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"sort"

	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/fse"
	"github.com/gozstd/gozstd/internal/huff0"
)

const dictionaryMagic = 0xEC30A437

// kmerSize is the COVER trainer's k-mer length (§4.9); 16 sits in the
// "reasonable spread" range the COVER paper found across text corpora.
const kmerSize = 16

const minEpochSize = 10_000

// DictParams configures Train.
type DictParams struct {
	// SegmentSize is the byte length of each candidate dictionary
	// segment.
	SegmentSize int
	// MaxDictSize bounds the trained dictionary's content length.
	MaxDictSize int
}

// DefaultDictParams returns parameters suitable for a small-to-medium
// training corpus.
func DefaultDictParams() DictParams {
	return DictParams{SegmentSize: 128, MaxDictSize: 112 * 1024}
}

// Dictionary bundles trained content with the entropy tables and
// repeat offsets a FrameDecoder or FrameEncoder seeds its scratch
// space from, per §3's dictionary data model.
type Dictionary struct {
	ID      uint32
	Content []byte

	huffTable   *huff0.Table
	litLenTable *fse.Table
	matchTable  *fse.Table
	offsetTable *fse.Table
	repeats     repeatOffsets
}

// computeEpochInfo returns (num_epochs, epoch_size) for a training run
// over numKmers total k-mers, per §4.9 step 1.
func computeEpochInfo(params DictParams, numKmers int) (int, int) {
	numEpochs := params.MaxDictSize / params.SegmentSize
	if numEpochs < 1 {
		numEpochs = 1
	}
	epochSize := numKmers / numEpochs
	if epochSize >= minEpochSize {
		return numEpochs, epochSize
	}
	epochSize = minEpochSize
	if numKmers < epochSize {
		epochSize = numKmers
	}
	if epochSize == 0 {
		return 1, 0
	}
	numEpochs = numKmers / epochSize
	if numEpochs < 1 {
		numEpochs = 1
	}
	return numEpochs, epochSize
}

type trainedSegment struct {
	raw   []byte
	score int
}

// kmerFrequencies counts every overlapping kmerSize-byte window's
// occurrences across data.
func kmerFrequencies(data []byte) map[string]int {
	freq := make(map[string]int)
	for i := 0; i+kmerSize <= len(data); i++ {
		freq[string(data[i:i+kmerSize])]++
	}
	return freq
}

// scoreSegment sums, over segment's overlapping k-mers, the k-mer's
// frequency in the whole collection sample — except a k-mer that has
// already contributed within this same segment scores zero on later
// occurrences (§4.9 step 2, grounded on cover.rs's score_segment).
func scoreSegment(globalFreq map[string]int, segment []byte) int {
	if len(segment) < kmerSize {
		return 0
	}
	used := make(map[string]bool)
	score := 0
	for i := 0; i+kmerSize <= len(segment); i++ {
		km := string(segment[i : i+kmerSize])
		if used[km] {
			continue
		}
		used[km] = true
		score += globalFreq[km]
	}
	return score
}

// pickBestSegment scores every non-overlapping segmentSize-byte chunk
// of epoch and returns the highest scoring one.
func pickBestSegment(params DictParams, globalFreq map[string]int, epoch []byte) trainedSegment {
	best := trainedSegment{raw: epoch[:min(params.SegmentSize, len(epoch))]}
	for start := 0; start < len(epoch); start += params.SegmentSize {
		end := start + params.SegmentSize
		if end > len(epoch) {
			end = len(epoch)
		}
		chunk := epoch[start:end]
		s := scoreSegment(globalFreq, chunk)
		if s > best.score {
			best = trainedSegment{raw: chunk, score: s}
		}
	}
	return best
}

// TrainOption configures an optional Train behavior.
type TrainOption func(*trainOptions)

type trainOptions struct {
	onEpoch func(done, total int)
}

// WithEpochProgress registers a callback invoked after each epoch is
// scored, reporting how many of the total epochs have completed. It
// plays the same role as the teacher's per-block Progress channel,
// adapted from one update per decompressed block to one update per
// scored epoch.
func WithEpochProgress(fn func(done, total int)) TrainOption {
	return func(o *trainOptions) { o.onEpoch = fn }
}

// Train runs the COVER dictionary builder (§4.9) over samples,
// concatenating them into one collection sample, scoring a candidate
// segment per epoch, and assembling the highest-scoring segments into
// a dictionary capped at params.MaxDictSize.
func Train(samples [][]byte, params DictParams, opts ...TrainOption) (*Dictionary, error) {
	var o trainOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(samples) == 0 {
		return nil, newError(KindNoSamples, "no training samples")
	}
	var collection []byte
	for _, s := range samples {
		collection = append(collection, s...)
	}
	numKmers := len(collection) - kmerSize + 1
	if numKmers <= 0 {
		return nil, newError(KindNoSamples, "training corpus shorter than kmer size %d", kmerSize)
	}

	numEpochs, epochSize := computeEpochInfo(params, numKmers)
	if params.SegmentSize > epochSize {
		return nil, newError(KindSegmentTooLarge, "segment size %d exceeds epoch size %d", params.SegmentSize, epochSize)
	}

	globalFreq := kmerFrequencies(collection)

	var pool []trainedSegment
	offset := 0
	for e := 0; e < numEpochs; e++ {
		end := offset + epochSize
		if end > len(collection) {
			end = len(collection)
		}
		if offset >= end {
			break
		}
		pool = append(pool, pickBestSegment(params, globalFreq, collection[offset:end]))
		offset = end
		if o.onEpoch != nil {
			o.onEpoch(e+1, numEpochs)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	var content []byte
	for _, seg := range pool {
		if len(content)+len(seg.raw) > params.MaxDictSize {
			continue
		}
		content = append(content, seg.raw...)
	}

	dict := &Dictionary{Content: content, repeats: defaultRepeatOffsets}
	if len(content) > 0 {
		dict.huffTable = huff0.BuildFromData(content)
	}
	dict.litLenTable = fse.BuildFromProbabilities(padProbs(defaultLiteralLengthNorm), defaultLiteralLengthLog)
	dict.matchTable = fse.BuildFromProbabilities(padProbs(defaultMatchLengthNorm), defaultMatchLengthLog)
	dict.offsetTable = fse.BuildFromProbabilities(padProbs(defaultOffsetNorm), defaultOffsetLog)
	return dict, nil
}

// Encode serializes the dictionary to its on-disk form: magic, ID,
// the literals Huffman table, the three sequence-class FSE tables,
// the repeat-offset triple, then raw content.
func (d *Dictionary) Encode() ([]byte, error) {
	w := bitio.NewWriter()
	w.WriteBits(dictionaryMagic, 32)
	w.WriteBits(uint64(d.ID), 32)

	if d.huffTable == nil {
		return nil, newError(KindCorruptTable, "dictionary has no literals Huffman table to encode")
	}
	if err := d.huffTable.WriteTable(w); err != nil {
		return nil, err
	}
	d.litLenTable.WriteHeader(w)
	d.matchTable.WriteHeader(w)
	d.offsetTable.WriteHeader(w)

	for _, off := range d.repeats {
		w.WriteBits(uint64(off), 32)
	}

	out := w.Bytes()
	out = append(out, d.Content...)
	return out, nil
}

// DecodeDictionary parses a dictionary previously produced by
// (*Dictionary).Encode.
func DecodeDictionary(data []byte) (*Dictionary, error) {
	r := bitio.NewReader(data)
	magic, err := r.GetBits(32)
	if err != nil {
		return nil, err
	}
	if uint32(magic) != dictionaryMagic {
		return nil, newError(KindBadMagic, "unrecognized dictionary magic %#x", magic)
	}
	id, err := r.GetBits(32)
	if err != nil {
		return nil, err
	}

	huffTable, err := huff0.ReadTable(r)
	if err != nil {
		return nil, err
	}
	litLenTable, err := fse.ReadHeader(r, maxLiteralLengthLog)
	if err != nil {
		return nil, err
	}
	matchTable, err := fse.ReadHeader(r, maxMatchLengthLog)
	if err != nil {
		return nil, err
	}
	offsetTable, err := fse.ReadHeader(r, maxOffsetLog)
	if err != nil {
		return nil, err
	}

	var repeats repeatOffsets
	for i := range repeats {
		v, err := r.GetBits(32)
		if err != nil {
			return nil, err
		}
		repeats[i] = uint32(v)
	}

	content := data[r.BytePos():]

	return &Dictionary{
		ID:          uint32(id),
		Content:     append([]byte(nil), content...),
		huffTable:   huffTable,
		litLenTable: litLenTable,
		matchTable:  matchTable,
		offsetTable: offsetTable,
		repeats:     repeats,
	}, nil
}
