// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"bytes"
	"testing"
)

func TestComputeEpochInfo(t *testing.T) {
	cases := []struct {
		name        string
		params      DictParams
		numKmers    int
		wantEpochs  int
		wantEpoch   int
	}{
		{"small-corpus-falls-back", DictParams{SegmentSize: 16, MaxDictSize: 64}, 1985, 1, 1985},
		{"large-corpus-no-fallback", DictParams{SegmentSize: 128, MaxDictSize: 112 * 1024}, 10_000_000, 896, 11160},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			epochs, size := computeEpochInfo(c.params, c.numKmers)
			if epochs != c.wantEpochs || size != c.wantEpoch {
				t.Errorf("computeEpochInfo(%+v, %d) = (%d, %d), want (%d, %d)",
					c.params, c.numKmers, epochs, size, c.wantEpochs, c.wantEpoch)
			}
		})
	}
}

func TestScoreSegmentDuplicateSuppression(t *testing.T) {
	pattern := []byte("abcdefghijklmnop") // 16 distinct bytes, no internal period
	data := append(append([]byte{}, pattern...), pattern...)
	freq := kmerFrequencies(data)

	score := scoreSegment(freq, data)

	naive := 0
	for i := 0; i+kmerSize <= len(data); i++ {
		naive += freq[string(data[i:i+kmerSize])]
	}

	if score >= naive {
		t.Errorf("scoreSegment = %d, want strictly less than naive sum %d (repeated k-mer must not double-count)", score, naive)
	}
	const want = 17 // pattern (2 occurrences, counted once) + 15 distinct boundary-crossing rotations
	if score != want {
		t.Errorf("scoreSegment = %d, want %d", score, want)
	}
}

func skewedTrainingCorpus(n int) []byte {
	pattern := []byte("the quick brown fox jumps over the lazy dog while the quick fox runs")
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, pattern...)
	}
	return out[:n]
}

func TestTrainEncodeDecodeDictionaryRoundTrip(t *testing.T) {
	corpus := skewedTrainingCorpus(2000)
	params := DictParams{SegmentSize: 16, MaxDictSize: 64}

	dict, err := Train([][]byte{corpus}, params)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(dict.Content) == 0 {
		t.Fatal("Train produced an empty dictionary")
	}
	if len(dict.Content) > params.MaxDictSize {
		t.Errorf("dictionary content size %d exceeds MaxDictSize %d", len(dict.Content), params.MaxDictSize)
	}
	dict.ID = 7

	encoded, err := dict.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeDictionary(encoded)
	if err != nil {
		t.Fatalf("DecodeDictionary: %v", err)
	}
	if decoded.ID != dict.ID {
		t.Errorf("ID = %d, want %d", decoded.ID, dict.ID)
	}
	if !bytes.Equal(decoded.Content, dict.Content) {
		t.Errorf("Content round trip mismatch: got %d bytes, want %d bytes", len(decoded.Content), len(dict.Content))
	}
	if decoded.repeats != dict.repeats {
		t.Errorf("repeats = %v, want %v", decoded.repeats, dict.repeats)
	}
}

func TestTrainNoSamples(t *testing.T) {
	if _, err := Train(nil, DefaultDictParams()); err == nil {
		t.Fatal("expected error for no training samples")
	}
}

func TestTrainSegmentTooLarge(t *testing.T) {
	corpus := skewedTrainingCorpus(50)
	params := DictParams{SegmentSize: 1000, MaxDictSize: 2000}
	if _, err := Train([][]byte{corpus}, params); err == nil {
		t.Fatal("expected KindSegmentTooLarge error")
	}
}
