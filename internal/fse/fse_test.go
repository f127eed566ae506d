// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fse

import (
	"bytes"
	"testing"

	"github.com/gozstd/gozstd/internal/bitio"
)

func countsOf(data []byte) []int {
	counts := make([]int, 256)
	for _, b := range data {
		counts[b]++
	}
	return counts
}

func TestBuildFromCountsAccuracyLog(t *testing.T) {
	data := bytes.Repeat([]byte("abracadabra"), 20)
	table, err := BuildFromCounts(countsOf(data), 12, false)
	if err != nil {
		t.Fatalf("BuildFromCounts: %v", err)
	}
	if table.TableSize() != uint32(1)<<table.AccuracyLog() {
		t.Fatalf("table size %d inconsistent with accuracy log %d", table.TableSize(), table.AccuracyLog())
	}
	if table.AccuracyLog() < 5 {
		t.Fatalf("accuracy log %d below minimum of 5", table.AccuracyLog())
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []byte(bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 4))
	table, err := BuildFromCounts(countsOf(data), 12, false)
	if err != nil {
		t.Fatalf("BuildFromCounts: %v", err)
	}

	encoded, err := table.Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := table.Decode(encoded, len(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("round trip mismatch:\n got  %q\n want %q", decoded, data)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	data := []byte(bytes.Repeat([]byte("mississippi river"), 6))
	table, err := BuildFromCounts(countsOf(data), 12, false)
	if err != nil {
		t.Fatalf("BuildFromCounts: %v", err)
	}

	w := bitio.NewWriter()
	table.WriteHeader(w)

	r := bitio.NewReader(w.Bytes())
	got, err := ReadHeader(r, 12)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got.AccuracyLog() != table.AccuracyLog() {
		t.Fatalf("AccuracyLog = %d, want %d", got.AccuracyLog(), table.AccuracyLog())
	}

	encoded, err := got.Encode(data)
	if err != nil {
		t.Fatalf("Encode with rebuilt table: %v", err)
	}
	decoded, err := got.Decode(encoded, len(data))
	if err != nil {
		t.Fatalf("Decode with rebuilt table: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatalf("round trip through serialized header mismatch:\n got  %q\n want %q", decoded, data)
	}
}

func TestAvoidZeroNumBit(t *testing.T) {
	// A heavily skewed distribution where one symbol dominates; without
	// avoidZeroNumBit the max probability could reach the full table
	// size, which would need a zero-bit-wide state.
	data := append(bytes.Repeat([]byte{'a'}, 1000), []byte{'b', 'c'}...)
	table, err := BuildFromCounts(countsOf(data), 12, true)
	if err != nil {
		t.Fatalf("BuildFromCounts: %v", err)
	}
	half := int32(1) << (table.AccuracyLog() - 1)
	for _, ss := range table.bySymbol {
		if ss.probability > half {
			t.Fatalf("probability %d exceeds half the table (avoidZeroNumBit should cap it)", ss.probability)
		}
	}
}

func TestBuildFromCountsEmpty(t *testing.T) {
	if _, err := BuildFromCounts(make([]int, 256), 12, false); err != ErrEmptyInput {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}
