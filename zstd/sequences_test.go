// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"reflect"
	"testing"

	"github.com/gozstd/gozstd/internal/bitio"
	"github.com/gozstd/gozstd/internal/fse"
)

func predefinedTables() (ll, ml, of *fse.Table) {
	ll = fse.BuildFromProbabilities(padProbs(defaultLiteralLengthNorm), defaultLiteralLengthLog)
	ml = fse.BuildFromProbabilities(padProbs(defaultMatchLengthNorm), defaultMatchLengthLog)
	of = fse.BuildFromProbabilities(padProbs(defaultOffsetNorm), defaultOffsetLog)
	return
}

func TestEncodeDecodeSequencesRoundTrip(t *testing.T) {
	cases := [][]sequence{
		{{litLen: 5, matchLen: 10, offset: 20}},
		{
			{litLen: 5, matchLen: 10, offset: 20},
			{litLen: 0, matchLen: 3, offset: 1},
			{litLen: 100, matchLen: 300, offset: 5000},
			{litLen: 1, matchLen: 4, offset: 65535},
		},
	}

	for _, seqs := range cases {
		llTable, mlTable, ofTable := predefinedTables()
		payload, err := encodeSequences(seqs, llTable, mlTable, ofTable)
		if err != nil {
			t.Fatalf("encodeSequences(%v): %v", seqs, err)
		}

		scratch := newScratchSpace()
		got, consumed, err := decodeSequences(payload, scratch)
		if err != nil {
			t.Fatalf("decodeSequences(%v): %v", seqs, err)
		}
		if consumed != len(payload) {
			t.Errorf("consumed = %d, want %d", consumed, len(payload))
		}

		want := make([]sequence, len(seqs))
		for i, s := range seqs {
			want[i] = sequence{litLen: s.litLen, matchLen: s.matchLen, offset: s.offset}
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("decodeSequences round trip = %+v, want %+v", got, want)
		}
	}
}

func TestEncodeDecodeSequencesEmpty(t *testing.T) {
	llTable, mlTable, ofTable := predefinedTables()
	payload, err := encodeSequences(nil, llTable, mlTable, ofTable)
	if err != nil {
		t.Fatalf("encodeSequences(nil): %v", err)
	}

	scratch := newScratchSpace()
	got, consumed, err := decodeSequences(payload, scratch)
	if err != nil {
		t.Fatalf("decodeSequences(empty): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d sequences, want 0", len(got))
	}
	if consumed != len(payload) {
		t.Errorf("consumed = %d, want %d", consumed, len(payload))
	}
}

func TestWriteParseNumSequences(t *testing.T) {
	for _, n := range []int{0, 1, 127, 128, 255, 256, 0x7EFF, 0x7F00, 0x7F00 + 1000, 65535} {
		w := bitio.NewWriter()
		writeNumSequences(w, n)
		padToByte(w)
		r := bitio.NewReader(w.Bytes())
		got, err := parseNumSequences(r)
		if err != nil {
			t.Fatalf("parseNumSequences(n=%d): %v", n, err)
		}
		if got != n {
			t.Errorf("writeNumSequences/parseNumSequences round trip: n=%d, got=%d", n, got)
		}
	}
}
