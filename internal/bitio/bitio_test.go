// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bitio

import "testing"

func TestReaderRoundTrip(t *testing.T) {
	data := []byte{0xAC, 0x1F, 0x00, 0xFF, 0x55}
	sizes := []uint{3, 5, 8, 1, 16, 7}

	r := NewReader(data)
	var got []uint64
	for _, n := range sizes {
		v, err := r.GetBits(n)
		if err != nil {
			t.Fatalf("GetBits(%d): %v", n, err)
		}
		got = append(got, v)
	}

	r2 := NewReader(data)
	for i, n := range sizes {
		before := r2.BitsLeft()
		v, err := r2.GetBits(n)
		if err != nil {
			t.Fatalf("GetBits(%d): %v", n, err)
		}
		r2.ReturnBits(n)
		if r2.BitsLeft() != before {
			t.Fatalf("BitsLeft after ReturnBits = %d, want %d", r2.BitsLeft(), before)
		}
		v2, err := r2.GetBits(n)
		if err != nil {
			t.Fatalf("GetBits(%d) after ReturnBits: %v", n, err)
		}
		if v2 != v || v2 != got[i] {
			t.Fatalf("GetBits after ReturnBits(%d) = %d, want %d", n, v2, got[i])
		}
		if r2.BitsLeft() != before-int(n) {
			t.Fatalf("BitsLeft = %d, want %d", r2.BitsLeft(), before-int(n))
		}
	}
}

func TestReaderNotEnoughBits(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.GetBits(9); err != ErrNotEnoughBits {
		t.Fatalf("GetBits(9) over 1 byte: err = %v, want ErrNotEnoughBits", err)
	}
}

func TestWriterReverseReaderRoundTrip(t *testing.T) {
	values := []struct {
		v uint64
		n uint
	}{
		{5, 3},
		{0, 0},
		{255, 8},
		{1, 1},
		{0x1234, 16},
		{7, 4},
	}

	w := NewWriter()
	for _, e := range values {
		w.WriteBits(e.v, e.n)
	}
	w.WriteEndMark()
	buf := w.Bytes()

	rr, err := NewReverseReader(buf)
	if err != nil {
		t.Fatalf("NewReverseReader: %v", err)
	}

	for i := len(values) - 1; i >= 0; i-- {
		e := values[i]
		if e.n == 0 {
			continue
		}
		got, err := rr.GetBits(e.n)
		if err != nil {
			t.Fatalf("GetBits(%d): %v", e.n, err)
		}
		if got != e.v {
			t.Fatalf("GetBits(%d) = %d, want %d", e.n, got, e.v)
		}
	}
}

func TestWriterEndMarkAlignedByte(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0xAB, 8)
	if m := w.Misaligned(); m != 0 {
		t.Fatalf("Misaligned() = %d, want 0", m)
	}
	w.WriteEndMark()
	buf := w.Bytes()
	if len(buf) != 2 || buf[1] != 0x01 {
		t.Fatalf("Bytes() = %x, want trailing 0x01 marker byte", buf)
	}
}

func TestChangeBits(t *testing.T) {
	w := NewWriter()
	idx := w.Index()
	w.WriteBits(0, 16)
	w.WriteBits(0x7F, 7)
	w.ChangeBits(idx, 0x1234, 16)

	r := NewReader(w.Bytes())
	v, err := r.GetBits(16)
	if err != nil {
		t.Fatalf("GetBits(16): %v", err)
	}
	if v != 0x1234 {
		t.Fatalf("GetBits(16) after ChangeBits = %#x, want 0x1234", v)
	}
	v, err = r.GetBits(7)
	if err != nil {
		t.Fatalf("GetBits(7): %v", err)
	}
	if v != 0x7F {
		t.Fatalf("trailing bits corrupted by ChangeBits: got %#x, want 0x7F", v)
	}
}

func TestReverseReaderEmptyOrZero(t *testing.T) {
	if _, err := NewReverseReader(nil); err != ErrCorrupt {
		t.Fatalf("NewReverseReader(nil): err = %v, want ErrCorrupt", err)
	}
	if _, err := NewReverseReader([]byte{0x00}); err != ErrCorrupt {
		t.Fatalf("NewReverseReader([0x00]): err = %v, want ErrCorrupt", err)
	}
}
