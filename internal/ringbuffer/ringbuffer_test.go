// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ringbuffer

import (
	"bytes"
	"testing"
)

func TestCapacityForIsPowerOfTwo(t *testing.T) {
	cases := []int{0, 1, 1024, 128*1024 - 1, 128 * 1024, 1 << 20}
	for _, ws := range cases {
		c := capacityFor(ws)
		if c&(c-1) != 0 {
			t.Fatalf("capacityFor(%d) = %d, not a power of two", ws, c)
		}
		if c < ws+128*1024 {
			t.Fatalf("capacityFor(%d) = %d, too small", ws, c)
		}
		if c/2 >= ws+128*1024 {
			t.Fatalf("capacityFor(%d) = %d, not the smallest power of two", ws, c)
		}
	}
}

func TestPushAndRepeatNonOverlapping(t *testing.T) {
	b := New(1024)
	b.PushSlice([]byte("abcdef"))
	if err := b.Repeat(6, 3); err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	if got := string(b.Tail(9)); got != "abcdefabc" {
		t.Fatalf("got %q, want %q", got, "abcdefabc")
	}
}

func TestRepeatOverlapExpansion(t *testing.T) {
	// offset=3, len=8 over "abc" repeats the 3-byte pattern past its
	// own end: a b c a b c a b
	b := New(1024)
	b.PushSlice([]byte("abc"))
	if err := b.Repeat(3, 8); err != nil {
		t.Fatalf("Repeat: %v", err)
	}
	want := "abcabcabcab"
	if got := string(b.Tail(len(want))); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRepeatOffsetTooLarge(t *testing.T) {
	b := New(1024)
	b.PushSlice([]byte("ab"))
	if err := b.Repeat(3, 1); err != ErrOffsetTooLarge {
		t.Fatalf("Repeat: err = %v, want ErrOffsetTooLarge", err)
	}
}

func TestDrainToKeepsWindow(t *testing.T) {
	b := New(4) // capacity rounds up internally; drain logic uses windowSize=4 directly
	b.windowSize = 4
	b.PushSlice([]byte("0123456789"))

	var out bytes.Buffer
	n, err := b.DrainTo(func(p []byte) error {
		_, err := out.Write(p)
		return err
	})
	if err != nil {
		t.Fatalf("DrainTo: %v", err)
	}
	if n != 6 {
		t.Fatalf("drained %d bytes, want 6", n)
	}
	if out.String() != "012345" {
		t.Fatalf("drained data = %q, want %q", out.String(), "012345")
	}
	if got := string(b.Tail(4)); got != "6789" {
		t.Fatalf("retained tail = %q, want %q", got, "6789")
	}
	if b.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", b.Len())
	}
}

func TestDrainToNoOpWhenUnderWindow(t *testing.T) {
	b := New(1024)
	b.PushSlice([]byte("short"))
	n, err := b.DrainTo(func(p []byte) error { return nil })
	if err != nil {
		t.Fatalf("DrainTo: %v", err)
	}
	if n != 0 {
		t.Fatalf("drained %d bytes, want 0", n)
	}
}
