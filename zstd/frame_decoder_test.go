// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"bytes"
	"testing"
)

func multiBlockFrame(t *testing.T) ([]byte, []byte) {
	t.Helper()
	data := bytes.Repeat([]byte("0123456789"), 40000) // 400000 bytes, spans 4 128KiB raw blocks
	enc := NewFrameEncoder(WithLevel(Uncompressed))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes(), data
}

func TestDecodeBlocksStrategyAll(t *testing.T) {
	frame, data := multiBlockFrame(t)
	dec := NewFrameDecoder()
	if err := dec.Reset(bytes.NewReader(frame)); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := dec.DecodeBlocks(All()); err != nil {
		t.Fatalf("DecodeBlocks(All): %v", err)
	}
	if !dec.IsFinished() {
		t.Fatal("expected decoder to be finished after All()")
	}

	var out bytes.Buffer
	for dec.CanCollect() > 0 {
		if _, err := dec.CollectToWriter(&out); err != nil {
			t.Fatalf("CollectToWriter: %v", err)
		}
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Errorf("collected %d bytes, want %d bytes", out.Len(), len(data))
	}
}

func TestDecodeBlocksStrategyBlockCount(t *testing.T) {
	frame, data := multiBlockFrame(t)
	dec := NewFrameDecoder()
	if err := dec.Reset(bytes.NewReader(frame)); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	var out bytes.Buffer
	for !dec.IsFinished() {
		if err := dec.DecodeBlocks(UptoBlocks(1)); err != nil {
			t.Fatalf("DecodeBlocks(UptoBlocks(1)): %v", err)
		}
		for dec.CanCollect() > 0 {
			if _, err := dec.CollectToWriter(&out); err != nil {
				t.Fatalf("CollectToWriter: %v", err)
			}
		}
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Errorf("collected %d bytes, want %d bytes", out.Len(), len(data))
	}
}

func TestDecodeBlocksStrategyByteCount(t *testing.T) {
	frame, data := multiBlockFrame(t)
	dec := NewFrameDecoder()
	if err := dec.Reset(bytes.NewReader(frame)); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	var out bytes.Buffer
	for !dec.IsFinished() {
		if err := dec.DecodeBlocks(UptoBytes(50000)); err != nil {
			t.Fatalf("DecodeBlocks(UptoBytes(50000)): %v", err)
		}
		for dec.CanCollect() > 0 {
			if _, err := dec.CollectToWriter(&out); err != nil {
				t.Fatalf("CollectToWriter: %v", err)
			}
		}
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Errorf("collected %d bytes, want %d bytes", out.Len(), len(data))
	}
}

func TestFrameDecoderReusedAcrossFrames(t *testing.T) {
	dec := NewFrameDecoder()
	for i := 0; i < 3; i++ {
		data := []byte("reuse me across frames")
		enc := NewFrameEncoder(WithLevel(Uncompressed))
		var buf bytes.Buffer
		if err := enc.Encode(&buf, data); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		dst := make([]byte, len(data))
		n, err := dec.DecodeAll(bytes.NewReader(buf.Bytes()), dst)
		if err != nil {
			t.Fatalf("DecodeAll (iteration %d): %v", i, err)
		}
		if !bytes.Equal(dst[:n], data) {
			t.Errorf("iteration %d: got %q, want %q", i, dst[:n], data)
		}
	}
}

func TestFrameDecoderMaxWindowSizeRejectsLargeFrame(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 70000)
	enc := NewFrameEncoder(WithLevel(Uncompressed))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewFrameDecoder(WithMaxWindowSize(1024))
	err := dec.Reset(bytes.NewReader(buf.Bytes()))
	zerr, ok := err.(*Error)
	if !ok || zerr.Kind != KindWindowTooLarge {
		t.Fatalf("Reset: got err %v, want KindWindowTooLarge", err)
	}
}

func TestFrameDecoderStrictReservedBitsRejectsSetBit(t *testing.T) {
	data := []byte("hello")
	enc := NewFrameEncoder(WithLevel(Uncompressed))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw := buf.Bytes()
	raw[4] |= 1 << 3

	dec := NewFrameDecoder(WithStrictReservedBits(true))
	err := dec.Reset(bytes.NewReader(raw))
	zerr, ok := err.(*Error)
	if !ok || zerr.Kind != KindReservedBitSet {
		t.Fatalf("Reset: got err %v, want KindReservedBitSet", err)
	}
}
