// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zstd

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

func encodeDecodeRoundTrip(t *testing.T, data []byte, opts ...EncoderOption) []byte {
	t.Helper()
	enc := NewFrameEncoder(opts...)
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewFrameDecoder()
	dst := make([]byte, len(data)+1)
	n, err := dec.DecodeAll(bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return dst[:n]
}

func TestFrameRoundTripEmpty(t *testing.T) {
	got := encodeDecodeRoundTrip(t, nil, WithLevel(Compressed))
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}

func TestFrameRoundTripUncompressed(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	got := encodeDecodeRoundTrip(t, data, WithLevel(Uncompressed))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestFrameRoundTripCompressedRepetitive(t *testing.T) {
	data := bytes.Repeat([]byte("abcabcabcabcabcabcabc xyz "), 2000)
	got := encodeDecodeRoundTrip(t, data, WithLevel(Compressed))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestFrameRoundTripCompressedRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 5000)
	rng.Read(data)
	got := encodeDecodeRoundTrip(t, data, WithLevel(Compressed))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch on incompressible data: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestFrameRoundTripMultiChunk(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 40000) // > 128KiB, spans multiple blocks
	got := encodeDecodeRoundTrip(t, data, WithLevel(Compressed))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch across chunk boundary: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestFrameRoundTripWithChecksum(t *testing.T) {
	data := []byte("checksummed content")
	got := encodeDecodeRoundTrip(t, data, WithLevel(Compressed), WithContentChecksum(true))
	if !bytes.Equal(got, data) {
		t.Errorf("round trip mismatch: got %q, want %q", got, data)
	}
}

func TestFrameChecksumMismatchDetected(t *testing.T) {
	data := []byte("tamper with me")
	enc := NewFrameEncoder(WithLevel(Uncompressed), WithContentChecksum(true))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encoded := buf.Bytes()
	encoded[len(encoded)-1] ^= 0xFF // corrupt the trailing checksum byte

	dec := NewFrameDecoder()
	dst := make([]byte, len(data))
	if _, err := dec.DecodeAll(bytes.NewReader(encoded), dst); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestFrameTruncatedChecksumTrailerReportsUnexpectedEof(t *testing.T) {
	data := []byte("tamper with me")
	enc := NewFrameEncoder(WithLevel(Uncompressed), WithContentChecksum(true))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encoded := buf.Bytes()[:buf.Len()-1] // drop the last byte of the 4-byte trailer

	dec := NewFrameDecoder()
	dst := make([]byte, len(data))
	_, err := dec.DecodeAll(bytes.NewReader(encoded), dst)
	zerr, ok := err.(*Error)
	if !ok || zerr.Kind != KindUnexpectedEof {
		t.Fatalf("got err %v, want KindUnexpectedEof", err)
	}
}

func TestFrameRoundTripWithDictionary(t *testing.T) {
	corpus := skewedTrainingCorpus(2000)
	dict, err := Train([][]byte{corpus}, DictParams{SegmentSize: 16, MaxDictSize: 64})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	dict.ID = 99

	data := []byte("the quick brown fox jumps over the lazy dog")
	enc := NewFrameEncoder(WithLevel(Compressed))
	enc.AttachDictionary(dict)
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	dec := NewFrameDecoder()
	dec.AttachDictionary(dict)
	dst := make([]byte, len(data)+1)
	n, err := dec.DecodeAll(bytes.NewReader(buf.Bytes()), dst)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if !bytes.Equal(dst[:n], data) {
		t.Errorf("round trip with dictionary mismatch: got %q, want %q", dst[:n], data)
	}
}

func TestFrameDecodeAllBufferTooSmall(t *testing.T) {
	data := []byte("needs a bigger buffer than provided")
	enc := NewFrameEncoder(WithLevel(Uncompressed))
	var buf bytes.Buffer
	if err := enc.Encode(&buf, data); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := NewFrameDecoder()
	dst := make([]byte, 4)
	if _, err := dec.DecodeAll(bytes.NewReader(buf.Bytes()), dst); err == nil {
		t.Fatal("expected KindBufferTooSmall error")
	}
}

// reentrantWriter calls back into the encoder mid-write, simulating a
// caller that reenters Encode from within its own io.Writer.
type reentrantWriter struct {
	enc *FrameEncoder
	err error
}

func (w *reentrantWriter) Write(p []byte) (int, error) {
	w.err = w.enc.Encode(io.Discard, []byte("nested"))
	return len(p), nil
}

func TestFrameEncodeRejectsReentrantCall(t *testing.T) {
	enc := NewFrameEncoder(WithLevel(Uncompressed))
	w := &reentrantWriter{enc: enc}
	if err := enc.Encode(w, []byte("outer")); err != nil {
		t.Fatalf("outer Encode: %v", err)
	}
	zerr, ok := w.err.(*Error)
	if !ok || zerr.Kind != KindEncoderState {
		t.Fatalf("nested Encode: got err %v, want KindEncoderState", w.err)
	}

	// the encoder must be usable again after the reentrant call failed.
	var buf bytes.Buffer
	if err := enc.Encode(&buf, []byte("after")); err != nil {
		t.Fatalf("Encode after reentrant failure: %v", err)
	}
}
