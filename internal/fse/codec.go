// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fse

import (
	"errors"

	"github.com/gozstd/gozstd/internal/bitio"
)

// ErrEmptyPayload is returned when Encode is asked to process zero
// bytes, or EncodeInterleaved fewer than two; callers of a zstd literals/sequences section handle the
// zero-length case themselves and never reach the codec.
var ErrEmptyPayload = errors.New("fse: empty payload")

// Encode compresses data (single-state variant): data is consumed
// right-to-left, each symbol's transition is written num_bits wide,
// and the stream is finalized with the reverse-read marker bit.
func (t *Table) Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	w := bitio.NewWriter()
	st := t.initialState(data[len(data)-1])
	for i := len(data) - 2; i >= 0; i-- {
		next, ok := t.next(data[i], st.index)
		if !ok {
			return nil, ErrCorruptHeader
		}
		w.WriteBits(uint64(st.index-next.baseline), uint(next.numBits))
		st = next
	}
	w.WriteBits(uint64(st.index), uint(t.accLog))
	w.WriteEndMark()
	return w.Bytes(), nil
}

// EncodeInterleaved compresses data using two alternating states, the
// form used by huff0's >16-symbol weight table encoding.
func (t *Table) EncodeInterleaved(data []byte) ([]byte, error) {
	if len(data) < 2 {
		return nil, ErrEmptyPayload
	}
	w := bitio.NewWriter()
	st1 := t.initialState(data[len(data)-1])
	st2 := t.initialState(data[len(data)-2])

	idx := len(data) - 4
	for idx >= 0 {
		n1, ok := t.next(data[idx+1], st1.index)
		if !ok {
			return nil, ErrCorruptHeader
		}
		w.WriteBits(uint64(st1.index-n1.baseline), uint(n1.numBits))
		st1 = n1

		n2, ok := t.next(data[idx], st2.index)
		if !ok {
			return nil, ErrCorruptHeader
		}
		w.WriteBits(uint64(st2.index-n2.baseline), uint(n2.numBits))
		st2 = n2

		idx -= 2
	}

	if idx == -1 {
		n1, ok := t.next(data[0], st1.index)
		if !ok {
			return nil, ErrCorruptHeader
		}
		w.WriteBits(uint64(st1.index-n1.baseline), uint(n1.numBits))
		st1 = n1
		w.WriteBits(uint64(st2.index), uint(t.accLog))
		w.WriteBits(uint64(st1.index), uint(t.accLog))
	} else {
		w.WriteBits(uint64(st1.index), uint(t.accLog))
		w.WriteBits(uint64(st2.index), uint(t.accLog))
	}

	w.WriteEndMark()
	return w.Bytes(), nil
}

// Decode reconstructs outLen symbols (single-state variant), mirroring
// Encode: read the initial state from the head of the reverse stream,
// then repeatedly read num_bits to form the successor index and emit
// its symbol.
func (t *Table) Decode(payload []byte, outLen int) ([]byte, error) {
	r, err := bitio.NewReverseReader(payload)
	if err != nil {
		return nil, err
	}
	rawState, err := r.GetBits(uint(t.accLog))
	if err != nil {
		return nil, err
	}
	idx := uint32(rawState)

	out := make([]byte, outLen)
	for i := 0; i < outLen; i++ {
		e := t.decode[idx]
		out[i] = e.symbol
		if i == outLen-1 {
			break
		}
		bits, err := r.GetBits(uint(e.numBits))
		if err != nil {
			return nil, err
		}
		idx = e.baseline + uint32(bits)
	}
	return out, nil
}

// DecodeInterleavedUntilExhausted decodes symbols written by
// EncodeInterleaved without knowing the original count in advance:
// when one state's next read would run past the start of the reverse
// stream, the other state's pending symbol is emitted as the last one.
// Output is capped at maxOut. This mirrors how a real huff0
// weight section is read back — the FSE-coded weights carry no
// explicit count, only a byte length, so decoding runs until the
// bitstream is exhausted.
func (t *Table) DecodeInterleavedUntilExhausted(payload []byte, maxOut int) ([]byte, error) {
	r, err := bitio.NewReverseReader(payload)
	if err != nil {
		return nil, err
	}
	raw1, err := r.GetBits(uint(t.accLog))
	if err != nil {
		return nil, err
	}
	raw2, err := r.GetBits(uint(t.accLog))
	if err != nil {
		return nil, err
	}
	idx1 := uint32(raw1)
	idx2 := uint32(raw2)

	var out []byte
	for len(out) < maxOut {
		e1 := t.decode[idx1]
		out = append(out, e1.symbol)
		if len(out) == maxOut {
			break
		}
		if r.BitsLeft() < int(e1.numBits) {
			out = append(out, t.decode[idx2].symbol)
			break
		}
		bits1, err := r.GetBits(uint(e1.numBits))
		if err != nil {
			break
		}
		idx1 = e1.baseline + uint32(bits1)

		e2 := t.decode[idx2]
		out = append(out, e2.symbol)
		if len(out) == maxOut {
			break
		}
		if r.BitsLeft() < int(e2.numBits) {
			out = append(out, t.decode[idx1].symbol)
			break
		}
		bits2, err := r.GetBits(uint(e2.numBits))
		if err != nil {
			break
		}
		idx2 = e2.baseline + uint32(bits2)
	}
	return out, nil
}

// DecodeInterleaved reconstructs outLen symbols written by
// EncodeInterleaved.
func (t *Table) DecodeInterleaved(payload []byte, outLen int) ([]byte, error) {
	r, err := bitio.NewReverseReader(payload)
	if err != nil {
		return nil, err
	}
	raw1, err := r.GetBits(uint(t.accLog))
	if err != nil {
		return nil, err
	}
	raw2, err := r.GetBits(uint(t.accLog))
	if err != nil {
		return nil, err
	}
	idx1 := uint32(raw1)
	idx2 := uint32(raw2)

	out := make([]byte, 0, outLen)
	for len(out) < outLen {
		e1 := t.decode[idx1]
		out = append(out, e1.symbol)
		if len(out) >= outLen-1 {
			if len(out) < outLen {
				out = append(out, t.decode[idx2].symbol)
			}
			break
		}
		bits1, err := r.GetBits(uint(e1.numBits))
		if err != nil {
			return nil, err
		}
		idx1 = e1.baseline + uint32(bits1)

		e2 := t.decode[idx2]
		out = append(out, e2.symbol)
		if len(out) >= outLen-1 {
			if len(out) < outLen {
				out = append(out, t.decode[idx1].symbol)
			}
			break
		}
		bits2, err := r.GetBits(uint(e2.numBits))
		if err != nil {
			return nil, err
		}
		idx2 = e2.baseline + uint32(bits2)
	}
	return out, nil
}
