// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fse implements Finite State Entropy table construction,
// serialization, and the interleaved forward-encode/reverse-decode
// pair that the literals and sequences sections build on.
package fse

import (
	"errors"
	"sort"
)

// ErrAccuracyLogTooLarge is returned when a table would need more bits
// than the caller's symbol class allows.
var ErrAccuracyLogTooLarge = errors.New("fse: accuracy log exceeds maximum for this symbol class")

// ErrEmptyInput is returned by BuildFromCounts when every count is zero.
var ErrEmptyInput = errors.New("fse: no symbols to build a table from")

// state is one of a symbol's table slots: the encoder uses it to look
// up the next transition given the current state index; the decoder
// uses the parallel decEntry array, keyed directly by state index.
type state struct {
	numBits   uint8
	baseline  uint32
	lastIndex uint32
	index     uint32
}

func (s state) contains(idx uint32) bool {
	return s.baseline <= idx && idx <= s.lastIndex
}

type symbolStates struct {
	states      []state // sorted by baseline, for the encoder's range lookup
	probability int32
}

type decEntry struct {
	symbol   byte
	numBits  uint8
	baseline uint32
}

// Table is a built FSE table, usable for both encode and decode.
type Table struct {
	accLog    uint8
	tableSize uint32
	bySymbol  [256]symbolStates
	decode    []decEntry
}

// AccuracyLog returns the table's accuracy_log.
func (t *Table) AccuracyLog() uint8 { return t.accLog }

// TableSize returns 2^accuracy_log.
func (t *Table) TableSize() uint32 { return t.tableSize }

// nextPosition computes the cyclic state-spread step used both when
// assigning encode states and when walking the decode table.
func nextPosition(p, tableSize uint32) uint32 {
	p += (tableSize >> 1) + (tableSize >> 3) + 3
	p &= tableSize - 1
	return p
}

// next looks up the encoder's successor state for symbol, given the
// current state index.
func (t *Table) next(symbol byte, idx uint32) (state, bool) {
	states := t.bySymbol[symbol].states
	i := sort.Search(len(states), func(i int) bool { return states[i].lastIndex >= idx })
	if i == len(states) || !states[i].contains(idx) {
		return state{}, false
	}
	return states[i], true
}

// initialState returns the first encode state for symbol, used as the
// starting state when encoding begins at the tail of the input.
func (t *Table) initialState(symbol byte) state {
	return t.bySymbol[symbol].states[0]
}

// EncodeInitial returns the initial encode state index for symbol,
// the state a right-to-left encode seeds itself with from the last
// symbol of its input.
func (t *Table) EncodeInitial(symbol byte) uint32 {
	return t.initialState(symbol).index
}

// EncodeTransition returns the bits (value, numBits) a right-to-left
// encoder writes to move from state idx to the successor state
// symbol's table selects, along with that successor's index.
func (t *Table) EncodeTransition(symbol byte, idx uint32) (value uint64, numBits uint8, nextIdx uint32, ok bool) {
	next, ok := t.next(symbol, idx)
	if !ok {
		return 0, 0, 0, false
	}
	return uint64(idx - next.baseline), next.numBits, next.index, true
}

// DecodeEntry returns the decode-table entry at state idx: the symbol
// assigned to that state, and the baseline/num_bits a decoder uses to
// compute the next state index after consuming this sequence's value.
func (t *Table) DecodeEntry(idx uint32) (symbol byte, baseline uint32, numBits uint8) {
	e := t.decode[idx]
	return e.symbol, e.baseline, e.numBits
}
