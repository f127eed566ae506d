// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fse

import "sort"

// BuildFromCounts builds a table from raw symbol counts, following
// §4.4's table-from-counts recipe: shift counts so the minimum
// positive count becomes 1, set accuracy_log to floor(log2(sum))+1 of
// the (shifted) sum, but at least 5, top up the maximum probability to reach
// exactly 2^accuracy_log, and — when avoidZeroNumBit is set, as huff0
// weight tables require — clamp the maximum to half the table and
// donate the excess to the runner-up so no symbol ever needs a
// zero-bit-wide decode (which would make the table size unrecoverable
// from a single symbol's code).
func BuildFromCounts(counts []int, maxLog uint8, avoidZeroNumBit bool) (*Table, error) {
	probs := make([]int32, len(counts))
	minCount := 0
	for i, c := range counts {
		probs[i] = int32(c)
		if c > 0 && (minCount == 0 || c < minCount) {
			minCount = c
		}
	}
	if minCount == 0 {
		return nil, ErrEmptyInput
	}
	shift := int32(minCount - 1)
	sum := int32(0)
	for i, p := range probs {
		if p > 0 {
			p -= shift
			probs[i] = p
		}
		sum += probs[i]
	}
	if sum <= 0 {
		return nil, ErrEmptyInput
	}

	accLog := uint8(log2Floor(uint32(sum))) + 1
	if accLog < 5 {
		accLog = 5
	}
	if accLog > maxLog {
		return nil, ErrAccuracyLogTooLarge
	}

	target := int32(1) << accLog
	diff := target - sum
	maxIdx := 0
	for i, p := range probs {
		if p > probs[maxIdx] {
			maxIdx = i
		}
	}
	probs[maxIdx] += diff

	if avoidZeroNumBit {
		half := int32(1) << (accLog - 1)
		if probs[maxIdx] > half {
			redistribute := probs[maxIdx] - half
			probs[maxIdx] -= redistribute
			maxVal := probs[maxIdx]
			secondIdx := -1
			for i, p := range probs {
				if p == maxVal {
					continue
				}
				if secondIdx == -1 || p > probs[secondIdx] {
					secondIdx = i
				}
			}
			probs[secondIdx] += redistribute
		}
	}

	return BuildFromProbabilities(probs, accLog), nil
}

// log2Floor returns floor(log2(x)) for x > 0.
func log2Floor(x uint32) uint {
	n := uint(0)
	for x > 1 {
		x >>= 1
		n++
	}
	return n
}

// BuildFromProbabilities builds a table directly from normalized
// probabilities (including -1 "low probability" entries), per §3's
// state-spread rule. probs must be len 256; a -1 entry consumes one
// slot at the high end of the table.
func BuildFromProbabilities(probs []int32, accLog uint8) *Table {
	tableSize := uint32(1) << accLog

	t := &Table{
		accLog:    accLog,
		tableSize: tableSize,
		decode:    make([]decEntry, tableSize),
	}

	negativeIdx := tableSize - 1
	for symbol, p := range probs {
		if p != -1 {
			continue
		}
		s := state{
			numBits:   accLog,
			baseline:  0,
			lastIndex: tableSize - 1,
			index:     negativeIdx,
		}
		t.bySymbol[symbol] = symbolStates{states: []state{s}, probability: -1}
		t.decode[negativeIdx] = decEntry{symbol: byte(symbol), numBits: accLog, baseline: 0}
		negativeIdx--
	}

	idx := uint32(0)
	for symbol, p := range probs {
		if p <= 0 {
			continue
		}
		states := make([]state, 0, p)
		for i := int32(0); i < p; i++ {
			states = append(states, state{index: idx})
			idx = nextPosition(idx, tableSize)
			for idx > negativeIdx {
				idx = nextPosition(idx, tableSize)
			}
		}
		t.bySymbol[symbol] = symbolStates{states: states, probability: p}
	}

	for symbol, p := range probs {
		if p <= 0 {
			continue
		}
		ss := &t.bySymbol[symbol]
		sort.SliceStable(ss.states, func(i, j int) bool { return ss.states[i].index < ss.states[j].index })

		prob := uint32(p)
		probLog := log2Floor(prob)
		if prob&(prob-1) != 0 {
			probLog++
		}
		roundedUp := uint32(1) << probLog
		doubleStates := roundedUp - prob
		numBits := accLog - uint8(probLog)
		singleStates := prob - doubleStates
		baseline := (singleStates * (uint32(1) << numBits)) % tableSize

		for i := range ss.states {
			st := &ss.states[i]
			idx := st.index
			if uint32(i) < doubleStates {
				nb := numBits + 1
				st.baseline = baseline
				st.numBits = nb
				st.lastIndex = baseline + (uint32(1)<<nb - 1)
				t.decode[idx] = decEntry{symbol: byte(symbol), numBits: nb, baseline: baseline}
				baseline += uint32(1) << nb
				baseline %= tableSize
			} else {
				st.baseline = baseline
				st.numBits = numBits
				st.lastIndex = baseline + (uint32(1)<<numBits - 1)
				t.decode[idx] = decEntry{symbol: byte(symbol), numBits: numBits, baseline: baseline}
				baseline += uint32(1) << numBits
			}
		}
		sort.SliceStable(ss.states, func(i, j int) bool { return ss.states[i].baseline < ss.states[j].baseline })
	}

	return t
}
