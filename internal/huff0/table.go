// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package huff0

import "sort"

// code is a symbol's canonical Huffman code: the low numBits bits of
// value, MSB-first when written to a stream. numBits == 0 means the
// symbol does not occur.
type code struct {
	value   uint32
	numBits uint8
}

// Table is a built canonical Huffman table, usable for both encode
// and decode.
type Table struct {
	codes      [256]code
	maxNumBits uint8
}

// MaxNumBits returns the longest code length in the table.
func (t *Table) MaxNumBits() uint8 { return t.maxNumBits }

// BuildFromData counts symbol frequencies in data and builds a table
// from them.
func BuildFromData(data []byte) *Table {
	counts := make([]int, 256)
	max := 0
	for _, b := range data {
		counts[b]++
		if int(b) > max {
			max = int(b)
		}
	}
	return BuildFromCounts(counts[:max+1])
}

// BuildFromCounts assigns weights to symbols by ascending frequency
// (ties broken by symbol, lowest first) over the Fibonacci-like
// distribution from distributeWeights, then builds the canonical
// code table from those weights, per §4.5 steps 1-3.
func BuildFromCounts(counts []int) *Table {
	zeros := 0
	for _, c := range counts {
		if c == 0 {
			zeros++
		}
	}
	present := len(counts) - zeros
	if present < 2 {
		present = 2
	}
	weights := distributeWeights(present)
	limit := highestBitSet(len(weights)) + 1
	redistributeWeights(weights, limit)

	// reverse, then pop from the back onto symbols in ascending-count order
	for i, j := 0, len(weights)-1; i < j; i, j = i+1, j-1 {
		weights[i], weights[j] = weights[j], weights[i]
	}

	type indexedCount struct {
		idx   int
		count int
	}
	sorted := make([]indexedCount, len(counts))
	for i, c := range counts {
		sorted[i] = indexedCount{idx: i, count: c}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].count < sorted[j].count })

	distributed := make([]int, len(counts))
	wi := len(weights) - 1
	for _, sc := range sorted {
		if sc.count == 0 {
			distributed[sc.idx] = 0
			continue
		}
		distributed[sc.idx] = weights[wi]
		wi--
	}

	return BuildFromWeights(distributed)
}

// BuildFromWeights assigns canonical codes given a per-symbol weight
// array (weight 0 meaning absent), per §4.5's canonical code
// assignment: sort present symbols by (weight asc, symbol asc),
// derive max_num_bits from Σ2^(w-1), then walk assigning codes.
func BuildFromWeights(weights []int) *Table {
	type entry struct {
		symbol byte
		weight int
	}
	var sorted []entry
	for symbol, w := range weights {
		if w > 0 {
			sorted = append(sorted, entry{symbol: byte(symbol), weight: w})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].weight != sorted[j].weight {
			return sorted[i].weight < sorted[j].weight
		}
		return sorted[i].symbol < sorted[j].symbol
	})

	t := &Table{}

	weightSum := 0
	for _, e := range sorted {
		weightSum += 1 << uint(e.weight-1)
	}
	maxNumBits := 0
	if weightSum > 0 {
		maxNumBits = highestBitSet(weightSum) - 1
	}
	t.maxNumBits = uint8(maxNumBits)

	currentValue := uint32(0)
	currentWeight := 0
	currentNumBits := 0
	for _, e := range sorted {
		if currentWeight != e.weight {
			currentValue >>= uint(e.weight - currentWeight)
			currentWeight = e.weight
			currentNumBits = maxNumBits - e.weight + 1
		}
		t.codes[e.symbol] = code{value: currentValue, numBits: uint8(currentNumBits)}
		currentValue++
	}

	return t
}

// weights derives the per-symbol weight implied by this table's
// codes, for serialization: weight = max_num_bits - numBits + 1, or 0
// for an absent symbol.
func (t *Table) weights() []int {
	w := make([]int, 256)
	for s, c := range t.codes {
		if c.numBits == 0 {
			continue
		}
		w[s] = int(t.maxNumBits) - int(c.numBits) + 1
	}
	return w
}
