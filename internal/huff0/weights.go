// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package huff0 implements canonical Huffman table construction and
// the 1x/4x streaming encode/decode used by the literals section.
package huff0

// distributeWeights returns the Fibonacci-like initial weight
// distribution for amount present symbols: two weight-1 entries, then
// runs of increasing weight whose implied Σ2^w always stays a power
// of two, per §4.5 step 1.
func distributeWeights(amount int) []int {
	weights := make([]int, 0, amount)
	weights = append(weights, 1, 1)

	targetWeight := 1
	weightCounter := 2

	for len(weights) < amount {
		addNew := 1 << (weightCounter - targetWeight)
		available := amount - len(weights)

		if addNew > available {
			targetWeight = weightCounter
			addNew = 1
		}
		for i := 0; i < addNew; i++ {
			weights = append(weights, targetWeight)
		}
		weightCounter++
	}
	return weights
}

// redistributeWeights reduces weights in place so that Σ2^w fits
// within maxNumBits bits, per §4.5 step 2, then shifts the whole
// distribution down so the minimum weight is 1.
func redistributeWeights(weights []int, maxNumBits int) {
	sum := 0
	for _, w := range weights {
		sum += 1 << uint(w)
	}
	weightSum := log2Floor(uint32(sum))
	if int(weightSum) < maxNumBits {
		return
	}

	decreaseBy := int(weightSum) - maxNumBits + 1
	addedWeights := 0
	for i, w := range weights {
		if w < decreaseBy {
			for add := w; add < decreaseBy; add++ {
				addedWeights += 1 << uint(add)
			}
			weights[i] += decreaseBy - w
		}
	}

	for addedWeights > 0 {
		currentIdx := 0
		currentWeight := 0
		for idx, w := range weights {
			if (1 << uint(w-1)) > addedWeights {
				break
			}
			if w > currentWeight {
				currentWeight = w
				currentIdx = idx
			}
		}
		addedWeights -= 1 << uint(currentWeight-1)
		weights[currentIdx]--
	}

	if weights[0] > 1 {
		offset := weights[0] - 1
		for i := range weights {
			weights[i] -= offset
		}
	}
}

func log2Floor(x uint32) uint {
	n := uint(0)
	for x > 1 {
		x >>= 1
		n++
	}
	return n
}

// highestBitSet returns the 1-indexed position of the highest set bit
// of x (x must be > 0); e.g. highestBitSet(1) == 1, highestBitSet(8) == 4.
func highestBitSet(x int) int {
	if x <= 0 {
		panic("huff0: highestBitSet called with x <= 0")
	}
	n := 0
	for x > 0 {
		x >>= 1
		n++
	}
	return n
}
