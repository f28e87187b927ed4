// Package random holds the uniform source used for shuffles, sampling and
// randomized breath lengths. Tests inject a scripted Source.
package random

import "math/rand/v2"

// Source draws uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type global struct{}

func (global) IntN(n int) int { return rand.IntN(n) }

// NewSource returns the runtime-seeded global source. It is safe for concurrent use.
func NewSource() Source {
	return global{}
}

// NewSeeded returns a reproducible Source. It is not safe for concurrent use.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle permutes items in place with an unbiased Fisher–Yates pass.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Sample picks n distinct elements without replacement. Each draw pops a random
// entry from the remaining index list.
func Sample[T any](src Source, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]T, 0, n)
	for len(out) < n {
		j := src.IntN(len(idx))
		out = append(out, items[idx[j]])
		idx[j] = idx[len(idx)-1]
		idx = idx[:len(idx)-1]
	}
	return out
}
