// Package bits provides low-level bit manipulation primitives.
package bits

import "math/bits"

// Set is a growable bit set indexed from zero.
// The zero value is an empty set ready for use.
type Set struct {
	words []uint64
}

// NewSet returns a set with room for n bits before it needs to grow.
func NewSet(n int) *Set {
	return &Set{words: make([]uint64, (n+63)>>6)}
}

// Has reports whether bit i is set. Bits beyond the current capacity are unset.
func (s *Set) Has(i int) bool {
	w := i >> 6
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(uint(i)&63)) != 0
}

// Add sets bit i, growing the set geometrically if needed.
func (s *Set) Add(i int) {
	w := i >> 6
	if w >= len(s.words) {
		s.grow(w + 1)
	}
	s.words[w] |= 1 << (uint(i) & 63)
}

// Remove clears bit i.
func (s *Set) Remove(i int) {
	w := i >> 6
	if w < len(s.words) {
		s.words[w] &^= 1 << (uint(i) & 63)
	}
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Len returns the current capacity in bits.
func (s *Set) Len() int {
	return len(s.words) << 6
}

func (s *Set) grow(words int) {
	n := 2 * len(s.words)
	if n < words {
		n = words
	}
	grown := make([]uint64, n)
	copy(grown, s.words)
	s.words = grown
}
