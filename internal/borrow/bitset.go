package borrow

import "math/bits"

// Bitset is a fixed-universe bitset over local indices, used for root sets
// (spec.md §4.F: "Implementation uses bitsets ... to keep per-transition
// cost near O(locals / word-size)").
type Bitset struct {
	words []uint64
}

// NewBitset creates a bitset with room for n elements (0..n-1).
func NewBitset(n int) Bitset {
	return Bitset{words: make([]uint64, (n+63)/64)}
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset {
	w := make([]uint64, len(b.words))
	copy(w, b.words)
	return Bitset{words: w}
}

// Set marks bit i.
func (b Bitset) Set(i int) {
	b.words[i/64] |= 1 << uint(i%64)
}

// Clear unmarks bit i.
func (b Bitset) Clear(i int) {
	b.words[i/64] &^= 1 << uint(i%64)
}

// Has reports whether bit i is set.
func (b Bitset) Has(i int) bool {
	if i/64 >= len(b.words) {
		return false
	}
	return b.words[i/64]&(1<<uint(i%64)) != 0
}

// IsEmpty reports whether no bits are set.
func (b Bitset) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// UnionInPlace ORs other into b.
func (b Bitset) UnionInPlace(other Bitset) {
	for i := range b.words {
		if i < len(other.words) {
			b.words[i] |= other.words[i]
		}
	}
}

// Equal reports whether two bitsets have identical bits set.
func (b Bitset) Equal(other Bitset) bool {
	n := len(b.words)
	if len(other.words) > n {
		n = len(other.words)
	}
	for i := 0; i < n; i++ {
		var a, o uint64
		if i < len(b.words) {
			a = b.words[i]
		}
		if i < len(other.words) {
			o = other.words[i]
		}
		if a != o {
			return false
		}
	}
	return true
}

// ForEach calls fn for every set bit, in ascending order.
func (b Bitset) ForEach(fn func(i int)) {
	for wi, w := range b.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(wi*64 + tz)
			w &= w - 1
		}
	}
}

// Single returns a bitset with exactly i set.
func Single(n, i int) Bitset {
	b := NewBitset(n)
	b.Set(i)
	return b
}
