// Package sketch implements a count-min frequency sketch
// with 4-bit saturating counters and periodic aging.
//
// The sketch answers "approximately how often was this hash seen recently"
// in constant time and memory independent of key cardinality.
// Estimates may be inflated by hash aliasing but never fall below the
// number of increments observed for a hash (up to the counter ceiling),
// unless an aging pass has halved the counters since.
package sketch

import (
	"math/bits"

	"go.uber.org/atomic"
)

const (
	// Depth is the number of independent hash rows.
	Depth = 4
	// MaxCeiling is the largest value a 4-bit counter can hold.
	MaxCeiling = 15
	// MaxWidth bounds the counters per row.
	MaxWidth = 1 << 26

	countersPerWord = 16
	counterBits     = 4
	counterMask     = 0xf
	// halveMask clears the bit shifted in from the neighbouring counter.
	halveMask = 0x7777_7777_7777_7777
	minWidth  = countersPerWord
)

// Row seeds; large odd constants so each row indexes independently.
var seeds = [Depth]uint64{
	0xc3a5_c85c_97cb_3127,
	0xb492_b66f_be98_f273,
	0x9ae1_6a3b_2f90_404f,
	0xcbf2_9ce4_8422_2325,
}

// Sketch is safe for concurrent use, except for [Sketch.Grow].
// Every counter update is a compare-and-swap on the word holding it.
type Sketch struct {
	rows       [Depth][]atomic.Uint64
	indexMask  uint64
	ceiling    uint64
	sampleSize uint64
	additions  atomic.Uint64
}

// New creates a sketch with width counters per row
// (rounded up to a power of two, at most [MaxWidth]),
// counters saturating at ceiling (clamped to [1, MaxCeiling]),
// which ages after sampleSize successful increments.
// A sampleSize of zero disables aging.
func New(width int, ceiling uint8, sampleSize uint64) *Sketch {
	s := &Sketch{
		ceiling:    uint64(min(max(ceiling, 1), MaxCeiling)),
		sampleSize: sampleSize,
	}
	s.allocate(rowWidth(width))
	return s
}

// Grow widens the rows to at least width counters, dropping every
// recorded count, and sets a new sampleSize. It reports whether the
// sketch changed; a sketch already that wide (or at [MaxWidth]) is kept.
// Grow must not run concurrently with any other method.
func (s *Sketch) Grow(width int, sampleSize uint64) bool {
	width = rowWidth(width)
	if width <= s.Width() {
		return false
	}
	s.allocate(width)
	s.sampleSize = sampleSize
	s.additions.Store(0)
	return true
}

func (s *Sketch) allocate(width int) {
	s.indexMask = uint64(width - 1)
	for i := range s.rows {
		s.rows[i] = make([]atomic.Uint64, width/countersPerWord)
	}
}

// Increment records one occurrence of hash.
// It reports whether any row counter changed;
// false means every row was already saturated.
func (s *Sketch) Increment(hash uint64) bool {
	hash = spread(hash)
	var added bool
	for row := range s.rows {
		word, shift := s.locate(row, hash)
		if s.incrementAt(word, shift) {
			added = true
		}
	}
	if added && s.sampleSize > 0 &&
		s.additions.Inc() >= s.sampleSize {
		s.Reset()
	}
	return added
}

// Estimate returns the minimum counter value across rows for hash.
func (s *Sketch) Estimate(hash uint64) int {
	hash = spread(hash)
	estimate := uint64(MaxCeiling)
	for row := range s.rows {
		word, shift := s.locate(row, hash)
		estimate = min(estimate, (word.Load()>>shift)&counterMask)
	}
	return int(estimate)
}

// Reset ages the sketch by halving every counter.
func (s *Sketch) Reset() {
	for row := range s.rows {
		for i := range s.rows[row] {
			word := &s.rows[row][i]
			for {
				old := word.Load()
				if word.CompareAndSwap(old, (old>>1)&halveMask) {
					break
				}
			}
		}
	}
	for {
		old := s.additions.Load()
		if s.additions.CompareAndSwap(old, old/2) {
			return
		}
	}
}

// Width returns the number of counters per row.
func (s *Sketch) Width() int { return int(s.indexMask + 1) }

func (s *Sketch) locate(row int, hash uint64) (*atomic.Uint64, uint64) {
	h := hash * seeds[row]
	h += h >> 32
	index := h & s.indexMask
	return &s.rows[row][index/countersPerWord],
		(index % countersPerWord) * counterBits
}

func (s *Sketch) incrementAt(word *atomic.Uint64, shift uint64) bool {
	for {
		old := word.Load()
		if (old>>shift)&counterMask >= s.ceiling {
			return false
		}
		if word.CompareAndSwap(old, old+(1<<shift)) {
			return true
		}
	}
}

// spread applies a finalizer so weak input hashes
// still distribute across rows.
func spread(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51_afd7_ed55_8ccd
	h ^= h >> 33
	h *= 0xc4ce_b9fe_1a85_ec53
	h ^= h >> 33
	return h
}

func rowWidth(width int) int {
	return nextPow2(min(max(width, minWidth), MaxWidth))
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x)-1)
}
