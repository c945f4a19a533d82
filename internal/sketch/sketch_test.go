package sketch_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/djdv/go-tinylfu/internal/sketch"
)

func TestSketch(t *testing.T) {
	t.Run("width rounding", widthRounding)
	t.Run("ceiling clamp", ceilingClamp)
	t.Run("unseen is zero", unseenIsZero)
	t.Run("monotonic", monotonic)
	t.Run("saturates", saturates)
	t.Run("never underestimates", neverUnderestimates)
	t.Run("aging halves", agingHalves)
	t.Run("automatic aging", automaticAging)
	t.Run("grow", grow)
	t.Run("concurrent increments", concurrentIncrements)
}

func widthRounding(t *testing.T) {
	t.Parallel()
	for _, test := range []struct{ width, want int }{
		{0, 16},
		{1, 16},
		{16, 16},
		{17, 32},
		{1000, 1024},
	} {
		if got := sketch.New(test.width, sketch.MaxCeiling, 0).Width(); got != test.want {
			t.Errorf("width %d: got %d want %d", test.width, got, test.want)
		}
	}
}

func ceilingClamp(t *testing.T) {
	t.Parallel()
	const hash = 5
	for _, test := range []struct {
		ceiling uint8
		want    int
	}{
		{0, 1},
		{7, 7},
		{15, 15},
		{200, 15},
	} {
		s := sketch.New(64, test.ceiling, 0)
		for range sketch.MaxCeiling + 1 {
			s.Increment(hash)
		}
		if got := s.Estimate(hash); got != test.want {
			t.Errorf("ceiling %d: saturated at %d want %d", test.ceiling, got, test.want)
		}
	}
}

func unseenIsZero(t *testing.T) {
	t.Parallel()
	s := sketch.New(1024, sketch.MaxCeiling, 0)
	for h := range uint64(64) {
		checkEstimate(t, s, h, 0)
	}
}

func monotonic(t *testing.T) {
	t.Parallel()
	const hash = 0xdead_beef
	s := sketch.New(256, sketch.MaxCeiling, 0)
	previous := s.Estimate(hash)
	for range sketch.MaxCeiling * 2 {
		s.Increment(hash)
		got := s.Estimate(hash)
		if got < previous {
			t.Fatalf("estimate decreased without aging: %d -> %d", previous, got)
		}
		previous = got
	}
	checkEstimate(t, s, hash, sketch.MaxCeiling)
}

func saturates(t *testing.T) {
	t.Parallel()
	const (
		hash    = 42
		ceiling = 3
	)
	s := sketch.New(64, ceiling, 0)
	for range ceiling {
		if !s.Increment(hash) {
			t.Fatal("increment below the ceiling reported no change")
		}
	}
	if s.Increment(hash) {
		t.Error("increment at the ceiling reported a change")
	}
	checkEstimate(t, s, hash, ceiling)
}

func neverUnderestimates(t *testing.T) {
	t.Parallel()
	var (
		rng    = rand.New(rand.NewSource(1))
		s      = sketch.New(512, sketch.MaxCeiling, 0)
		counts = make(map[uint64]int)
	)
	for range 4096 {
		h := rng.Uint64() % 2048
		s.Increment(h)
		counts[h]++
	}
	for h, count := range counts {
		want := min(count, sketch.MaxCeiling)
		if got := s.Estimate(h); got < want {
			t.Fatalf("hash %d underestimated: got %d want >= %d", h, got, want)
		}
	}
}

func agingHalves(t *testing.T) {
	t.Parallel()
	const hash = 7
	s := sketch.New(64, sketch.MaxCeiling, 0)
	for range 13 {
		s.Increment(hash)
	}
	s.Reset()
	checkEstimate(t, s, hash, 6)
	s.Reset()
	checkEstimate(t, s, hash, 3)
}

func automaticAging(t *testing.T) {
	t.Parallel()
	const (
		hash       = 99
		sampleSize = 8
	)
	s := sketch.New(64, sketch.MaxCeiling, sampleSize)
	for range sampleSize - 1 {
		s.Increment(hash)
	}
	checkEstimate(t, s, hash, sampleSize-1)
	s.Increment(hash) // Reaches the sample size; counters are halved.
	checkEstimate(t, s, hash, sampleSize/2)
	// Aging halves the addition count too,
	// so half a sample later the sketch ages again.
	for range sampleSize/2 - 1 {
		s.Increment(hash)
	}
	checkEstimate(t, s, hash, sampleSize-1)
	s.Increment(hash)
	checkEstimate(t, s, hash, sampleSize/2)
}

func grow(t *testing.T) {
	t.Parallel()
	const hash = 21
	s := sketch.New(64, sketch.MaxCeiling, 0)
	s.Increment(hash)
	if s.Grow(32, 0) {
		t.Error("narrower width reported growth")
	}
	checkEstimate(t, s, hash, 1)
	if !s.Grow(1000, 0) {
		t.Fatal("wider width reported no growth")
	}
	if got := s.Width(); got != 1024 {
		t.Errorf("width after growth: got %d want 1024", got)
	}
	checkEstimate(t, s, hash, 0)
	s.Increment(hash)
	checkEstimate(t, s, hash, 1)
}

func concurrentIncrements(t *testing.T) {
	t.Parallel()
	const (
		workers = 8
		hash    = 1234
	)
	var (
		s  = sketch.New(1024, sketch.MaxCeiling, 0)
		wg sync.WaitGroup
	)
	for range workers {
		wg.Go(func() {
			for range sketch.MaxCeiling {
				s.Increment(hash)
			}
		})
	}
	wg.Wait()
	checkEstimate(t, s, hash, sketch.MaxCeiling)
}

func checkEstimate(tb testing.TB, s *sketch.Sketch, hash uint64, want int) {
	tb.Helper()
	if got := s.Estimate(hash); got != want {
		tb.Fatalf(
			"unexpected estimate for %#x"+
				"\n\tgot: %d"+
				"\n\twant: %d",
			hash, got, want)
	}
}
