package tinylfu

import (
	"math/bits"
	"runtime"

	"github.com/djdv/go-tinylfu/internal/sketch"
)

type (
	// Option configures a [Cache] constructed by [New].
	Option func(*settings) error
	// Executor runs maintenance passes and removal notifications.
	// The default starts a goroutine per task.
	Executor func(task func())
	settings struct {
		executor        Executor
		listener        any
		stats           StatsRecorder
		initialCapacity int
		shards          int
		protectedRatio  float64
		counterCeiling  uint8
		sampleFactor    int
		readBufferSize  int
		writeBufferSize int
		drainThreshold  int
	}
)

// Defaults for the tuning options.
const (
	DefaultProtectedRatio  = 0.8
	DefaultCounterCeiling  = sketch.MaxCeiling
	DefaultSampleFactor    = 10
	DefaultReadBufferSize  = 16
	DefaultWriteBufferSize = 1024
	DefaultDrainThreshold  = 64
)

func defaultSettings() settings {
	return settings{
		executor:        func(task func()) { go task() },
		stats:           noopStats{},
		shards:          min(nextPow2(4*runtime.GOMAXPROCS(0)), MaxShards),
		protectedRatio:  DefaultProtectedRatio,
		counterCeiling:  DefaultCounterCeiling,
		sampleFactor:    DefaultSampleFactor,
		readBufferSize:  DefaultReadBufferSize,
		writeBufferSize: DefaultWriteBufferSize,
		drainThreshold:  DefaultDrainThreshold,
	}
}

// WithInitialCapacity pre-sizes the index and policy storage
// for about hint entries.
func WithInitialCapacity(hint int) Option {
	return func(s *settings) error {
		if hint < 1 {
			return optionError("initial capacity", "must be positive but %d was requested", hint)
		}
		s.initialCapacity = hint
		return nil
	}
}

// MaxShards is the largest count accepted by [WithShards].
// Shards are selected by 16 bits of the key's hash.
const MaxShards = 1 << 16

// WithShards sets how many independently locked partitions the index uses.
// The count must be a power of two, at most [MaxShards].
func WithShards(count int) Option {
	return func(s *settings) error {
		if count < 1 || count > MaxShards || count&(count-1) != 0 {
			return optionError("shards", "must be a power of two up to %d but %d was requested",
				MaxShards, count)
		}
		s.shards = count
		return nil
	}
}

// WithProtectedRatio sets the share of the capacity reserved
// for entries that were accessed again after admission.
func WithProtectedRatio(ratio float64) Option {
	return func(s *settings) error {
		if !(ratio > 0 && ratio < 1) {
			return optionError("protected ratio", "must be in (0,1) but %v was requested", ratio)
		}
		s.protectedRatio = ratio
		return nil
	}
}

// WithCounterCeiling sets the value at which frequency counters saturate.
func WithCounterCeiling(ceiling int) Option {
	return func(s *settings) error {
		if ceiling < 1 || ceiling > sketch.MaxCeiling {
			return optionError("counter ceiling", "must be in [1,%d] but %d was requested",
				sketch.MaxCeiling, ceiling)
		}
		s.counterCeiling = uint8(ceiling)
		return nil
	}
}

// WithSampleFactor sets the aging interval of the frequency sketch
// to factor times the entries it is sized for, in recorded accesses.
// The sketch is sized for the capacity once that many entries are held.
func WithSampleFactor(factor int) Option {
	return func(s *settings) error {
		if factor < 1 {
			return optionError("sample factor", "must be positive but %d was requested", factor)
		}
		s.sampleFactor = factor
		return nil
	}
}

// WithReadBufferSize sets how many read events each read buffer stripe holds.
// The size must be a power of two.
func WithReadBufferSize(size int) Option {
	return func(s *settings) error {
		if size < 1 || size&(size-1) != 0 {
			return optionError("read buffer size", "must be a power of two but %d was requested", size)
		}
		s.readBufferSize = size
		return nil
	}
}

// WithWriteBufferSize sets how many write events may be pending
// before writers start draining synchronously.
func WithWriteBufferSize(size int) Option {
	return func(s *settings) error {
		if size < 1 {
			return optionError("write buffer size", "must be positive but %d was requested", size)
		}
		s.writeBufferSize = size
		return nil
	}
}

// WithDrainThreshold sets how many pending write events
// schedule a maintenance pass.
func WithDrainThreshold(events int) Option {
	return func(s *settings) error {
		if events < 1 {
			return optionError("drain threshold", "must be positive but %d was requested", events)
		}
		s.drainThreshold = events
		return nil
	}
}

// WithExecutor sets where maintenance passes and removal notifications run.
// An executor that calls task directly makes every pass synchronous
// with the operation that triggered it.
func WithExecutor(executor Executor) Option {
	return func(s *settings) error {
		if executor == nil {
			return optionError("executor", "must not be nil")
		}
		s.executor = executor
		return nil
	}
}

// WithRemovalListener registers listener to be told about every
// removed mapping. Its key and value types must match the cache's.
func WithRemovalListener[Key comparable, Value any](listener RemovalListener[Key, Value]) Option {
	return func(s *settings) error {
		if listener == nil {
			return optionError("removal listener", "must not be nil")
		}
		s.listener = listener
		return nil
	}
}

// WithStatsRecorder registers recorder to be told about
// hits, misses and evictions.
func WithStatsRecorder(recorder StatsRecorder) Option {
	return func(s *settings) error {
		if recorder == nil {
			return optionError("stats recorder", "must not be nil")
		}
		s.stats = recorder
		return nil
	}
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x)-1)
}
