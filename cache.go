package tinylfu

import (
	"hash/maphash"
	"iter"
	"sync"

	"go.uber.org/atomic"

	"github.com/djdv/go-tinylfu/internal/buffer"
)

// Cache is a bounded map that evicts with a segmented LRU
// guarded by a TinyLFU admission check.
// It is safe for concurrent use.
// Constructed by [New].
type Cache[Key comparable, Value any] struct {
	index  *index[Key, Value]
	reads  *buffer.Striped[entry[Key, Value]]
	writes chan writeEvent[Key, Value]
	seed   maphash.Seed
	count  atomic.Int64
	status atomic.Uint32

	// maintenanceMu guards policy and pending.
	maintenanceMu sync.Mutex
	policy        *policy[Key, Value]
	pending       []notification[Key, Value]

	executor       Executor
	listener       RemovalListener[Key, Value]
	stats          StatsRecorder
	capacity       int
	drainThreshold int
}

// MinimumCapacity defines the lowest value supported by [New].
const MinimumCapacity = 1

// New creates a [Cache] holding at most capacity entries
// once maintenance has caught up.
func New[Key comparable, Value any](capacity int, options ...Option) (*Cache[Key, Value], error) {
	if capacity < MinimumCapacity {
		return nil, minCapacityError(capacity)
	}
	conf := defaultSettings()
	for _, option := range options {
		if err := option(&conf); err != nil {
			return nil, err
		}
	}
	var listener RemovalListener[Key, Value]
	if conf.listener != nil {
		typed, ok := conf.listener.(RemovalListener[Key, Value])
		if !ok {
			return nil, optionError("removal listener",
				"%T does not match the cache's key and value types", conf.listener)
		}
		listener = typed
	}
	return &Cache[Key, Value]{
		index:          newIndex[Key, Value](conf.shards, min(conf.initialCapacity, capacity)),
		reads:          buffer.New[entry[Key, Value]](conf.shards, conf.readBufferSize),
		writes:         make(chan writeEvent[Key, Value], conf.writeBufferSize),
		seed:           maphash.MakeSeed(),
		policy:         newPolicy[Key, Value](capacity, &conf),
		executor:       conf.executor,
		listener:       listener,
		stats:          conf.stats,
		capacity:       capacity,
		drainThreshold: min(conf.drainThreshold, conf.writeBufferSize),
	}, nil
}

// Get returns the value mapped to key and records the access;
// otherwise it returns the zero value and false.
func (c *Cache[Key, Value]) Get(key Key) (Value, bool) {
	e, value, ok := c.index.get(c.hash(key), key)
	if !ok {
		c.stats.RecordMisses(1)
		return value, false
	}
	c.stats.RecordHits(1)
	c.afterRead(e)
	return value, true
}

// Set maps key to value and returns the value it replaced, if any.
// The new mapping is visible to Get immediately;
// eviction to make room for it happens during maintenance.
func (c *Cache[Key, Value]) Set(key Key, value Value) (previous Value, replaced bool) {
	e, previous, replaced := c.index.put(c.hash(key), key, value)
	if replaced {
		c.afterWrite(writeEvent[Key, Value]{e, updateWrite})
		c.notify(notification[Key, Value]{key, previous, Replaced})
		return previous, true
	}
	c.count.Inc()
	c.afterWrite(writeEvent[Key, Value]{e, addWrite})
	return previous, false
}

// Invalidate removes the mapping for key and returns the removed value, if any.
func (c *Cache[Key, Value]) Invalidate(key Key) (removed Value, found bool) {
	e, removed, found := c.index.remove(c.hash(key), key)
	if !found {
		return removed, false
	}
	c.count.Dec()
	c.afterWrite(writeEvent[Key, Value]{e, removeWrite})
	c.notify(notification[Key, Value]{key, removed, Explicit})
	return removed, true
}

// Len returns the number of mapped entries.
// Between maintenance passes it may briefly exceed the capacity.
func (c *Cache[Key, Value]) Len() int {
	return int(max(c.count.Load(), 0))
}

// Capacity returns the maximum number of entries
// the cache settles to after maintenance.
func (c *Cache[Key, Value]) Capacity() int { return c.capacity }

// Keys returns an iterator over the (unordered) mapped keys.
// Keys added or removed during iteration may or may not be observed.
func (c *Cache[Key, Value]) Keys() iter.Seq[Key] { return c.index.keys() }

// Flush runs a maintenance pass on the calling goroutine:
// buffered events are applied and entries are evicted
// until the cache fits its capacity.
func (c *Cache[Key, Value]) Flush() { c.maintain() }

// Clear removes every mapping.
func (c *Cache[Key, Value]) Clear() {
	c.maintenanceMu.Lock()
	c.drainWrites()
	removed := c.index.clear()
	c.count.Sub(int64(len(removed)))
	c.policy.reset()
	c.reads.Drain(func(*entry[Key, Value]) {})
	notes := c.takePending()
	c.maintenanceMu.Unlock()
	if c.listener != nil {
		c.notify(append(notes, removed...)...)
	}
}

func (c *Cache[Key, Value]) hash(key Key) uint64 {
	return maphash.Comparable(c.seed, key)
}
