package tinylfu

import "fmt"

// RemovalCause tells a [RemovalListener] why a mapping went away.
type RemovalCause uint8

const (
	// Evicted mappings were chosen by the eviction policy
	// because the cache exceeded its capacity.
	Evicted RemovalCause = iota + 1
	// Explicit mappings were removed by [Cache.Invalidate] or [Cache.Clear].
	Explicit
	// Replaced mappings had their value overwritten by [Cache.Set].
	// The listener receives the previous value.
	Replaced
)

func (cause RemovalCause) String() string {
	switch cause {
	case Evicted:
		return "evicted"
	case Explicit:
		return "explicit"
	case Replaced:
		return "replaced"
	}
	return fmt.Sprintf("RemovalCause(%d)", uint8(cause))
}

type (
	// RemovalListener is called with every removed mapping.
	// Calls go through the cache's [Executor] and panics are recovered,
	// so a listener cannot fail the operation that caused the removal.
	RemovalListener[Key comparable, Value any] func(key Key, value Value, cause RemovalCause)
	// StatsRecorder receives cache events from the hot path and from maintenance.
	// Implementations must be safe for concurrent use and must not block.
	StatsRecorder interface {
		RecordHits(count int)
		RecordMisses(count int)
		RecordEviction()
	}
	noopStats    struct{}
	notification[Key comparable, Value any] struct {
		key   Key
		value Value
		cause RemovalCause
	}
)

func (noopStats) RecordHits(int)   {}
func (noopStats) RecordMisses(int) {}
func (noopStats) RecordEviction()  {}

// notify hands notes to the listener, if any, through the executor.
func (c *Cache[Key, Value]) notify(notes ...notification[Key, Value]) {
	if c.listener == nil || len(notes) == 0 {
		return
	}
	listener := c.listener
	c.executor(func() {
		for _, note := range notes {
			deliver(listener, note)
		}
	})
}

func deliver[Key comparable, Value any](listener RemovalListener[Key, Value], note notification[Key, Value]) {
	defer func() {
		if r := recover(); r != nil {
			logger().Warn("removal listener panicked",
				"key", note.key,
				"cause", note.cause.String(),
				"panic", r)
		}
	}()
	listener(note.key, note.value, note.cause)
}
