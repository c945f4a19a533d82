package tinylfu

import (
	"go.uber.org/atomic"

	"github.com/djdv/go-tinylfu/internal/arena"
)

// Entry liveness.
//
//   - alive: mapped by the index.
//   - retired: removed from the index; may still be linked into the policy
//     until maintenance processes its removal ("stale" node).
//   - dead: removed from both.
const (
	alive uint32 = iota
	retired
	dead
)

type entry[Key comparable, Value any] struct {
	key  Key
	hash uint64
	// value is guarded by the lock of the shard holding the entry.
	value Value
	state atomic.Uint32
	// slot is owned by maintenance; arena.Nil while unlinked.
	slot arena.Index
}

func newEntry[Key comparable, Value any](key Key, hash uint64, value Value) *entry[Key, Value] {
	return &entry[Key, Value]{
		key:   key,
		hash:  hash,
		value: value,
		slot:  arena.Nil,
	}
}

func (e *entry[_, _]) isAlive() bool { return e.state.Load() == alive }

// retire must be called by the goroutine that removed e from the index,
// while it still holds the shard lock.
func (e *entry[_, _]) retire() { e.state.CompareAndSwap(alive, retired) }

func (e *entry[_, _]) markDead() { e.state.Store(dead) }

// markDeadUnlinked is for entries whose arena storage is being discarded wholesale.
func (e *entry[_, _]) markDeadUnlinked() {
	e.slot = arena.Nil
	e.markDead()
}

func (e *entry[_, _]) linked() bool { return e.slot != arena.Nil }
