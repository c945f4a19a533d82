package tinylfu

import (
	"iter"
	"sync"
)

type (
	// index maps keys to their live entries.
	// It is split into shards that lock independently,
	// so operations on unrelated keys rarely contend.
	index[Key comparable, Value any] struct {
		shards []shard[Key, Value]
		mask   uint64
	}
	shard[Key comparable, Value any] struct {
		sync.RWMutex
		entries map[Key]*entry[Key, Value]
		_       [32]byte
	}
)

func newIndex[Key comparable, Value any](shards, hint int) *index[Key, Value] {
	perShard := hint / shards
	ix := &index[Key, Value]{
		shards: make([]shard[Key, Value], shards),
		mask:   uint64(shards - 1),
	}
	for i := range ix.shards {
		ix.shards[i].entries = make(map[Key]*entry[Key, Value], perShard)
	}
	return ix
}

// shardFor uses the top 16 hash bits, enough for [MaxShards].
func (ix *index[Key, Value]) shardFor(hash uint64) *shard[Key, Value] {
	return &ix.shards[(hash>>48)&ix.mask]
}

func (ix *index[Key, Value]) get(hash uint64, key Key) (*entry[Key, Value], Value, bool) {
	s := ix.shardFor(hash)
	s.RLock()
	defer s.RUnlock()
	if e, ok := s.entries[key]; ok {
		return e, e.value, true
	}
	var zero Value
	return nil, zero, false
}

// put maps key to value. If key was mapped, the existing entry
// keeps its identity and only its value changes.
func (ix *index[Key, Value]) put(hash uint64, key Key, value Value) (e *entry[Key, Value], previous Value, replaced bool) {
	s := ix.shardFor(hash)
	s.Lock()
	defer s.Unlock()
	if e, ok := s.entries[key]; ok {
		previous, e.value = e.value, value
		return e, previous, true
	}
	e = newEntry(key, hash, value)
	s.entries[key] = e
	return e, previous, false
}

func (ix *index[Key, Value]) remove(hash uint64, key Key) (*entry[Key, Value], Value, bool) {
	s := ix.shardFor(hash)
	s.Lock()
	defer s.Unlock()
	if e, ok := s.entries[key]; ok {
		delete(s.entries, key)
		e.retire()
		return e, e.value, true
	}
	var zero Value
	return nil, zero, false
}

// removeEntry removes e only if its key still maps to it,
// returning the value it held.
func (ix *index[Key, Value]) removeEntry(e *entry[Key, Value]) (Value, bool) {
	s := ix.shardFor(e.hash)
	s.Lock()
	defer s.Unlock()
	if current, ok := s.entries[e.key]; ok && current == e {
		delete(s.entries, e.key)
		e.retire()
		return e.value, true
	}
	var zero Value
	return zero, false
}

// clear empties every shard and returns the entries that were mapped,
// each already retired.
func (ix *index[Key, Value]) clear() []notification[Key, Value] {
	var removed []notification[Key, Value]
	for i := range ix.shards {
		s := &ix.shards[i]
		s.Lock()
		for key, e := range s.entries {
			e.retire()
			removed = append(removed, notification[Key, Value]{key, e.value, Explicit})
		}
		clear(s.entries)
		s.Unlock()
	}
	return removed
}

// keys yields every mapped key. Keys are copied out one shard at a time,
// so yield may call back into the cache.
func (ix *index[Key, Value]) keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		var batch []Key
		for i := range ix.shards {
			batch = batch[:0]
			ix.shards[i].each(func(e *entry[Key, Value]) bool {
				batch = append(batch, e.key)
				return true
			})
			for _, key := range batch {
				if !yield(key) {
					return
				}
			}
		}
	}
}

// all yields every mapped entry while holding each shard's read lock.
func (ix *index[Key, Value]) all() iter.Seq[*entry[Key, Value]] {
	return func(yield func(*entry[Key, Value]) bool) {
		for i := range ix.shards {
			if !ix.shards[i].each(yield) {
				return
			}
		}
	}
}

func (s *shard[Key, Value]) each(yield func(*entry[Key, Value]) bool) bool {
	s.RLock()
	defer s.RUnlock()
	for _, e := range s.entries {
		if !yield(e) {
			return false
		}
	}
	return true
}
