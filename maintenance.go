package tinylfu

import "github.com/djdv/go-tinylfu/internal/buffer"

// Drain status.
//
// Triggers move idle to required and hand a pass to the executor.
// A running pass holds processingToIdle; a trigger arriving meanwhile
// moves it to processingToRequired, which makes the pass run again
// instead of returning to idle.
const (
	idle uint32 = iota
	required
	processingToIdle
	processingToRequired
)

type (
	writeKind  uint8
	writeEvent[Key comparable, Value any] struct {
		entry *entry[Key, Value]
		kind  writeKind
	}
)

const (
	addWrite writeKind = iota
	updateWrite
	removeWrite
)

// afterRead records a hit. The event is dropped if its stripe is contended
// or full; a full stripe schedules a pass.
func (c *Cache[Key, Value]) afterRead(e *entry[Key, Value]) {
	if c.reads.Offer(e.hash, e) == buffer.Full {
		c.scheduleDrain()
	}
}

// afterWrite records a write event. Write events are never dropped:
// when the buffer is full the caller drains it and retries.
func (c *Cache[Key, Value]) afterWrite(event writeEvent[Key, Value]) {
	for {
		select {
		case c.writes <- event:
			if len(c.writes) >= c.drainThreshold ||
				c.count.Load() > int64(c.capacity) {
				c.scheduleDrain()
			}
			return
		default:
			logger().Debug("write buffer full, draining synchronously",
				"pending", len(c.writes))
			c.Flush()
		}
	}
}

func (c *Cache[Key, Value]) scheduleDrain() {
	for {
		switch c.status.Load() {
		case idle:
			if c.status.CompareAndSwap(idle, required) {
				c.executor(c.maintain)
				return
			}
		case required, processingToRequired:
			return
		case processingToIdle:
			if c.status.CompareAndSwap(processingToIdle, processingToRequired) {
				return
			}
		}
	}
}

// maintain runs passes until no trigger is outstanding, then delivers
// the removal notifications they produced.
func (c *Cache[Key, Value]) maintain() {
	c.maintenanceMu.Lock()
	c.maintainLocked()
	notes := c.takePending()
	c.maintenanceMu.Unlock()
	c.notify(notes...)
}

func (c *Cache[Key, Value]) maintainLocked() {
	for {
		c.status.Store(processingToIdle)
		var (
			writes = c.drainWrites()
			reads  = c.drainReads()
			evicts = c.evict()
		)
		c.policy.checkInvariants()
		if writes+reads+evicts > 0 {
			logger().Debug("maintenance pass",
				"writes", writes,
				"reads", reads,
				"evictions", evicts,
				"linked", c.policy.len())
		}
		if c.status.CompareAndSwap(processingToIdle, idle) {
			return
		}
	}
}

// drainWrites applies at most one buffer's worth of write events,
// so a pass ends even while writers keep producing.
func (c *Cache[Key, Value]) drainWrites() (applied int) {
	for range cap(c.writes) {
		select {
		case event := <-c.writes:
			c.applyWrite(event)
			applied++
		default:
			return applied
		}
	}
	return applied
}

func (c *Cache[Key, Value]) applyWrite(event writeEvent[Key, Value]) {
	switch event.kind {
	case addWrite:
		c.policy.add(event.entry)
	case updateWrite:
		c.policy.access(event.entry)
	case removeWrite:
		c.policy.remove(event.entry)
	}
}

func (c *Cache[Key, Value]) drainReads() (applied int) {
	c.reads.Drain(func(e *entry[Key, Value]) {
		c.policy.access(e)
		applied++
	})
	return applied
}

// evict removes victims until the linked entries fit the capacity.
// Victims that were already removed from the index (stale nodes)
// are only unlinked.
func (c *Cache[Key, Value]) evict() (evicted int) {
	for c.policy.overCapacity() {
		victim := c.policy.victim()
		if victim == nil {
			break
		}
		c.policy.remove(victim)
		value, removed := c.index.removeEntry(victim)
		if !removed {
			continue
		}
		c.count.Dec()
		c.stats.RecordEviction()
		if c.listener != nil {
			c.pending = append(c.pending,
				notification[Key, Value]{victim.key, value, Evicted})
		}
		evicted++
	}
	return evicted
}

func (c *Cache[Key, Value]) takePending() []notification[Key, Value] {
	if len(c.pending) == 0 {
		return nil
	}
	notes := c.pending
	c.pending = nil
	return notes
}
