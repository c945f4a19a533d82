// Package buffer provides a striped, bounded, lossy
// multi-producer / single-consumer event buffer.
//
// Producers never block: when the stripe selected for an event is full,
// or a concurrent producer wins the race for the next slot,
// the event is dropped and the caller is told why.
// Draining must be serialized by the caller.
package buffer

import (
	"math/bits"

	"go.uber.org/atomic"
)

// Status is the outcome of [Striped.Offer].
type Status uint8

const (
	// Success means the event was recorded.
	Success Status = iota
	// Failed means the event was dropped after losing a race with another producer.
	Failed
	// Full means the event was dropped because the stripe had no free slot.
	Full
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case Full:
		return "full"
	}
	return "unknown"
}

type (
	// Striped spreads events over power-of-two many rings,
	// selected by the caller-provided hash.
	Striped[Event any] struct {
		rings []ring[Event]
		mask  uint64
	}
	ring[Event any] struct {
		head  atomic.Uint64 // Next slot to read; written only by the consumer.
		tail  atomic.Uint64 // Next slot to claim.
		slots []atomic.Pointer[Event]
		mask  uint64
		_     [40]byte
	}
)

// New creates a buffer of stripes rings holding size events each.
// Both are rounded up to powers of two.
func New[Event any](stripes, size int) *Striped[Event] {
	stripes, size = nextPow2(stripes), nextPow2(size)
	s := &Striped[Event]{
		rings: make([]ring[Event], stripes),
		mask:  uint64(stripes - 1),
	}
	for i := range s.rings {
		s.rings[i].slots = make([]atomic.Pointer[Event], size)
		s.rings[i].mask = uint64(size - 1)
	}
	return s
}

// Offer records event in the stripe selected by hash.
func (s *Striped[Event]) Offer(hash uint64, event *Event) Status {
	return s.rings[(hash>>32)&s.mask].offer(event)
}

// Drain passes every recorded event to consume,
// in per-stripe arrival order.
// Only one goroutine may drain at a time.
func (s *Striped[Event]) Drain(consume func(*Event)) {
	for i := range s.rings {
		s.rings[i].drain(consume)
	}
}

func (r *ring[Event]) offer(event *Event) Status {
	var (
		head = r.head.Load()
		tail = r.tail.Load()
	)
	if tail-head > r.mask {
		return Full
	}
	if !r.tail.CompareAndSwap(tail, tail+1) {
		return Failed
	}
	r.slots[tail&r.mask].Store(event)
	return Success
}

func (r *ring[Event]) drain(consume func(*Event)) {
	var (
		head = r.head.Load()
		tail = r.tail.Load()
	)
	for ; head != tail; head++ {
		slot := &r.slots[head&r.mask]
		event := slot.Load()
		if event == nil {
			// Claimed but not yet published;
			// resume from here on the next drain.
			break
		}
		slot.Store(nil)
		consume(event)
	}
	r.head.Store(head)
}

func nextPow2(x int) int {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(x)-1)
}
