// Package arena is an index-addressed adaption of `container/list`
// for the segmented recency lists of the eviction policy.
//
// Elements live in a single slice and refer to each other by [Index]
// rather than by pointer. Every list is circular around its own sentinel
// slot, so linking never needs nil checks. Freed slots are kept on a free
// list and reused by later allocations instead of shrinking the slice.
package arena

import "iter"

type (
	// Index addresses a slot of an [Arena].
	// Indices remain stable for as long as the slot is allocated.
	Index int32
	// List identifies one of the lists created by [New].
	List uint8
	slot[Value any] struct {
		Value      Value
		prev, next Index
		list       List
		used       bool
	}
	// Arena holds a fixed number of circular lists
	// whose elements are allocated from a shared slot slice.
	// It is not safe for concurrent use.
	Arena[Value any] struct {
		slots  []slot[Value]
		free   []Index
		counts []int
	}
)

// Nil is the index of no element.
const Nil Index = -1

// New creates an [Arena] with the given number of lists.
// The hint pre-sizes slot storage.
func New[Value any](lists int, hint int) *Arena[Value] {
	if lists < 1 {
		panic("arena: at least one list is required")
	}
	a := &Arena[Value]{
		slots:  make([]slot[Value], lists, lists+max(hint, 0)),
		counts: make([]int, lists),
	}
	// Slots [0, lists) are the sentinels.
	for i := range lists {
		sentinel := Index(i)
		a.slots[i] = slot[Value]{
			prev: sentinel,
			next: sentinel,
			list: List(i),
			used: true,
		}
	}
	return a
}

// Alloc returns a detached slot holding value.
func (a *Arena[Value]) Alloc(value Value) Index {
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[i] = slot[Value]{Value: value, prev: Nil, next: Nil, used: true}
		return i
	}
	a.slots = append(a.slots, slot[Value]{Value: value, prev: Nil, next: Nil, used: true})
	return Index(len(a.slots) - 1)
}

// Free releases a detached slot for reuse.
// The stored value is zeroed so it can be collected.
func (a *Arena[Value]) Free(i Index) {
	s := &a.slots[i]
	if !s.used || a.isSentinel(i) {
		panic("arena: free of an unallocated slot")
	}
	if s.prev != Nil {
		panic("arena: free of a linked slot")
	}
	*s = slot[Value]{prev: Nil, next: Nil}
	a.free = append(a.free, i)
}

// PushBack links the detached slot i at the back of list l.
func (a *Arena[Value]) PushBack(l List, i Index) {
	sentinel := Index(l)
	a.link(a.slots[sentinel].prev, i, sentinel)
	a.slots[i].list = l
	a.counts[l]++
}

// MoveToBack unlinks i from whatever list holds it
// and links it at the back of list l.
func (a *Arena[Value]) MoveToBack(l List, i Index) {
	a.Remove(i)
	a.PushBack(l, i)
}

// Remove unlinks i from its list. The slot stays allocated.
// Removing a detached slot is a no-op.
func (a *Arena[Value]) Remove(i Index) {
	s := &a.slots[i]
	if s.prev == Nil {
		return
	}
	a.slots[s.prev].next = s.next
	a.slots[s.next].prev = s.prev
	a.counts[s.list]--
	s.prev, s.next = Nil, Nil
}

// Front returns the first (least recently pushed) element of l,
// or [Nil] if l is empty.
func (a *Arena[Value]) Front(l List) Index {
	if first := a.slots[l].next; first != Index(l) {
		return first
	}
	return Nil
}

// Next returns the element after i in its list, or [Nil] at the end.
func (a *Arena[Value]) Next(i Index) Index {
	s := &a.slots[i]
	if s.next == Nil || s.next == Index(s.list) {
		return Nil
	}
	return s.next
}

// ListOf reports which list i is linked into.
// The result is only meaningful while i is linked.
func (a *Arena[Value]) ListOf(i Index) List { return a.slots[i].list }

// Value returns a pointer to the value stored in slot i.
func (a *Arena[Value]) Value(i Index) *Value { return &a.slots[i].Value }

// Len returns the number of elements linked into l.
func (a *Arena[Value]) Len(l List) int { return a.counts[l] }

// Allocated returns the number of slots currently in use,
// excluding sentinels.
func (a *Arena[Value]) Allocated() int {
	return len(a.slots) - len(a.counts) - len(a.free)
}

// All returns an iterator over the elements of l, front to back.
// The behavior is undefined if l is modified during iteration.
func (a *Arena[Value]) All(l List) iter.Seq[Index] {
	return func(yield func(Index) bool) {
		for i := a.Front(l); i != Nil; i = a.Next(i) {
			if !yield(i) {
				return
			}
		}
	}
}

// Reset unlinks and frees every element while keeping the slot storage.
func (a *Arena[Value]) Reset() {
	lists := len(a.counts)
	clear(a.slots[lists:])
	a.slots = a.slots[:lists]
	a.free = a.free[:0]
	for i := range lists {
		sentinel := Index(i)
		a.slots[i].prev, a.slots[i].next = sentinel, sentinel
		a.counts[i] = 0
	}
}

// link connects prev <-> i <-> next.
func (a *Arena[Value]) link(prev, i, next Index) {
	a.slots[prev].next = i
	a.slots[i].prev = prev
	a.slots[i].next = next
	a.slots[next].prev = i
}

func (a *Arena[Value]) isSentinel(i Index) bool { return int(i) < len(a.counts) }
