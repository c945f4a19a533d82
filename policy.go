package tinylfu

import (
	"github.com/djdv/go-tinylfu/internal/arena"
	"github.com/djdv/go-tinylfu/internal/sketch"
)

// Segments of the policy store.
const (
	probation arena.List = iota
	protected
	segments
)

// policy orders live entries for eviction.
// It must only be used while holding the cache's maintenance lock.
//
//   - New entries enter at the back (most recently used end) of probation.
//   - An access in probation promotes the entry to the back of protected;
//     if protected then exceeds its share, its front is demoted
//     to the back of probation.
//   - An access in protected moves the entry to the back of protected.
//   - Victims are chosen by [policy.victim].
type policy[Key comparable, Value any] struct {
	nodes        *arena.Arena[*entry[Key, Value]]
	sketch       *sketch.Sketch
	capacity     int
	protectedCap int
	sampleFactor int
}

// initialSketchEntries is how many entries the sketch is first sized for,
// unless the capacity or the initial capacity hint says otherwise.
const initialSketchEntries = 1 << 10

func newPolicy[Key comparable, Value any](capacity int, conf *settings) *policy[Key, Value] {
	var (
		hint    = min(max(conf.initialCapacity, 0), capacity)
		entries = min(capacity, max(hint, initialSketchEntries))
		p       = &policy[Key, Value]{
			nodes:        arena.New[*entry[Key, Value]](int(segments), hint),
			capacity:     capacity,
			protectedCap: int(float64(capacity) * conf.protectedRatio),
			sampleFactor: conf.sampleFactor,
		}
	)
	p.sketch = sketch.New(entries*sketch.Depth, conf.counterCeiling, p.sampleSize(entries))
	return p
}

func (p *policy[Key, Value]) sampleSize(entries int) uint64 {
	return uint64(entries) * uint64(p.sampleFactor)
}

// growSketch widens the sketch once the linked entries outnumber
// what it was sized for. Growth restarts the frequency history.
func (p *policy[Key, Value]) growSketch() {
	linked := p.len()
	if linked*sketch.Depth <= p.sketch.Width() {
		return
	}
	entries := min(p.capacity, 2*linked)
	if p.sketch.Grow(entries*sketch.Depth, p.sampleSize(entries)) {
		logger().Debug("frequency sketch grown",
			"width", p.sketch.Width(),
			"linked", linked)
	}
}

// add links a newly written entry, unless it was already removed
// from the index before its write event got here.
func (p *policy[Key, Value]) add(e *entry[Key, Value]) {
	p.sketch.Increment(e.hash)
	if e.linked() {
		return
	}
	if !e.isAlive() {
		e.markDead()
		return
	}
	e.slot = p.nodes.Alloc(e)
	p.nodes.PushBack(probation, e.slot)
	p.growSketch()
}

// access records a read or a value replacement.
func (p *policy[Key, Value]) access(e *entry[Key, Value]) {
	p.sketch.Increment(e.hash)
	if !e.linked() {
		return // Not yet added, or already removed.
	}
	switch p.nodes.ListOf(e.slot) {
	case probation:
		p.nodes.MoveToBack(protected, e.slot)
		p.demoteOverflow()
	case protected:
		p.nodes.MoveToBack(protected, e.slot)
	}
}

// remove unlinks e, if linked, and marks it dead.
func (p *policy[Key, Value]) remove(e *entry[Key, Value]) {
	if e.linked() {
		p.nodes.Remove(e.slot)
		p.nodes.Free(e.slot)
		e.slot = arena.Nil
	}
	e.markDead()
}

func (p *policy[Key, Value]) demoteOverflow() {
	for p.nodes.Len(protected) > p.protectedCap {
		p.nodes.MoveToBack(probation, p.nodes.Front(protected))
	}
}

// victim picks the entry to evict, or nil if nothing is linked.
//
// The candidate is the front of probation. It is compared with the
// front of protected: only a candidate seen strictly more often survives,
// in which case it is moved to the back of probation
// and the protected entry is returned instead.
func (p *policy[Key, Value]) victim() *entry[Key, Value] {
	var (
		candidate = p.nodes.Front(probation)
		incumbent = p.nodes.Front(protected)
	)
	switch {
	case candidate == arena.Nil && incumbent == arena.Nil:
		return nil
	case candidate == arena.Nil:
		return *p.nodes.Value(incumbent)
	case incumbent == arena.Nil:
		return *p.nodes.Value(candidate)
	}
	var (
		challenger = *p.nodes.Value(candidate)
		defender   = *p.nodes.Value(incumbent)
	)
	if p.sketch.Estimate(challenger.hash) > p.sketch.Estimate(defender.hash) {
		p.nodes.MoveToBack(probation, candidate)
		return defender
	}
	return challenger
}

// len returns the number of linked entries.
func (p *policy[Key, Value]) len() int {
	return p.nodes.Len(probation) + p.nodes.Len(protected)
}

func (p *policy[Key, Value]) overCapacity() bool { return p.len() > p.capacity }

// reset unlinks every entry, marking each dead.
func (p *policy[Key, Value]) reset() {
	for _, l := range []arena.List{probation, protected} {
		for i := range p.nodes.All(l) {
			(*p.nodes.Value(i)).markDeadUnlinked()
		}
	}
	p.nodes.Reset()
}

func (p *policy[Key, Value]) checkInvariants() {
	if !debugging {
		return
	}
	assert(p.nodes.Len(protected) <= p.protectedCap,
		"protected holds %d entries, limit %d", p.nodes.Len(protected), p.protectedCap)
	assert(p.nodes.Allocated() == p.len(),
		"%d slots allocated for %d linked entries", p.nodes.Allocated(), p.len())
	for _, l := range []arena.List{probation, protected} {
		for i := range p.nodes.All(l) {
			e := *p.nodes.Value(i)
			assert(e.slot == i, "entry %v points to slot %d, linked at %d", e.key, e.slot, i)
			assert(e.state.Load() != dead, "dead entry %v still linked", e.key)
		}
	}
}
