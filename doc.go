// Package tinylfu implements a concurrent, bounded [Cache] using a segmented LRU
// with a TinyLFU admission check.
//
// The cache keeps every hot-path operation to a sharded map lookup plus a
// non-blocking event record. Ordering and eviction work is deferred to a
// maintenance pass that owns the policy structures exclusively, so no lock
// on eviction metadata is ever taken by [Cache.Get], [Cache.Set] or
// [Cache.Invalidate].
//
// The following is a summary intended for maintainers.
//
// Glossary and invariants:
//
//   - Entry
//
//     One key/value mapping plus its policy bookkeeping.
//     An entry is alive while the index maps its key to it, retired once
//     removed from the index, and dead once removed from the policy too.
//
//   - Index
//
//     Shards of locked maps from key to entry. The index is the only
//     authority on whether a key is present.
//
//   - Probation
//
//     Recency list of entries that have not been accessed since they were written.
//
//   - Protected
//
//     Recency list of entries that were accessed again while in probation.
//     Bounded to a share of the capacity; overflow is demoted back to probation.
//
//   - Frequency sketch
//
//     Count-min sketch of 4-bit counters estimating how often a key was seen
//     recently. Counters are halved after a number of increments
//     proportional to the sketch size ("aging"). The sketch starts small and
//     widens as entries are held, up to the size the capacity calls for.
//
//   - Admission check
//
//     On eviction the front of probation (candidate) is compared with the
//     front of protected. The candidate survives only if its estimate is
//     strictly greater; otherwise it is the victim. A scan of keys that are
//     never seen again therefore cannot flush out entries with an access history.
//
//   - Read buffer
//
//     Striped rings recording hits. Lossy: a full or contended stripe drops the
//     event, which only costs eviction quality.
//
//   - Write buffer
//
//     Channel of add, update and remove events. Lossless: a writer facing a full
//     buffer runs maintenance itself and retries.
//
//   - Maintenance pass
//
//     Drains writes, then reads, then evicts until the linked entries fit the
//     capacity. One pass at a time; triggers during a pass cause another.
//
// Counts:
//
//   - [Cache.Len] may exceed the capacity between passes,
//     by at most the number of adds still buffered.
//
//   - After a pass with no concurrent writers, the index and the policy
//     hold exactly the same entries and [Cache.Len] ≤ capacity.
//
// This design follows the W-TinyLFU family of policies described in the
// [TinyLFU paper], reduced to the two-segment main space.
//
// [TinyLFU paper]: https://arxiv.org/abs/1512.00727
package tinylfu
