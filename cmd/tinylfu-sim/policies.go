package main

import (
	"maps"
	"slices"

	"github.com/hashicorp/golang-lru/arc/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	metrics "github.com/rcrowley/go-metrics"
	vtinylfu "github.com/vmihailenco/go-tinylfu"

	tinylfu "github.com/djdv/go-tinylfu"
)

type (
	// simCache is the surface every simulated policy exposes.
	// Implementations record their own hits and misses.
	simCache interface {
		Get(key string) bool
		Set(key string)
	}
	// flusher is implemented by policies that evict in the background.
	flusher interface {
		Flush()
	}
	policyCtor = func(capacity int, rec *recorder) (simCache, error)

	// recorder counts cache events into a metrics registry.
	// It is the [tinylfu.StatsRecorder] of the simulated TinyLFU cache.
	// ARC, 2Q and go-tinylfu have no eviction hook; their evictions stay zero.
	recorder struct {
		hits, misses, evictions metrics.Counter
	}

	tinylfuPolicy struct {
		*tinylfu.Cache[string, struct{}]
	}
	arcPolicy struct {
		*arc.ARCCache[string, struct{}]
		rec *recorder
	}
	lruPolicy struct {
		*lru.Cache[string, struct{}]
		rec *recorder
	}
	twoQueuePolicy struct {
		*lru.TwoQueueCache[string, struct{}]
		rec *recorder
	}
	vtinylfuPolicy struct {
		*vtinylfu.SyncT
		rec *recorder
	}
)

var policies = map[string]policyCtor{
	"tinylfu": func(capacity int, rec *recorder) (simCache, error) {
		cache, err := tinylfu.New[string, struct{}](capacity,
			tinylfu.WithStatsRecorder(rec),
		)
		if err != nil {
			return nil, err
		}
		return tinylfuPolicy{cache}, nil
	},
	"arc": func(capacity int, rec *recorder) (simCache, error) {
		cache, err := arc.NewARC[string, struct{}](capacity)
		if err != nil {
			return nil, err
		}
		return arcPolicy{cache, rec}, nil
	},
	"lru": func(capacity int, rec *recorder) (simCache, error) {
		cache, err := lru.NewWithEvict(capacity, func(string, struct{}) {
			rec.RecordEviction()
		})
		if err != nil {
			return nil, err
		}
		return lruPolicy{cache, rec}, nil
	},
	"2q": func(capacity int, rec *recorder) (simCache, error) {
		cache, err := lru.New2Q[string, struct{}](capacity)
		if err != nil {
			return nil, err
		}
		return twoQueuePolicy{cache, rec}, nil
	},
	"go-tinylfu": func(capacity int, rec *recorder) (simCache, error) {
		return vtinylfuPolicy{vtinylfu.NewSync(capacity, capacity*10), rec}, nil
	},
}

func policyNames() []string { return slices.Sorted(maps.Keys(policies)) }

func newRecorder(registry metrics.Registry) *recorder {
	return &recorder{
		hits:      metrics.NewRegisteredCounter("hits", registry),
		misses:    metrics.NewRegisteredCounter("misses", registry),
		evictions: metrics.NewRegisteredCounter("evictions", registry),
	}
}

func (r *recorder) RecordHits(count int)   { r.hits.Inc(int64(count)) }
func (r *recorder) RecordMisses(count int) { r.misses.Inc(int64(count)) }
func (r *recorder) RecordEviction()        { r.evictions.Inc(1) }

// record counts a lookup for policies without their own stats hook.
func (r *recorder) record(hit bool) bool {
	if hit {
		r.RecordHits(1)
	} else {
		r.RecordMisses(1)
	}
	return hit
}

func (p tinylfuPolicy) Get(key string) bool {
	_, ok := p.Cache.Get(key)
	return ok
}

func (p tinylfuPolicy) Set(key string) { p.Cache.Set(key, struct{}{}) }

func (p arcPolicy) Get(key string) bool {
	_, ok := p.ARCCache.Get(key)
	return p.rec.record(ok)
}

func (p arcPolicy) Set(key string) { p.Add(key, struct{}{}) }

func (p lruPolicy) Get(key string) bool {
	_, ok := p.Cache.Get(key)
	return p.rec.record(ok)
}

func (p lruPolicy) Set(key string) { p.Add(key, struct{}{}) }

func (p twoQueuePolicy) Get(key string) bool {
	_, ok := p.TwoQueueCache.Get(key)
	return p.rec.record(ok)
}

func (p twoQueuePolicy) Set(key string) { p.Add(key, struct{}{}) }

func (p vtinylfuPolicy) Get(key string) bool {
	_, ok := p.SyncT.Get(key)
	return p.rec.record(ok)
}

func (p vtinylfuPolicy) Set(key string) {
	p.SyncT.Set(&vtinylfu.Item{Key: key, Value: struct{}{}})
}
