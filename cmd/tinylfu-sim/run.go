package main

import (
	"context"
	"log/slog"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"golang.org/x/sync/errgroup"
)

type result struct {
	policy                  string
	hits, misses, evictions int64
	elapsed                 time.Duration
}

func (r result) hitRatio() float64 {
	total := r.hits + r.misses
	if total == 0 {
		return 0
	}
	return float64(r.hits) / float64(total)
}

// checkEvery is how many accesses a worker replays between
// checks for cancellation.
const checkEvery = 1 << 12

// simulate replays trace through the named policy. Worker w replays
// every access whose position modulo workers is w, in trace order.
// A miss inserts the key.
func simulate(ctx context.Context, name string, conf *Config, trace []string, registry metrics.Registry) (result, error) {
	var (
		child = metrics.NewPrefixedChildRegistry(registry, name+".")
		rec   = newRecorder(child)
		timer = metrics.NewRegisteredTimer("replay", child)
	)
	cache, err := policies[name](conf.Capacity, rec)
	if err != nil {
		return result{}, err
	}
	group, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for worker := range conf.Workers {
		group.Go(func() error {
			for n, i := 0, worker; i < len(trace); n, i = n+1, i+conf.Workers {
				if n%checkEvery == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if key := trace[i]; !cache.Get(key) {
					cache.Set(key)
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result{}, err
	}
	if f, ok := cache.(flusher); ok {
		f.Flush()
	}
	timer.UpdateSince(start)
	res := result{
		policy:    name,
		hits:      rec.hits.Count(),
		misses:    rec.misses.Count(),
		evictions: rec.evictions.Count(),
		elapsed:   time.Since(start),
	}
	slog.Info("simulated",
		"policy", res.policy,
		"hit_ratio", res.hitRatio(),
		"hits", res.hits,
		"misses", res.misses,
		"evictions", res.evictions,
		"elapsed", res.elapsed)
	return res, nil
}
