package tinylfu

import (
	"fmt"
	"math/rand"

	fuzz "github.com/google/gofuzz"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

type fuzzedOp struct {
	Kind  uint8
	Key   uint16
	Nonce uint16
}

// Values carry their key in the high bits,
// so a read can tell if it got another key's value.
const valueShift = 16

type tally struct {
	inserted, replaced                   atomic.Int64
	replacedNotes, explicitNotes, evicts atomic.Int64
}

func (t *tally) listen(_ int, _ int, cause RemovalCause) {
	switch cause {
	case Replaced:
		t.replacedNotes.Inc()
	case Explicit:
		t.explicitNotes.Inc()
	case Evicted:
		t.evicts.Inc()
	}
}

var _ = Describe("Cache", func() {
	const (
		capacity     = 64
		keySpace     = capacity * 4
		workers      = 8
		opsPerWorker = 4000
	)
	var streams [][]fuzzedOp

	BeforeEach(func() {
		f := fuzz.New().
			RandSource(rand.NewSource(GinkgoRandomSeed())).
			NilChance(0).
			NumElements(opsPerWorker, opsPerWorker)
		streams = make([][]fuzzedOp, workers)
		for i := range streams {
			f.Fuzz(&streams[i])
		}
	})

	replay := func(c *Cache[int, int], counts *tally) {
		var group errgroup.Group
		for _, stream := range streams {
			group.Go(func() error {
				for _, op := range stream {
					key := int(op.Key) % keySpace
					switch kind := op.Kind % 32; {
					case kind == 0:
						c.Clear()
					case kind < 16:
						value, ok := c.Get(key)
						if ok && value>>valueShift != key {
							return fmt.Errorf("key %d mapped to a value of key %d",
								key, value>>valueShift)
						}
					case kind < 26:
						if _, replaced := c.Set(key, key<<valueShift|int(op.Nonce)); replaced {
							counts.replaced.Inc()
						} else {
							counts.inserted.Inc()
						}
					default:
						c.Invalidate(key)
					}
				}
				return nil
			})
		}
		var (
			done = make(chan struct{})
			err  error
		)
		go func() {
			err = group.Wait()
			close(done)
		}()
		Eventually(done, "30s").Should(BeClosed(), "workers did not finish")
		Expect(err).NotTo(HaveOccurred())
	}

	for _, mode := range []struct {
		name   string
		inline bool
	}{
		{"background", false},
		{"inline", true},
	} {
		Context("with "+mode.name+" maintenance", func() {
			var (
				c      *Cache[int, int]
				counts *tally
			)
			BeforeEach(func() {
				counts = new(tally)
				options := []Option{
					WithReadBufferSize(4),
					WithWriteBufferSize(32),
					WithRemovalListener[int, int](counts.listen),
				}
				if mode.inline {
					options = append(options, WithExecutor(func(task func()) { task() }))
				}
				var err error
				c, err = New[int, int](capacity, options...)
				Expect(err).NotTo(HaveOccurred())
			})

			It("keeps the index and the policy in agreement", func() {
				replay(c, counts)
				expectConsistent(Default, c)
			})

			It("recovers after being cleared", func() {
				replay(c, counts)
				c.Clear()
				expectConsistent(Default, c)
				Expect(c.Len()).To(BeZero())
				for key := range capacity * 2 {
					c.Set(key, key<<valueShift)
				}
				expectConsistent(Default, c)
				Expect(c.Len()).To(Equal(capacity))
			})

			if mode.inline {
				It("reports every removed mapping exactly once", func() {
					replay(c, counts)
					expectConsistent(Default, c)
					Expect(counts.replacedNotes.Load()).To(Equal(counts.replaced.Load()))
					Expect(counts.inserted.Load()).To(Equal(
						counts.explicitNotes.Load() + counts.evicts.Load() + int64(c.Len()),
					))
				})
			}
		})
	}
})
