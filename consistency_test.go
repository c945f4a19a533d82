package tinylfu

import (
	"github.com/onsi/gomega"

	"github.com/djdv/go-tinylfu/internal/arena"
)

// expectConsistent flushes c and checks that the index
// and the policy hold exactly the same live entries.
// Writers must be quiescent.
func expectConsistent[Key comparable, Value any](g gomega.Gomega, c *Cache[Key, Value]) {
	c.Flush()
	c.maintenanceMu.Lock()
	defer c.maintenanceMu.Unlock()
	linked := make(map[*entry[Key, Value]]struct{}, c.policy.len())
	for _, list := range []arena.List{probation, protected} {
		for slot := range c.policy.nodes.All(list) {
			e := *c.policy.nodes.Value(slot)
			g.Expect(e.slot).To(gomega.Equal(slot),
				"entry %v does not point back to its node", e.key)
			g.Expect(e.isAlive()).To(gomega.BeTrue(),
				"stale entry %v is still linked", e.key)
			linked[e] = struct{}{}
		}
	}
	var mapped int
	for e := range c.index.all() {
		mapped++
		g.Expect(linked).To(gomega.HaveKey(e),
			"mapped entry %v is not linked", e.key)
	}
	g.Expect(mapped).To(gomega.Equal(len(linked)))
	g.Expect(c.policy.nodes.Allocated()).To(gomega.Equal(len(linked)))
	g.Expect(c.Len()).To(gomega.Equal(mapped))
	g.Expect(mapped).To(gomega.BeNumerically("<=", c.capacity))
	g.Expect(c.policy.nodes.Len(protected)).To(
		gomega.BeNumerically("<=", c.policy.protectedCap))
}
