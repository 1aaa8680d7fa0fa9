package api

import (
	"golang.org/x/sync/semaphore"

	"github.com/iceiceblakey1/atelier/internal/routes"
)

// featureGate enforces one in-flight generation per feature. Concurrent
// requests for the same feature are rejected rather than queued so a stuck
// stream cannot pile up work behind it.
type featureGate struct {
	sems map[routes.Feature]*semaphore.Weighted
}

func newFeatureGate() *featureGate {
	g := &featureGate{sems: make(map[routes.Feature]*semaphore.Weighted)}
	for _, f := range routes.Features() {
		g.sems[f] = semaphore.NewWeighted(1)
	}
	return g
}

// tryAcquire claims the feature's slot without blocking. The returned
// release func must be called exactly once when ok is true.
func (g *featureGate) tryAcquire(f routes.Feature) (release func(), ok bool) {
	sem, found := g.sems[f]
	if !found {
		return func() {}, true
	}
	if !sem.TryAcquire(1) {
		return nil, false
	}
	return func() { sem.Release(1) }, true
}
