package trading

import "sync"

// saleGuard tracks holdings whose sale is awaiting price confirmation from
// the remote feed. A holding id is acquired synchronously before the price
// fetch starts and released regardless of outcome, so at most one sell per
// holding can be in flight at a time.
type saleGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newSaleGuard() *saleGuard {
	return &saleGuard{inFlight: make(map[string]struct{})}
}

// acquire marks the holding as in flight. It reports false if a sale for
// the holding is already pending.
func (g *saleGuard) acquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inFlight[id]; ok {
		return false
	}
	g.inFlight[id] = struct{}{}
	return true
}

func (g *saleGuard) release(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, id)
}
