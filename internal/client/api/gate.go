package api

import "sync"

type refreshResult struct {
	token string
	err   error
}

// refreshGate serializes token refreshes. The first caller becomes the owner
// and must run the refresh and call completeRefresh; everyone who arrives
// while it runs gets a future that resolves with the owner's result.
type refreshGate struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// tryBeginRefresh registers the caller as a waiter. started is true when the
// caller is the owner.
func (g *refreshGate) tryBeginRefresh() (future <-chan refreshResult, started bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan refreshResult, 1)
	g.waiters = append(g.waiters, ch)
	if g.refreshing {
		return ch, false
	}
	g.refreshing = true
	return ch, true
}

// completeRefresh resolves every pending future and only then reopens the gate.
func (g *refreshGate) completeRefresh(res refreshResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, ch := range g.waiters {
		ch <- res
	}
	g.waiters = nil
	g.refreshing = false
}

func (g *refreshGate) inFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshing
}
