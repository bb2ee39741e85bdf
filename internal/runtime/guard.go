package runtime

import "sync"

// Guard is the read-write barrier between forward steps and parameter
// updates. Steps hold the read side for the duration of one step; an update
// holds the write side, so it never overlaps a step that reads parameters.
type Guard struct {
	mu sync.RWMutex
}

// Read runs fn while holding the read side.
func (g *Guard) Read(fn func() error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn()
}

// Write runs fn with exclusive access.
func (g *Guard) Write(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
