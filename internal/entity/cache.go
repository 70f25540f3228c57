package entity

import (
	"sync"
)

// Cache is a concurrent, versioned store of entity states.
//
// It is single-writer by convention: only the upstream sync client applies
// updates. Any number of readers may call Get and Snapshot concurrently.
// All critical sections are short map operations; no lock is ever held
// across I/O.
//
// The generation counter increments on every applied update and never
// moves backwards, so readers can use it to detect staleness and to wait
// for changes (see Updated).
type Cache struct {
	mu      sync.RWMutex
	states  map[string]State
	gen     uint64
	updated chan struct{}
}

// NewCache creates an empty cache at generation zero.
func NewCache() *Cache {
	return &Cache{
		states:  make(map[string]State),
		updated: make(chan struct{}),
	}
}

// Get returns the current state for id.
// The returned state is a deep copy; callers can safely keep or modify it.
func (c *Cache) Get(id string) (State, bool) {
	c.mu.RLock()
	state, ok := c.states[id]
	c.mu.RUnlock()

	if !ok {
		return State{}, false
	}
	return state.Clone(), true
}

// Apply stores an update and returns the resulting generation.
//
// Later-or-equal LastUpdated timestamps win: an update strictly older than
// the stored record for the same id is a no-op and returns the current
// generation unchanged. This makes replayed event deliveries idempotent
// in effect.
//
// On every applied update the previous Updated channel is closed, waking
// any waiter.
func (c *Cache) Apply(update State) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.states[update.ID]; ok {
		if update.LastUpdated.Before(existing.LastUpdated) {
			return c.gen
		}
	}

	c.states[update.ID] = update.Clone()
	c.gen++

	close(c.updated)
	c.updated = make(chan struct{})

	return c.gen
}

// Snapshot returns a copy of every entity state together with the
// generation the copy was taken at.
func (c *Cache) Snapshot() (map[string]State, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]State, len(c.states))
	for id, state := range c.states {
		out[id] = state.Clone()
	}
	return out, c.gen
}

// Generation returns the current generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Updated returns a channel that is closed by the next applied update.
//
// Callers waiting for a state change loop over: read the value of
// interest, grab Updated(), re-check the value, then block on the channel
// (or a timeout). Re-checking after grabbing the channel avoids the race
// where the update lands between the read and the wait.
func (c *Cache) Updated() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updated
}

// Len returns the number of entities in the cache, tombstones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}
