// Package entity provides the in-memory mirror of upstream entity states.
//
// The Cache is the single source of truth every other component reads:
// the upstream sync client is its only writer, the status view builder and
// command dispatcher are its readers.
//
// # Key Types
//
//   - State: One entity's current state, replaced atomically on update
//   - Value: Discriminated union over on/off, numeric, string and
//     composite states, with a tombstone kind for removed entities
//   - Cache: Concurrent map of entity id to State with a monotonically
//     increasing generation counter
//
// # Consistency
//
// Every applied update bumps the generation. Readers never observe the
// generation move backwards, and an update carrying a last_updated
// timestamp strictly older than the stored record is a no-op, which makes
// replayed or out-of-order event deliveries safe.
//
// Entities are never evicted: a removal upstream becomes a tombstone state
// so that stale reads fail predictably instead of panicking on a missing key.
//
// # Usage
//
//	cache := entity.NewCache()
//	gen := cache.Apply(entity.State{ID: "light.kitchen", ...})
//	state, ok := cache.Get("light.kitchen")
//	snapshot, gen := cache.Snapshot()
package entity
