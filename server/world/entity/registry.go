package entity

import (
	"sync"
	"sync/atomic"

	"github.com/dm-vev/ferrite/server/world/worldid"
	"github.com/google/uuid"
)

// Registry holds every live entity, protected by one reader/writer lock
// that each method holds only for its own duration (Snapshot copies the
// record list and releases it, so a tick step does not hold it); individual Records are each
// guarded by their own finer-grained lock so the visibility pass can
// mutate distinct entities concurrently, per spec.md §5.
type Registry struct {
	mu      sync.RWMutex
	records map[worldid.EntityID]*Record
	nextID  atomic.Int32
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[worldid.EntityID]*Record)}
}

// Allocate reserves the next monotonic entity id.
func (reg *Registry) Allocate() worldid.EntityID {
	return worldid.EntityID(reg.nextID.Add(1))
}

// Add inserts r into the registry under its own ID.
func (reg *Registry) Add(r *Record) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.records[r.ID] = r
}

// Remove deletes the entity by id. A player removed from the registry
// must first be removed from any chunk-loader waiters lists, which is
// the caller's responsibility (the generation.Provider consults
// Contains, not Remove, to decide whether a waiter is still live).
func (reg *Registry) Remove(id worldid.EntityID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.records, id)
}

// Get returns the record for id, or nil if it is not present.
func (reg *Registry) Get(id worldid.EntityID) *Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.records[id]
}

// Contains reports whether id is currently registered; this is the
// liveness check generation.Provider uses before delivering a ready
// chunk to a waiter, per spec.md §4.5.
func (reg *Registry) Contains(id worldid.EntityID) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.records[id]
	return ok
}

// ByUUID returns the record with the given UUID, or nil.
func (reg *Registry) ByUUID(u uuid.UUID) *Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, r := range reg.records {
		if r.UUID == u {
			return r
		}
	}
	return nil
}

// Snapshot returns every currently registered record, a stable view for
// the tick step to iterate without holding the registry lock for the
// whole pass, per spec.md §4.7 "a snapshot over which the tick
// iterates".
func (reg *Registry) Snapshot() []*Record {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Record, 0, len(reg.records))
	for _, r := range reg.records {
		out = append(out, r)
	}
	return out
}

// Len returns the number of registered entities.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.records)
}
