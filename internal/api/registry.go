package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/graph"
)

// DefaultGraphTTL is how long an uploaded graph stays resident before
// the janitor reclaims it.
const DefaultGraphTTL = time.Hour

// entry pairs a stored graph with its expiry deadline.
type entry struct {
	graph     *graph.Graph
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Registry holds uploaded graphs keyed by opaque handle. Handles are
// UUIDs so clients cannot guess or enumerate other clients' graphs.
//
// Entries expire after a TTL. A background janitor sweeps expired
// entries; reads also check expiry so a stale entry is never served
// even between sweeps.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRegistry creates a registry with the given TTL and starts its
// janitor. A non-positive TTL falls back to DefaultGraphTTL.
// Call Stop when done to release the janitor goroutine.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultGraphTTL
	}
	r := &Registry{
		entries: make(map[string]*entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Put stores a graph and returns its handle.
func (r *Registry) Put(g *graph.Graph) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry{graph: g, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return id
}

// Get returns the graph for a handle and refreshes its TTL.
func (r *Registry) Get(id string) (*graph.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.expired(time.Now()) {
		delete(r.entries, id)
		return nil, errors.New(errors.ErrCodeGraphNotFound, "graph not found: %s", id)
	}
	e.expiresAt = time.Now().Add(r.ttl)
	return e.graph, nil
}

// Delete removes a graph. Deleting an unknown handle is not an error.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stop terminates the janitor. Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.mu.Lock()
			for id, e := range r.entries {
				if e.expired(now) {
					delete(r.entries, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
