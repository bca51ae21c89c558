package runtime

import (
	"swarm-relay/contract"
	"sync"

	"github.com/samber/lo"
)

// Registry is the set of UI clients currently connected to the relay.
// It is pure bookkeeping: no I/O ever happens while the lock is held.
type Registry struct {
	mu    sync.RWMutex
	sinks map[string]contract.Sink
	order []string // insertion order of the ids in sinks
}

func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]contract.Sink)}
}

// Add registers a sink. Adding an already registered sink is a no-op.
func (r *Registry) Add(sink contract.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := sink.ID()
	if _, ok := r.sinks[id]; ok {
		return
	}
	r.sinks[id] = sink
	r.order = append(r.order, id)
}

// Remove unregisters a sink. It is safe to call it several times,
// or for a sink that was never added.
func (r *Registry) Remove(sink contract.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := sink.ID()
	if _, ok := r.sinks[id]; !ok {
		return
	}
	delete(r.sinks, id)
	r.order = lo.Without(r.order, id)
}

// Snapshot copies the current members so that callers can do I/O without the lock.
func (r *Registry) Snapshot() []contract.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(id string, _ int) contract.Sink {
		return r.sinks[id]
	})
}

// ForEach calls fn on a snapshot, fn is free to add or remove members.
func (r *Registry) ForEach(fn func(sink contract.Sink)) {
	for _, sink := range r.Snapshot() {
		fn(sink)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
