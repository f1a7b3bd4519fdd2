package scheduler

import (
	"sync"

	"github.com/sabasehrish/phlex/internal/levelid"
	"github.com/sabasehrish/phlex/internal/store"
	"github.com/zclconf/go-cty/cty"
)

// outcome is the per-(node,id) execution record a frontier tracks, mirroring
// spec section 4.4's per-id node states: a node is attempted at most once
// for a given id, and its result — not just whether it ran — gates
// downstream consumers.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeRunning
	outcomeDone
	outcomeSkipped
	outcomeFailed
)

// frontier is the live evaluation state for one level id: the most
// recently published continuation store for that id, and which catalog
// nodes have settled against it. Multiple goroutines touch a frontier
// concurrently — the id's own runner, and any fold finalizer publishing a
// continuation into it from a deeper level's flush — so every field is
// guarded by mu.
type frontier struct {
	mu      sync.Mutex
	id      levelid.ID
	current *store.Store
	done    map[string]outcome
}

func newFrontier(s *store.Store) *frontier {
	return &frontier{
		id:      s.ID(),
		current: s,
		done:    make(map[string]outcome),
	}
}

// claim marks a node as running for this frontier if it has not already
// been attempted, returning false if another goroutine already claimed,
// completed, skipped, or failed it.
func (fr *frontier) claim(fullName string) bool {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.done[fullName] != outcomeNone {
		return false
	}
	fr.done[fullName] = outcomeRunning
	return true
}

func (fr *frontier) settle(fullName string, o outcome) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.done[fullName] = o
}

func (fr *frontier) outcomeOf(fullName string) outcome {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.done[fullName]
}

// snapshot returns the current continuation store under lock, for input
// resolution.
func (fr *frontier) snapshot() *store.Store {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.current
}

// publish appends a continuation to the frontier's current store, atomically
// with respect to other publishers of the same frontier (a node's own
// result, or a descendant fold's finalizer).
func (fr *frontier) publish(source string, products map[string]cty.Value) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.current = fr.current.MakeContinuation(source, products)
}
