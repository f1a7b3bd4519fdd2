// Package store implements the product store: a persistent tree of
// immutable-once-published key/value maps carrying products along with a
// level identifier and processing stage.
// Grounded on original_source/phlex/model/product_store.hpp; products are
// represented as cty.Value rather than a type-erased C++ product<T>, per
// SPEC_FULL.md's domain-stack decision to carry zclconf/go-cty throughout.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sabasehrish/phlex/internal/levelid"
	"github.com/zclconf/go-cty/cty"
)

// Stage is the processing stage of a store.
type Stage int

const (
	Process Stage = iota
	Flush
)

func (s Stage) String() string {
	if s == Flush {
		return "flush"
	}
	return "process"
}

// entry pairs a product's value with the source tag of whoever introduced
// it. MakeContinuation copies a predecessor's entries forward verbatim —
// the spec's round-trip test requires a continuation to share its
// predecessor's id and parent exactly, so provenance has to travel with
// each product individually rather than live on the store as a whole.
type entry struct {
	value  cty.Value
	source string
}

// Store is one node in the product-store hierarchy. A Store's parent
// pointer is a plain Go reference: the garbage collector, not a refcount,
// guarantees the parent outlives any child holding it, so there is no need
// for the original's weak-pointer dance.
type Store struct {
	parent *Store
	id     levelid.ID
	source string
	stage  Stage

	mu       sync.RWMutex
	products map[string]entry
	sealed   atomic.Bool
}

// Base returns the root store of a new job: stage=process, id=(jobName,0).
func Base(jobName string) *Store {
	return &Store{
		id:       levelid.Base(jobName),
		stage:    Process,
		products: make(map[string]entry),
	}
}

// MakeChild returns a new process-stage child of s at the given level,
// seeded with products attributed to source.
func (s *Store) MakeChild(levelNumber int, levelName, source string, products map[string]cty.Value) *Store {
	return s.newChild(levelNumber, levelName, source, Process, products)
}

// MakeChildEmpty returns a new child of s at the given level and stage,
// carrying no products. Used to open a level (stage=Process) or, more
// commonly, to close one (stage=Flush).
func (s *Store) MakeChildEmpty(levelNumber int, levelName, source string, stage Stage) *Store {
	return s.newChild(levelNumber, levelName, source, stage, nil)
}

func (s *Store) newChild(levelNumber int, levelName, source string, stage Stage, products map[string]cty.Value) *Store {
	child := &Store{
		parent:   s,
		id:       s.id.Child(levelName, levelNumber),
		source:   source,
		stage:    stage,
		products: make(map[string]entry, len(products)),
	}
	for k, v := range products {
		child.products[k] = entry{value: v, source: source}
	}
	return child
}

// MakeContinuation returns a new store with the same id and the same
// parent as s, carrying everything s carried (with each product's original
// source preserved) plus the newly supplied products attributed to source.
// Transforms and fold finalizers use this to publish outputs without
// opening a new level.
func (s *Store) MakeContinuation(source string, products map[string]cty.Value) *Store {
	s.mu.RLock()
	cont := &Store{
		parent:   s.parent,
		id:       s.id,
		source:   source,
		stage:    s.stage,
		products: make(map[string]entry, len(s.products)+len(products)),
	}
	for k, e := range s.products {
		cont.products[k] = e
	}
	s.mu.RUnlock()
	for k, v := range products {
		cont.products[k] = entry{value: v, source: source}
	}
	return cont
}

// MakeFlush returns the sentinel flush store for s's level: same id and
// parent, stage=Flush, no products. The scheduler emits this once all
// process stores for a level have been produced.
func (s *Store) MakeFlush() *Store {
	return &Store{
		parent:   s.parent,
		id:       s.id,
		stage:    Flush,
		products: make(map[string]entry),
	}
}

// ID returns the store's level identifier.
func (s *Store) ID() levelid.ID { return s.id }

// Source returns the origin tag attached to products introduced directly by
// this store (its seed products for a child, its newly-added products for a
// continuation).
func (s *Store) Source() string { return s.source }

// ProcessingStage returns the store's processing stage.
func (s *Store) ProcessingStage() Stage { return s.stage }

// IsFlush reports whether this store is a flush sentinel.
func (s *Store) IsFlush() bool { return s.stage == Flush }

// Parent returns the immediate parent store, or false if s is a root.
func (s *Store) Parent() (*Store, bool) {
	if s.parent == nil {
		return nil, false
	}
	return s.parent, true
}

// ParentNamed walks up the chain and returns the nearest ancestor (or self)
// whose leaf level name matches levelName.
func (s *Store) ParentNamed(levelName string) (*Store, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.id.LevelName() == levelName {
			return cur, true
		}
	}
	return nil, false
}

// Seal marks the store immutable to further AddProduct calls. Called by the
// scheduler once a store has been dispatched into the graph.
func (s *Store) Seal() { s.sealed.Store(true) }

// ContainsProduct reports whether key is stored directly at s (not
// ancestors — use StoreForProduct for the most-derived lookup).
func (s *Store) ContainsProduct(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.products[key]
	return ok
}

// GetProduct returns the product stored directly at s, if any.
func (s *Store) GetProduct(key string) (cty.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[key]
	return e.value, ok
}

// ProductSource returns the source tag attached to key's value at s, if
// key is stored directly at s. For a continuation this is the original
// producer even when the key was copied forward from a predecessor, not the
// continuation's own source.
func (s *Store) ProductSource(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.products[key]
	return e.source, ok
}

// AddProduct appends a new product, attributed to s's own source tag.
// Re-adding an existing key, or adding to a sealed store, is a logic error:
// the caller (typically the scheduler dispatching a task) should treat it
// as a failed invocation for this id, per spec section 7.
func (s *Store) AddProduct(key string, v cty.Value) error {
	if s.sealed.Load() {
		return fmt.Errorf("product store: cannot add product %q to a store already dispatched into the graph", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[key]; exists {
		return fmt.Errorf("product store: product %q already present", key)
	}
	s.products[key] = entry{value: v, source: s.source}
	return nil
}

// StoreForProduct walks from s up through ancestors and returns the
// closest store (s itself or an ancestor) that directly contains key. The
// closest ancestor wins: a product is visible to a reader at level L iff it
// is stored at L or at an ancestor of L.
func (s *Store) StoreForProduct(key string) (*Store, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.ContainsProduct(key) {
			return cur, true
		}
	}
	return nil, false
}

// Products returns a snapshot copy of the products stored directly at s.
func (s *Store) Products() map[string]cty.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]cty.Value, len(s.products))
	for k, e := range s.products {
		out[k] = e.value
	}
	return out
}

// MostDerived returns whichever of a, b is deeper in the hierarchy
// (descendant wins); if neither is an ancestor of the other, it returns b.
func MostDerived(a, b *Store) *Store {
	if a == b {
		return a
	}
	if a.id.IsAncestorOf(b.id) {
		return b
	}
	if b.id.IsAncestorOf(a.id) {
		return a
	}
	return b
}

// MostDerivedAll generalizes MostDerived to a tuple of stores via left-fold.
func MostDerivedAll(stores ...*Store) *Store {
	if len(stores) == 0 {
		return nil
	}
	result := stores[0]
	for _, s := range stores[1:] {
		result = MostDerived(result, s)
	}
	return result
}
