// Package scheduler implements the flow graph and its scheduler: the
// runtime that wires the node catalog into a live dataflow graph, dispatches
// arriving stores against it, and carries the hierarchical open/flush
// protocol through to fold finalization and unfold expansion.
// Grounded on the teacher's internal/dag (worker-pool loop, root detection,
// skip-on-failure propagation) and internal/executor (per-node dispatch),
// adapted from a static dependency DAG to phlex's data-driven activation:
// a node becomes eligible against a given id the moment its declared inputs
// resolve against that id's product-store chain, not because some earlier
// node in a fixed graph finished.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/catalog"
	"github.com/sabasehrish/phlex/internal/levelid"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/sabasehrish/phlex/internal/store"
	"golang.org/x/sync/semaphore"
)

// Failure records one node invocation's error against the id it was
// attempted for.
type Failure struct {
	ID   levelid.ID
	Node string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: node %s: %v", f.ID, f.Node, f.Err)
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithWatermarks sets the admission back-pressure thresholds (spec section
// 4.6). high <= 0 disables admission control.
func WithWatermarks(high, low int) Option {
	return func(s *Scheduler) { s.bp = newBackpressure(high, low) }
}

// WithExternalProducts declares product names the graph may assume are
// seeded directly by the source driver rather than published by a node —
// e.g. the raw payload fields a job starts with. Wiring validation does not
// flag inputs that resolve to one of these names.
func WithExternalProducts(names ...string) Option {
	return func(s *Scheduler) {
		for _, n := range names {
			s.externals[n] = true
		}
	}
}

// Scheduler is the flow graph: a validated, wired node catalog together with
// the live per-id evaluation state needed to run it.
type Scheduler struct {
	cat       *catalog.Catalog
	externals map[string]bool
	bp        *backpressure

	permits map[string]*semaphore.Weighted // nil entry: unlimited

	framesMu sync.Mutex
	frames   map[uint64]*frontier

	partitions map[string]*partitionTable // keyed by fold full name

	inflight *inflightTracker

	failuresMu sync.Mutex
	failures   []Failure

	wg sync.WaitGroup
}

// New validates the catalog's wiring — every declared input and predicate
// must resolve to either a registered producer or a declared external
// product — and returns a Scheduler ready to accept stores. It refuses to
// build while the catalog carries registration errors, per spec section
// 4.1's "execution must be refused while errors are pending" rule.
func New(cat *catalog.Catalog, opts ...Option) (*Scheduler, error) {
	if errs := cat.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("scheduler: catalog has %d registration error(s): %s", len(errs), strings.Join(errs, "; "))
	}

	s := &Scheduler{
		cat:        cat,
		externals:  make(map[string]bool),
		bp:         newBackpressure(0, 0),
		permits:    make(map[string]*semaphore.Weighted),
		frames:     make(map[uint64]*frontier),
		partitions: make(map[string]*partitionTable),
		inflight:   newInflightTracker(),
	}
	for _, o := range opts {
		o(s)
	}

	if err := s.validateWiring(); err != nil {
		return nil, err
	}

	for _, n := range cat.All() {
		if limit, unlimited := n.Concurrency.Permits(); !unlimited {
			s.permits[n.FullName()] = semaphore.NewWeighted(int64(limit))
		}
		if n.Kind == algo.KindFold {
			s.partitions[n.FullName()] = newPartitionTable()
		}
	}
	return s, nil
}

func (s *Scheduler) validateWiring() error {
	var problems []string

	producers := make(map[string][]*catalog.Node) // bare product name -> producing nodes
	for _, n := range s.cat.All() {
		for _, name := range n.Outputs {
			producers[name] = append(producers[name], n)
		}
	}

	resolvable := func(l phlexname.SpecifiedLabel) bool {
		if s.externals[l.Name] {
			return true
		}
		for _, n := range producers[l.Name] {
			if l.Qualifier == nil || l.Qualifier.Match(n.Name) {
				return true
			}
		}
		return false
	}

	for _, n := range s.cat.All() {
		for _, label := range n.Inputs {
			if !resolvable(label) {
				problems = append(problems, fmt.Sprintf("node %s: no producer or external declaration for input %q", n.FullName(), label.String()))
			}
		}
		for _, predName := range n.Predicates {
			predNode, ok := s.cat.Lookup(predName)
			if !ok {
				problems = append(problems, fmt.Sprintf("node %s: unknown predicate %q", n.FullName(), predName))
				continue
			}
			if predNode.Kind != algo.KindPredicate {
				problems = append(problems, fmt.Sprintf("node %s: %q is not a predicate node", n.FullName(), predName))
			}
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("scheduler: %d wiring problem(s):\n%s", len(problems), strings.Join(problems, "\n"))
	}
	return nil
}

// Submit admits a freshly seeded process store into the graph, blocking on
// the back-pressure watermark first. The store must be a fresh id the
// scheduler has not seen before — deeper-level stores created internally by
// unfold bypass admission control since they are already bounded by their
// parent's.
func (s *Scheduler) Submit(ctx context.Context, st *store.Store) error {
	if err := s.bp.acquire(ctx); err != nil {
		return err
	}
	s.dispatchFresh(ctx, st)
	return nil
}

// SubmitFlush delivers a flush sentinel for a level the driver itself
// manages (typically the job root or another driver-owned level). Unfold
// emits its own flush stores internally and does not go through this entry
// point.
//
// A driver-managed flush shares its id with the store whose children it
// closes (store.MakeFlush keeps the id unchanged), so that id doubles as
// the in-flight scope every one of those children's dispatchFresh calls
// registered against. SubmitFlush waits for that scope to drain before
// the flush is ingested, so fold finalization never races a sibling's
// still-running combine.
func (s *Scheduler) SubmitFlush(ctx context.Context, flush *store.Store) {
	s.inflight.wait(flush.ID().Hash())
	s.ingestFlush(ctx, flush)
}

// Wait blocks until every dispatched unit of work — including any unfold
// children and fold finalizations triggered along the way — has settled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Errors returns every node invocation failure recorded so far, in the
// order they were recorded.
func (s *Scheduler) Errors() []Failure {
	s.failuresMu.Lock()
	defer s.failuresMu.Unlock()
	out := make([]Failure, len(s.failures))
	copy(out, s.failures)
	return out
}

func (s *Scheduler) recordFailure(f Failure) {
	s.failuresMu.Lock()
	s.failures = append(s.failures, f)
	s.failuresMu.Unlock()
}

// frontierFor returns the frontier tracking st's id, creating one seeded
// with st if this is the first time the scheduler has seen that id.
func (s *Scheduler) frontierFor(st *store.Store) *frontier {
	hash := st.ID().Hash()
	s.framesMu.Lock()
	defer s.framesMu.Unlock()
	if fr, ok := s.frames[hash]; ok {
		return fr
	}
	fr := newFrontier(st)
	s.frames[hash] = fr
	return fr
}

// existingFrontier looks up a frontier without creating one.
func (s *Scheduler) existingFrontier(id levelid.ID) (*frontier, bool) {
	s.framesMu.Lock()
	defer s.framesMu.Unlock()
	fr, ok := s.frames[id.Hash()]
	return fr, ok
}

// Snapshot returns the most recently published continuation store for id,
// if the scheduler has ever seen that id. Callers use this after Wait to
// read back products a fold finalizer or transform published into a
// frontier the caller itself submitted.
func (s *Scheduler) Snapshot(id levelid.ID) (*store.Store, bool) {
	fr, ok := s.existingFrontier(id)
	if !ok {
		return nil, false
	}
	return fr.snapshot(), true
}

// dispatchFresh registers a brand-new process store's id and starts its
// evaluation, releasing the admission slot once that id's own evaluation
// pass has gone quiescent. If st has a parent, its dispatch is registered
// against that parent's in-flight scope for the duration of the pass, so
// whoever eventually waits on that scope (SubmitFlush, expand's own flush)
// blocks until this store has fully settled.
func (s *Scheduler) dispatchFresh(ctx context.Context, st *store.Store) {
	st.Seal()
	fr := s.frontierFor(st)
	scope, scoped := uint64(0), false
	if parent, ok := st.Parent(); ok {
		scope = parent.ID().Hash()
		scoped = true
		s.inflight.add(scope)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.bp.release()
		if scoped {
			defer s.inflight.done(scope)
		}
		s.runPasses(ctx, fr)
	}()
}

// redispatch re-runs evaluation passes over an existing frontier without
// touching admission control — used whenever something publishes a new
// continuation into a frontier after its original runner has already gone
// quiescent (most notably a fold finalizer reaching into its flush's
// parent).
func (s *Scheduler) redispatch(ctx context.Context, fr *frontier) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runPasses(ctx, fr)
	}()
}

// runPasses repeatedly scans the catalog against fr until a full pass makes
// no further progress. Later external events (an unfold child's own work, a
// fold finalizer publishing into this frontier) call redispatch to resume
// evaluation; runPasses itself never blocks waiting for them.
func (s *Scheduler) runPasses(ctx context.Context, fr *frontier) {
	nodes := s.cat.All()
	for {
		progressed := false
		for _, n := range nodes {
			if s.attempt(ctx, fr, n) {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}
