package scheduler

import (
	"context"
	"fmt"

	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/catalog"
	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/sabasehrish/phlex/internal/store"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/semaphore"
)

// resolveLabel resolves one input label against a frontier's current
// visibility: the closest ancestor store (by continuation chain, per spec
// section 4.2's product-store visibility rule) that carries the product,
// checked against the label's qualifier if it has one.
func (s *Scheduler) resolveLabel(fr *frontier, label phlexname.SpecifiedLabel) (cty.Value, bool) {
	cur := fr.snapshot()
	src, ok := cur.StoreForProduct(label.Name)
	if !ok {
		return cty.NilVal, false
	}
	if label.Qualifier != nil {
		producerName, _ := src.ProductSource(label.Name)
		producer, ok := s.cat.Lookup(producerName)
		if !ok || !label.Qualifier.Match(producer.Name) {
			return cty.NilVal, false
		}
	}
	v, _ := src.GetProduct(label.Name)
	return v, true
}

// resolveInputs resolves every one of a node's declared input labels,
// reporting ok=false the moment any one of them isn't yet visible. It also
// reports ok=false when every input resolves to an ancestor's store: such a
// node runs against that ancestor's own id, not again for each descendant
// that inherits those products.
func (s *Scheduler) resolveInputs(fr *frontier, n *catalog.Node) ([]cty.Value, bool) {
	inputs := make([]cty.Value, len(n.Inputs))
	local := len(n.Inputs) == 0
	for i, label := range n.Inputs {
		v, ok := s.resolveLabel(fr, label)
		if !ok {
			return nil, false
		}
		inputs[i] = v
		if src, ok := fr.snapshot().StoreForProduct(label.Name); ok && src.ID().Equal(fr.id) {
			local = true
		}
	}
	if !local {
		return nil, false
	}
	return inputs, true
}

// gating resolves a node's When(...) predicates against fr. It returns
// (ready=false) if any gating product hasn't published yet, and
// (pass=false) if every gating product has published but at least one is
// false — the permanent short-circuit case.
func (s *Scheduler) gating(fr *frontier, n *catalog.Node) (ready, pass bool) {
	for _, predName := range n.Predicates {
		predNode, ok := s.cat.Lookup(predName)
		if !ok || len(predNode.Outputs) == 0 {
			return false, false
		}
		label := phlexname.QualifiedLabel(predNode.Outputs[0], predNode.Name)
		v, ok := s.resolveLabel(fr, label)
		if !ok {
			return false, false
		}
		if v.IsNull() || !v.True() {
			return true, false
		}
	}
	return true, true
}

func (s *Scheduler) permitFor(fullName string) *semaphore.Weighted {
	return s.permits[fullName]
}

// attempt runs exactly one node against exactly one frontier, at most once.
// It returns true if this call changed the frontier's state (a node
// settled, whether by running, being skipped, or failing) — the signal
// runPasses uses to decide whether another scan is worth doing.
func (s *Scheduler) attempt(ctx context.Context, fr *frontier, n *catalog.Node) bool {
	full := n.FullName()
	if fr.outcomeOf(full) != outcomeNone {
		return false
	}

	ready, pass := s.gating(fr, n)
	if !ready {
		return false
	}
	if !pass {
		if !fr.claim(full) {
			return false
		}
		fr.settle(full, outcomeSkipped)
		return true
	}

	inputs, ok := s.resolveInputs(fr, n)
	if !ok {
		return false
	}

	if !fr.claim(full) {
		return false
	}

	if sem := s.permitFor(full); sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			s.recordFailure(Failure{ID: fr.id, Node: full, Err: err})
			fr.settle(full, outcomeFailed)
			return true
		}
		defer sem.Release(1)
	}

	if err := s.run(ctx, fr, n, inputs); err != nil {
		logger := ctxlog.FromContext(ctx)
		logger.Warn("node invocation failed", "node", full, "id", fr.id.String(), "error", err)
		s.recordFailure(Failure{ID: fr.id, Node: full, Err: err})
		fr.settle(full, outcomeFailed)
		return true
	}
	fr.settle(full, outcomeDone)
	return true
}

// run dispatches to the node's kind-specific implementation and applies its
// result: a continuation published into fr for transform/predicate, a
// partition update for fold, or generated children plus a terminating
// flush for unfold. Observer and output publish nothing.
func (s *Scheduler) run(ctx context.Context, fr *frontier, n *catalog.Node, inputs []cty.Value) error {
	switch impl := n.Impl.(type) {
	case algo.TransformImpl:
		outputs, err := impl.Fn(ctx, inputs)
		if err != nil {
			return err
		}
		return s.publishOutputs(fr, n, outputs)

	case algo.PredicateImpl:
		gate, err := impl.Fn(ctx, inputs)
		if err != nil {
			return err
		}
		return s.publishOutputs(fr, n, []cty.Value{cty.BoolVal(gate)})

	case algo.ObserverImpl:
		return impl.Fn(ctx, inputs)

	case algo.OutputImpl:
		return impl.Fn(ctx, inputs)

	case algo.FoldImpl:
		return s.combine(ctx, fr, n, impl, inputs)

	case algo.UnfoldImpl:
		return s.expand(ctx, fr, n, impl, inputs)

	default:
		return fmt.Errorf("node %s: unrecognized algorithm implementation %T", n.FullName(), n.Impl)
	}
}

func (s *Scheduler) publishOutputs(fr *frontier, n *catalog.Node, values []cty.Value) error {
	if len(values) != len(n.Outputs) {
		return fmt.Errorf("node %s: declared %d output(s), produced %d", n.FullName(), len(n.Outputs), len(values))
	}
	products := make(map[string]cty.Value, len(values))
	for i, name := range n.Outputs {
		products[name] = values[i]
	}
	fr.publish(n.FullName(), products)
	return nil
}

// combine runs a fold's combiner against the partition keyed by the
// ancestor id at the node's declared partition level, serialized per
// partition so two concurrent ids under the same partition never combine
// simultaneously.
func (s *Scheduler) combine(ctx context.Context, fr *frontier, n *catalog.Node, impl algo.FoldImpl, inputs []cty.Value) error {
	partitionID, ok := fr.id.AncestorNamed(n.Partition)
	if !ok {
		return fmt.Errorf("fold %s: id %s has no ancestor at partition level %q", n.FullName(), fr.id, n.Partition)
	}
	table := s.partitions[n.FullName()]
	p := table.get(partitionID.Hash())

	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.state
	if !p.started {
		state = impl.Initial
	}
	next, err := impl.Combine(ctx, state, inputs)
	if err != nil {
		return err
	}
	p.state = next
	p.started = true
	return nil
}

// finalizeFold runs when a flush arrives at a fold's partition level. It
// takes (and removes) the partition's accumulated state, runs the optional
// finalizer, and publishes the single resulting output into the flush
// store's true hierarchical parent as a continuation — redispatching that
// parent's frontier so any node waiting on the fold's output gets another
// chance to run.
func (s *Scheduler) finalizeFold(ctx context.Context, n *catalog.Node, impl algo.FoldImpl, flush *store.Store) {
	table := s.partitions[n.FullName()]
	p, existed := table.take(flush.ID().Hash())

	var state []cty.Value
	if existed {
		p.mu.Lock()
		state = p.state
		p.mu.Unlock()
	} else {
		state = impl.Initial
	}

	outputs := state
	if impl.Finalize != nil {
		var err error
		outputs, err = impl.Finalize(ctx, state)
		if err != nil {
			s.recordFailure(Failure{ID: flush.ID(), Node: n.FullName(), Err: err})
			return
		}
	}

	if len(outputs) != len(n.Outputs) {
		s.recordFailure(Failure{ID: flush.ID(), Node: n.FullName(), Err: fmt.Errorf("fold %s: declared %d output(s), finalizer produced %d", n.FullName(), len(n.Outputs), len(outputs))})
		return
	}

	products := make(map[string]cty.Value, len(outputs))
	for i, name := range n.Outputs {
		products[name] = outputs[i]
	}

	// A flush one level below the root has a true parent to publish into.
	// A flush at the root level (the fold partitions by the job's own
	// level) has nowhere higher to go, so the output becomes a
	// continuation of the root frontier itself.
	target := flush
	if parent, ok := flush.Parent(); ok {
		target = parent
	}
	targetFr := s.frontierFor(target)
	targetFr.publish(n.FullName(), products)
	s.redispatch(ctx, targetFr)
}

// expand runs an unfold's selection and generator, dispatching each child as
// its own fresh frontier and finishing with the level's flush store once
// the generator is exhausted. When the parent isn't selected, no level is
// opened at all, so no flush is emitted either — spec section 8's testable
// property that flush-store count at a level equals the count of parents
// whose unfold predicate was true would otherwise be violated by an
// unselected parent still contributing a (spurious) flush.
func (s *Scheduler) expand(ctx context.Context, fr *frontier, n *catalog.Node, impl algo.UnfoldImpl, inputs []cty.Value) error {
	selected, err := impl.Select(ctx, inputs)
	if err != nil {
		return err
	}
	if !selected {
		return nil
	}
	parent := fr.snapshot()

	gen, err := impl.Expand(ctx, inputs)
	if err != nil {
		return err
	}

	count := 0
	for {
		payload, ok, err := gen.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		child := parent.MakeChild(count, n.DestinationLayer, n.FullName(), payload)
		s.dispatchFresh(ctx, child)
		count++
	}

	// Every dispatched child registered against parent's own id as its
	// in-flight scope (dispatchFresh keys on the store's Parent()), so
	// waiting on that scope here blocks until all of them have settled
	// before the flush, and any fold partitioned at this destination
	// layer, is allowed to finalize.
	s.inflight.wait(parent.ID().Hash())

	flush := parent.MakeChildEmpty(count, n.DestinationLayer, n.FullName(), store.Flush)
	s.ingestFlush(ctx, flush)
	return nil
}

// ingestFlush handles one flush store's arrival: every fold node partitioned
// at the flush's level finalizes against it. A flush carries no products of
// its own and never gets a frontier; it exists purely to trigger this.
func (s *Scheduler) ingestFlush(ctx context.Context, flush *store.Store) {
	level := flush.ID().LevelName()
	for _, n := range s.cat.ByKind(algo.KindFold) {
		if n.Partition != level {
			continue
		}
		impl := n.Impl.(algo.FoldImpl)
		s.wg.Add(1)
		go func(n *catalog.Node, impl algo.FoldImpl) {
			defer s.wg.Done()
			s.finalizeFold(ctx, n, impl, flush)
		}(n, impl)
	}
}
