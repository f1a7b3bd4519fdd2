// Package catalog implements the node catalog and the deferred-construction
// registrar: the registration/composition surface that turns algorithm
// declarations into entries of a typed DAG.
// Grounded on original_source/phlex/core/registrar.hpp and
// original_source/phlex/model (for node identity and duplicate handling),
// adapted to Go's explicit-builder idiom per SPEC_FULL.md's design note on
// "deferred construction on scope exit".
package catalog

import (
	"fmt"

	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/phlexname"
)

// Node is a fully-registered algorithm node: its identity, its declared
// inputs and gating predicates, the products it publishes, its concurrency
// policy, and its executable implementation.
type Node struct {
	Name        phlexname.AlgorithmName
	Kind        algo.Kind
	Inputs      []phlexname.SpecifiedLabel
	Arity       int // -1: unchecked
	Predicates  []string
	Outputs     []string
	Concurrency algo.Concurrency
	Impl        algo.Impl

	// Partition is the fold-only grouping level name.
	Partition string
	// DestinationLayer is the unfold-only child level name.
	DestinationLayer string
}

// FullName renders the node's algorithm name as "plugin:algorithm".
func (n *Node) FullName() string { return n.Name.Full() }

// OutputQualifiedNames returns this node's published products, qualified
// by its own algorithm name.
func (n *Node) OutputQualifiedNames() []phlexname.QualifiedName {
	out := make([]phlexname.QualifiedName, len(n.Outputs))
	for i, name := range n.Outputs {
		out[i] = phlexname.QualifiedName{Qualifier: n.Name, Name: name}
	}
	return out
}

func (n *Node) validate() error {
	if n.Arity >= 0 && len(n.Inputs) != n.Arity {
		return fmt.Errorf("node %s: expected %d input(s), got %d", n.FullName(), n.Arity, len(n.Inputs))
	}
	switch n.Kind {
	case algo.KindFold:
		if n.Partition == "" {
			return fmt.Errorf("node %s: fold requires a partition level name", n.FullName())
		}
		if len(n.Outputs) != 1 {
			return fmt.Errorf("node %s: fold must publish exactly one output", n.FullName())
		}
	case algo.KindUnfold:
		if n.DestinationLayer == "" {
			return fmt.Errorf("node %s: unfold requires a destination_data_layer", n.FullName())
		}
	case algo.KindPredicate:
		if len(n.Outputs) != 1 {
			return fmt.Errorf("node %s: predicate must publish exactly one gating product", n.FullName())
		}
	case algo.KindObserver, algo.KindOutput:
		if len(n.Outputs) != 0 {
			return fmt.Errorf("node %s: %s nodes do not publish products", n.FullName(), n.Kind)
		}
	}
	return nil
}
