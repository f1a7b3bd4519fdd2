// Package algo defines the algorithm-node kinds — transform, predicate,
// fold, unfold, observer, output — as typed Go values rather than the
// original C++ template-erased member functions. Per SPEC_FULL.md design
// note "Type-erased algorithms registered via templates", each kind is
// represented by an interface abstraction (a plain function type) carrying
// its own arity and type information as ordinary Go data, and the six
// kinds are distinguished by a tagged Kind enum rather than a class
// hierarchy. Grounded on original_source/phlex/core/graph_proxy.hpp and
// original_source/phlex/module.hpp.
package algo

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Kind tags which of the six algorithm shapes a node implements.
type Kind int

const (
	KindTransform Kind = iota
	KindPredicate
	KindFold
	KindUnfold
	KindObserver
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindPredicate:
		return "predicate"
	case KindFold:
		return "fold"
	case KindUnfold:
		return "unfold"
	case KindObserver:
		return "observer"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Concurrency is a node's permit-pool size: exactly 1 (serial), unlimited,
// or a fixed n.
type Concurrency struct {
	n         int
	unlimited bool
}

// Serial returns a single-permit concurrency limit.
func Serial() Concurrency { return Concurrency{n: 1} }

// Unlimited returns a no-limit concurrency setting.
func Unlimited() Concurrency { return Concurrency{unlimited: true} }

// Limit returns a fixed permit-pool size of n (n must be >= 1).
func Limit(n int) Concurrency {
	if n < 1 {
		n = 1
	}
	return Concurrency{n: n}
}

// Permits returns the pool size to use, and whether it is unlimited.
func (c Concurrency) Permits() (n int, unlimited bool) { return c.n, c.unlimited }

// TransformFunc is a pure function of resolved inputs to a tuple of
// outputs, invoked once per matching store.
type TransformFunc func(ctx context.Context, inputs []cty.Value) ([]cty.Value, error)

// PredicateFunc is a pure function of inputs to a boolean gating decision.
type PredicateFunc func(ctx context.Context, inputs []cty.Value) (bool, error)

// ObserverFunc is a side-effecting function of inputs that publishes
// nothing.
type ObserverFunc func(ctx context.Context, inputs []cty.Value) error

// OutputFunc consumes resolved inputs and invokes user persistence. It
// publishes no products.
type OutputFunc func(ctx context.Context, inputs []cty.Value) error

// CombineFunc folds one invocation's inputs into a fold's running state.
type CombineFunc func(ctx context.Context, state []cty.Value, inputs []cty.Value) ([]cty.Value, error)

// FinalizeFunc turns a fold's terminal state into the tuple of outputs
// published at flush. A nil FinalizeFunc means the state tuple itself is
// published unchanged.
type FinalizeFunc func(ctx context.Context, state []cty.Value) ([]cty.Value, error)

// SelectFunc chooses, for a given parent store's inputs, whether an unfold
// should generate children for it at all.
type SelectFunc func(ctx context.Context, inputs []cty.Value) (bool, error)

// Generator lazily produces an unfold's child payloads. Next returns
// ok=false once exhausted; the scheduler then emits the level's flush
// store.
type Generator interface {
	Next(ctx context.Context) (payload map[string]cty.Value, ok bool, err error)
}

// ExpandFunc builds the lazy sequence of child payloads for one selected
// parent.
type ExpandFunc func(ctx context.Context, inputs []cty.Value) (Generator, error)

// Impl is the sum type of the six algorithm-kind implementations a
// catalog.Node carries. Each concrete type below is a fixed variant;
// scheduler dispatch type-switches on it rather than on virtual dispatch.
type Impl interface{ implKind() Kind }

type TransformImpl struct{ Fn TransformFunc }

func (TransformImpl) implKind() Kind { return KindTransform }

type PredicateImpl struct{ Fn PredicateFunc }

func (PredicateImpl) implKind() Kind { return KindPredicate }

type ObserverImpl struct{ Fn ObserverFunc }

func (ObserverImpl) implKind() Kind { return KindObserver }

type OutputImpl struct{ Fn OutputFunc }

func (OutputImpl) implKind() Kind { return KindOutput }

// FoldImpl bundles a fold's partition-scoped combiner, optional finalizer,
// and initial state tuple.
type FoldImpl struct {
	Initial  []cty.Value
	Combine  CombineFunc
	Finalize FinalizeFunc // may be nil
}

func (FoldImpl) implKind() Kind { return KindFold }

// UnfoldImpl bundles an unfold's parent-selection predicate and its child
// generator factory.
type UnfoldImpl struct {
	Select SelectFunc
	Expand ExpandFunc
}

func (UnfoldImpl) implKind() Kind { return KindUnfold }
