// Package graphproxy implements the typed facade over the node catalog:
// the fluent declaration surface (transform/predicate/fold/unfold/observer
// /output) that module authors chain to register algorithm nodes.
// Grounded on original_source/phlex/core/graph_proxy.hpp and
// original_source/phlex/core/registration_api.hpp.
//
// The original's registrar fires node construction on C++ scope exit so
// that every fluent option preceding the statement terminator is observed
// regardless of call order. Go has no equivalent implicit hook, so per
// SPEC_FULL.md's design note we use the idiomatic alternative it names
// first: an explicit builder with an explicit terminal call. Every
// declaration chain here ends with Register(); until that call, the
// Declaration is a plain mutable builder and nothing has reached the
// catalog.
package graphproxy

import (
	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/catalog"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/zclconf/go-cty/cty"
)

// Proxy is the plugin-scoped entry point module authors receive from
// create_module. Every algorithm registered through the same Proxy shares
// its plugin name.
type Proxy struct {
	catalog *catalog.Catalog
	plugin  string
	bound   any
}

// New returns a Proxy that registers nodes into cat under the given plugin
// name.
func New(cat *catalog.Catalog, plugin string) *Proxy {
	return &Proxy{catalog: cat, plugin: plugin}
}

// Make binds the proxy to a shared algorithm instance. Declarations issued
// from the returned Proxy are understood to share that instance's state
// across invocations — the state itself must be either immutable or
// protected by the node's own concurrency-permit serialization, per spec
// section 4.5's shared-instance design note. In Go a method value already
// carries its receiver, so Make exists to make that sharing explicit at
// the call site (and to give later invocations something to log), not
// because the language requires an extra binding step the way C++ member
// function pointers do.
func (p *Proxy) Make(instance any) *Proxy {
	return &Proxy{catalog: p.catalog, plugin: p.plugin, bound: instance}
}

// Bound returns the instance a Make-bound proxy carries, or nil for an
// unbound (free-function) proxy.
func (p *Proxy) Bound() any { return p.bound }

func (p *Proxy) newNode(algorithm string, kind algo.Kind, impl algo.Impl) *catalog.Node {
	return &catalog.Node{
		Name:        phlexname.NewAlgorithmName(p.plugin, algorithm),
		Kind:        kind,
		Arity:       -1,
		Concurrency: algo.Unlimited(),
		Impl:        impl,
	}
}

// Transform declares a pure function-of-inputs node.
func (p *Proxy) Transform(algorithm string, fn algo.TransformFunc) *Declaration {
	return newDeclaration(p.catalog, p.newNode(algorithm, algo.KindTransform, algo.TransformImpl{Fn: fn}))
}

// Predicate declares a boolean gating node. Its OutputProducts call names
// the single gating product downstream nodes reference in When(...).
func (p *Proxy) Predicate(algorithm string, fn algo.PredicateFunc) *Declaration {
	return newDeclaration(p.catalog, p.newNode(algorithm, algo.KindPredicate, algo.PredicateImpl{Fn: fn}))
}

// Observer declares a side-effect-only node that publishes nothing.
func (p *Proxy) Observer(algorithm string, fn algo.ObserverFunc) *Declaration {
	return newDeclaration(p.catalog, p.newNode(algorithm, algo.KindObserver, algo.ObserverImpl{Fn: fn}))
}

// Output declares a persistence-sink node. Output nodes default to serial
// concurrency, matching spec section 5's guidance that blocking-I/O nodes
// should limit their own concurrency.
func (p *Proxy) Output(algorithm string, fn algo.OutputFunc) *Declaration {
	d := newDeclaration(p.catalog, p.newNode(algorithm, algo.KindOutput, algo.OutputImpl{Fn: fn}))
	d.node.Concurrency = algo.Serial()
	return d
}

// Fold declares a partition-scoped aggregation node. combine runs once per
// invocation serialized by partition key; finalize (optional; pass nil for
// an identity finalizer) turns the terminal state into the fold's single
// published output when the partition's flush store arrives.
func (p *Proxy) Fold(algorithm, partition string, initial []cty.Value, combine algo.CombineFunc, finalize algo.FinalizeFunc) *Declaration {
	n := p.newNode(algorithm, algo.KindFold, algo.FoldImpl{Initial: initial, Combine: combine, Finalize: finalize})
	n.Partition = partition
	return newDeclaration(p.catalog, n)
}

// Unfold declares a level-expanding node. select decides whether a given
// parent store produces children at all; expand builds the lazy sequence
// of child payloads emitted at destinationLayer.
func (p *Proxy) Unfold(algorithm, destinationLayer string, sel algo.SelectFunc, expand algo.ExpandFunc) *Declaration {
	n := p.newNode(algorithm, algo.KindUnfold, algo.UnfoldImpl{Select: sel, Expand: expand})
	n.DestinationLayer = destinationLayer
	return newDeclaration(p.catalog, n)
}

// Declaration is the fluent builder returned by every proxy declaration
// method. Fluent methods mutate the in-progress node; Register() is the
// terminal call that installs it into the catalog.
type Declaration struct {
	catalog *catalog.Catalog
	node    *catalog.Node
}

func newDeclaration(cat *catalog.Catalog, n *catalog.Node) *Declaration {
	return &Declaration{catalog: cat, node: n}
}

// InputFamily declares the node's ordered input labels. Arity, if set via
// Arity(), is checked against len(labels) at Register().
func (d *Declaration) InputFamily(labels ...phlexname.SpecifiedLabel) *Declaration {
	d.node.Inputs = labels
	return d
}

// Arity fixes the expected number of input labels, checked at Register().
// Omit this call to skip the check (arity inferred solely from
// InputFamily's argument count, with no cross-check against the
// algorithm's own signature — Go's static typing over []cty.Value cannot
// recover the arity a C++ template parameter pack would have carried).
func (d *Declaration) Arity(n int) *Declaration {
	d.node.Arity = n
	return d
}

// ConcurrencyLimit overrides the node's default concurrency policy.
func (d *Declaration) ConcurrencyLimit(c algo.Concurrency) *Declaration {
	d.node.Concurrency = c
	return d
}

// When declares the upstream gating predicates (by full algorithm name)
// that must all evaluate true before this node runs for a given id.
func (d *Declaration) When(predicates ...string) *Declaration {
	d.node.Predicates = predicates
	return d
}

// OutputProducts declares the bare product names this node publishes.
func (d *Declaration) OutputProducts(names ...string) *Declaration {
	d.node.Outputs = names
	return d
}

// Register installs the node into the catalog, or records a registration
// error (duplicate full name, arity mismatch, malformed kind-specific
// configuration) if it cannot be installed. This is the terminal call of
// every declaration chain.
func (d *Declaration) Register() {
	d.catalog.Register(d.node)
}
