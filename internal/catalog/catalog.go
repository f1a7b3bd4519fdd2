package catalog

import (
	"fmt"
	"sync"

	"github.com/sabasehrish/phlex/internal/algo"
)

// Catalog is the accumulating registry of algorithm nodes for one graph. It
// records registration errors — duplicates, arity mismatches — rather than
// raising them immediately, so an entire batch of declarations can be
// reported to the user at once, per spec section 4.1.
type Catalog struct {
	mu     sync.Mutex
	nodes  map[string]*Node
	order  []*Node // registration order, for deterministic dispatch tie-breaks
	byKind map[algo.Kind][]*Node
	errors []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		nodes:  make(map[string]*Node),
		byKind: make(map[algo.Kind][]*Node),
	}
}

// Register validates and installs a node, recording a registration error
// instead of returning one so that a declaration's terminal call can stay
// error-free from the caller's point of view, matching the original's
// "accumulate, don't throw" registration contract. It is the catalog side
// of the registrar pattern described in spec section 4.1.
func (c *Catalog) Register(n *Node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := n.validate(); err != nil {
		c.errors = append(c.errors, err.Error())
		return
	}

	full := n.FullName()
	if _, exists := c.nodes[full]; exists {
		c.errors = append(c.errors, fmt.Sprintf("duplicate node registration: %s", full))
		return
	}
	c.nodes[full] = n
	c.order = append(c.order, n)
	c.byKind[n.Kind] = append(c.byKind[n.Kind], n)
}

// Lookup returns the node registered under a full "plugin:algorithm" name.
func (c *Catalog) Lookup(fullName string) (*Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.nodes[fullName]
	return n, ok
}

// ByKind returns all nodes of a given kind, in registration order.
func (c *Catalog) ByKind(k algo.Kind) []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Node, len(c.byKind[k]))
	copy(out, c.byKind[k])
	return out
}

// All returns every registered node, in registration order. Registration
// order is the tie-break the scheduler uses when multiple nodes become
// eligible against the same store, per spec section 4.4.
func (c *Catalog) All() []*Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Node, len(c.order))
	copy(out, c.order)
	return out
}

// Errors returns the accumulated registration errors. Execution must be
// refused while this is non-empty (spec section 4.5 point on registration
// errors, and section 7's error table).
func (c *Catalog) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// AddError records a build-time error found outside of node insertion
// itself (e.g. a missing producer discovered while wiring the flow graph).
func (c *Catalog) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}
