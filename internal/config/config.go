// Package config implements the configuration surface described in spec
// section 6: a keyed bag of algorithm defaults, per-node parameters, and
// output items for the persistence layer. Parsing an on-disk format is
// deliberately out of scope (spec section 1); what remains is the contract
// the core actually consumes, backed by the teacher's chosen dynamic-value
// stack (github.com/zclconf/go-cty, github.com/hashicorp/hcl/v2), following
// internal/schema and internal/hcl_adapter's decode-body pattern.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
)

// Bag is an opaque, per-node parameter body. The core never interprets its
// contents; algorithm implementations decode it into their own Go structs.
type Bag struct {
	Body hcl.Body
}

// NewBag wraps an HCL body as a parameter bag.
func NewBag(body hcl.Body) Bag { return Bag{Body: body} }

// Decode populates target (a pointer to an hcl-tagged struct) from the bag.
// vars supplies any variables the body's expressions may reference; nil is
// fine for bodies with only literal attributes.
func (b Bag) Decode(target any, vars map[string]cty.Value) error {
	if b.Body == nil {
		return nil
	}
	evalCtx := &hcl.EvalContext{Variables: vars}
	if diags := gohcl.DecodeBody(b.Body, evalCtx, target); diags.HasErrors() {
		return diags
	}
	return nil
}

// Attribute evaluates a single attribute of the bag to a cty.Value, for
// callers that want one opaque value rather than a whole decoded struct.
func (b Bag) Attribute(name string, vars map[string]cty.Value) (cty.Value, bool, error) {
	if b.Body == nil {
		return cty.NilVal, false, nil
	}
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, false, diags
	}
	attr, ok := attrs[name]
	if !ok {
		return cty.NilVal, false, nil
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{Variables: vars})
	if diags.HasErrors() {
		return cty.NilVal, false, diags
	}
	return val, true, nil
}

// OutputItem names a product the persistence layer should durably write,
// together with the payload type name producer and backend agreed on.
type OutputItem struct {
	Product string
	Type    string
}

// AlgorithmDefaults are the plugin/algorithm names a bare declaration falls
// back to when a node's declaration doesn't fully specify them.
type AlgorithmDefaults struct {
	Plugin    string
	Algorithm string
}

// Config is the configuration surface handed to module registration: a
// keyed bag of algorithm defaults, per-node opaque parameters, and the set
// of products the persistence layer must commit.
type Config struct {
	Defaults    AlgorithmDefaults
	NodeParams  map[string]Bag
	OutputItems []OutputItem
}

// New returns an empty configuration with initialized maps.
func New() *Config {
	return &Config{NodeParams: make(map[string]Bag)}
}

// ParamsFor returns the parameter bag registered for a node's full name.
// Nodes with no configured parameters get the zero Bag (nil body), which
// Decode treats as a no-op.
func (c *Config) ParamsFor(fullName string) Bag {
	return c.NodeParams[fullName]
}

// SetParams installs the parameter bag for a node's full name. Re-setting
// the same name is a configuration error: node parameters are supplied
// once, at load time.
func (c *Config) SetParams(fullName string, bag Bag) error {
	if _, exists := c.NodeParams[fullName]; exists {
		return fmt.Errorf("config: parameters for %q already set", fullName)
	}
	c.NodeParams[fullName] = bag
	return nil
}
