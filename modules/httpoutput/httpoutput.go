// Package httpoutput provides an Output algorithm backed by the
// persistence contract (internal/persistence), exercising the HTTP-backed
// adapter's createContainers/registerWrite/commitOutput sequence per spec
// section 6. Adapted from the teacher's modules/http_client, whose
// CreateHttpClient asset and OnRunHttpRequest runner are collapsed here
// into a single Output node scoped to one persistence.Backend and a fixed
// set of committed products.
package httpoutput

import (
	"context"
	"fmt"

	"github.com/sabasehrish/phlex/internal/config"
	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/graphproxy"
	"github.com/sabasehrish/phlex/internal/persistence"
	"github.com/zclconf/go-cty/cty"
)

// Options configures one output node's persistence items, decoded from the
// node's parameter bag (hcl-tagged, per the ambient config stack).
type Options struct {
	Items []struct {
		Product string `hcl:"product"`
		Type    string `hcl:"type"`
	} `hcl:"item,block"`
}

// Writer is an Output algorithm bound to a persistence.Backend. The node's
// first resolved input carries the string used as the backend's commit id;
// the remaining inputs become committed products in Items order.
type Writer struct {
	Backend persistence.Backend
	Items   []config.OutputItem
}

// NewWriter builds a Writer from decoded Options, copying each item's
// product name and payload type name into Items.
func NewWriter(backend persistence.Backend, opts Options) *Writer {
	items := make([]config.OutputItem, len(opts.Items))
	for i, it := range opts.Items {
		items[i] = config.OutputItem{Product: it.Product, Type: it.Type}
	}
	return &Writer{Backend: backend, Items: items}
}

// Run persists inputs[0] as the commit id (a string product) and each of
// inputs[1:] as one committed item, in Items order. Declare the node's
// input family accordingly: the id label first, then one label per Items
// entry.
func (w *Writer) Run(ctx context.Context, inputs []cty.Value) error {
	logger := ctxlog.FromContext(ctx)
	if len(inputs) != len(w.Items)+1 {
		return fmt.Errorf("httpoutput: expected %d input(s) (id + %d item(s)), got %d", len(w.Items)+1, len(w.Items), len(inputs))
	}
	if inputs[0].IsNull() || inputs[0].Type() != cty.String {
		return fmt.Errorf("httpoutput: first input must be a non-null string commit id")
	}
	id := inputs[0].AsString()

	types := make(map[string]string, len(w.Items))
	for _, item := range w.Items {
		types[item.Product] = item.Type
	}

	creator, err := w.Backend.CreateContainers(ctx, types)
	if err != nil {
		return fmt.Errorf("httpoutput: create containers: %w", err)
	}

	for i, item := range w.Items {
		if err := w.Backend.RegisterWrite(ctx, creator, item.Product, inputs[i+1], item.Type); err != nil {
			return fmt.Errorf("httpoutput: register write %q: %w", item.Product, err)
		}
	}

	if err := w.Backend.CommitOutput(ctx, creator, id); err != nil {
		return fmt.Errorf("httpoutput: commit output %q: %w", id, err)
	}
	logger.Info("committed output", "id", id, "items", len(w.Items))
	return nil
}

// Register declares algorithm as an Output node on proxy backed by w.
func Register(proxy *graphproxy.Proxy, algorithm string, w *Writer) *graphproxy.Declaration {
	return proxy.Output(algorithm, w.Run)
}
