// Package demo wires a small end-to-end pipeline exercising every
// algorithm kind — transform, predicate, fold, unfold, output — against
// the scheduler, matching spec section 8's scenarios 1-4 combined into a
// single runnable graph. It backs cmd/phlex; correctness of the demo
// pipeline itself is not part of the framework's contract (SPEC_FULL.md's
// domain-stack note on CLI wiring), only that it exercises the real
// scheduler, persistence, and monitor packages end to end.
package demo

import (
	"context"
	"fmt"

	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/catalog"
	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/graphproxy"
	"github.com/sabasehrish/phlex/internal/persistence"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/sabasehrish/phlex/internal/scheduler"
	"github.com/sabasehrish/phlex/internal/source"
	"github.com/sabasehrish/phlex/internal/store"
	"github.com/sabasehrish/phlex/modules/httpoutput"
	"github.com/sabasehrish/phlex/modules/monitor"
	"github.com/zclconf/go-cty/cty"
)

// Options configures one run of the demo pipeline.
type Options struct {
	// Events is one x value per demo event; odd values are given a "hits"
	// list so the unfold has something to split, to exercise scenario 4
	// alongside the others.
	Events []int

	Backend    persistence.Backend // nil: an internal Memory backend is used
	MonitorURL string              // empty: no live feed
}

// Result summarizes one run for the CLI to print.
type Result struct {
	Sum      int64
	Failures []scheduler.Failure
	Backend  persistence.Backend
}

const jobLevel, eventLevel, segmentLevel = "job", "event", "segment"

func buildCatalog(feed *monitor.Feed, writer *httpoutput.Writer) (*catalog.Catalog, error) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")

	proxy.Transform("double", func(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
		x := inputs[0].AsBigFloat()
		y, _ := x.Int64()
		return []cty.Value{cty.NumberIntVal(y * 2)}, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("y").Register()

	proxy.Predicate("is_positive", func(_ context.Context, inputs []cty.Value) (bool, error) {
		x := inputs[0].AsBigFloat()
		n, _ := x.Int64()
		return n > 0, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("pos").Register()

	proxy.Transform("neg", func(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
		x := inputs[0].AsBigFloat()
		n, _ := x.Int64()
		return []cty.Value{cty.NumberIntVal(-n)}, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).
		When("demo:is_positive").
		OutputProducts("z").Register()

	proxy.Fold("sum_x", jobLevel, []cty.Value{cty.NumberIntVal(0)},
		func(_ context.Context, state []cty.Value, inputs []cty.Value) ([]cty.Value, error) {
			acc := state[0].AsBigFloat()
			x := inputs[0].AsBigFloat()
			acc.Add(acc, x)
			sum, _ := acc.Int64()
			return []cty.Value{cty.NumberIntVal(sum)}, nil
		}, nil,
	).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("sum").Register()

	proxy.Unfold("expand_hits", segmentLevel,
		func(_ context.Context, inputs []cty.Value) (bool, error) {
			hits := inputs[0]
			return !hits.IsNull() && hits.LengthInt() > 0, nil
		},
		func(_ context.Context, inputs []cty.Value) (algo.Generator, error) {
			return newSliceGenerator(inputs[0].AsValueSlice()), nil
		},
	).InputFamily(phlexname.Label("hits")).Arity(1).Register()

	if feed != nil {
		monitor.RegisterObserver(proxy, "report_done", "demo:report", "completed", feed).
			InputFamily(phlexname.Label("event_id")).Arity(1).Register()
	}

	if writer != nil {
		httpoutput.Register(proxy, "report", writer).
			InputFamily(phlexname.Label("event_id"), phlexname.Label("y")).Arity(2).Register()
	}

	if errs := cat.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("demo: catalog registration failed: %v", errs)
	}
	return cat, nil
}

// sliceGenerator is an algo.Generator over a fixed []cty.Value, one "hit"
// payload per element.
type sliceGenerator struct {
	items []cty.Value
	next  int
}

func newSliceGenerator(items []cty.Value) *sliceGenerator { return &sliceGenerator{items: items} }

func (g *sliceGenerator) Next(_ context.Context) (map[string]cty.Value, bool, error) {
	if g.next >= len(g.items) {
		return nil, false, nil
	}
	v := g.items[g.next]
	g.next++
	return map[string]cty.Value{"hit": v}, true, nil
}

// Run builds the demo catalog and scheduler, feeds opts.Events through a
// pull-shaped source, and returns the fold's final sum together with any
// recorded per-id failures.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	backend := opts.Backend
	if backend == nil {
		backend = persistence.NewMemory()
	}
	writer := httpoutput.NewWriter(backend, httpoutput.Options{
		Items: []struct {
			Product string `hcl:"product"`
			Type    string `hcl:"type"`
		}{{Product: "y", Type: "int"}},
	})

	var feed *monitor.Feed
	if opts.MonitorURL != "" {
		f, err := monitor.NewFeed(ctx, monitor.Options{URL: opts.MonitorURL, Namespace: "/", EmitEvent: "transition"})
		if err != nil {
			logger.Warn("demo: monitor feed disabled", "error", err)
		} else {
			feed = f
			defer feed.Close()
		}
	}

	cat, err := buildCatalog(feed, writer)
	if err != nil {
		return nil, err
	}

	sched, err := scheduler.New(cat, scheduler.WithExternalProducts("x", "event_id", "hits"))
	if err != nil {
		return nil, err
	}

	root := store.Base(jobLevel)
	events := opts.Events
	idx := -1 // -1 yields root first

	next := func(_ context.Context) (*store.Store, bool, error) {
		idx++
		if idx == 0 {
			return root, true, nil
		}
		i := idx - 1
		if i >= len(events) {
			return nil, false, nil
		}
		x := events[i]
		products := map[string]cty.Value{
			"x":        cty.NumberIntVal(int64(x)),
			"event_id": cty.StringVal(fmt.Sprintf("event-%d", i)),
		}
		if x%2 != 0 {
			products["hits"] = cty.ListVal([]cty.Value{
				cty.StringVal("a"), cty.StringVal("b"), cty.StringVal("c"),
			})
		} else {
			products["hits"] = cty.ListValEmpty(cty.String)
		}
		return root.MakeChild(i, eventLevel, "demo:source", products), true, nil
	}

	if err := source.RunPull(ctx, sched, next); err != nil {
		return nil, fmt.Errorf("demo: source failed: %w", err)
	}

	var sum int64
	if final, ok := sched.Snapshot(root.ID()); ok {
		if v, ok := final.GetProduct("sum"); ok {
			n, _ := v.AsBigFloat().Int64()
			sum = n
		}
	}

	return &Result{Sum: sum, Failures: sched.Errors(), Backend: backend}, nil
}
