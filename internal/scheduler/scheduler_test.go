package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/sabasehrish/phlex/internal/algo"
	"github.com/sabasehrish/phlex/internal/catalog"
	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/graphproxy"
	"github.com/sabasehrish/phlex/internal/phlexname"
	"github.com/sabasehrish/phlex/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"log/slog"
	"io"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func intVal(v cty.Value) int64 {
	n, _ := v.AsBigFloat().Int64()
	return n
}

// TestTrivialTransform is spec section 8 scenario 1.
func TestTrivialTransform(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	proxy.Transform("double", func(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
		return []cty.Value{cty.NumberIntVal(intVal(inputs[0]) * 2)}, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("y").Register()

	sched, err := New(cat, WithExternalProducts("x"))
	require.NoError(t, err)

	ctx := testContext()
	ev := store.Base("job").MakeChild(0, "event", "demo:source", map[string]cty.Value{"x": cty.NumberIntVal(3)})
	require.NoError(t, sched.Submit(ctx, ev))
	sched.Wait()

	require.Empty(t, sched.Errors())
	final, ok := sched.Snapshot(ev.ID())
	require.True(t, ok)
	y, ok := final.GetProduct("y")
	require.True(t, ok)
	require.Equal(t, int64(6), intVal(y))
}

// TestPredicateGating is spec section 8 scenario 2.
func TestPredicateGating(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	proxy.Predicate("is_positive", func(_ context.Context, inputs []cty.Value) (bool, error) {
		return intVal(inputs[0]) > 0, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("pos").Register()
	proxy.Transform("neg", func(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
		return []cty.Value{cty.NumberIntVal(-intVal(inputs[0]))}, nil
	}).InputFamily(phlexname.Label("x")).Arity(1).When("demo:is_positive").OutputProducts("z").Register()

	sched, err := New(cat, WithExternalProducts("x"))
	require.NoError(t, err)

	ctx := testContext()
	pos := store.Base("job").MakeChild(0, "event", "demo:source", map[string]cty.Value{"x": cty.NumberIntVal(3)})
	neg := store.Base("job").MakeChild(1, "event", "demo:source", map[string]cty.Value{"x": cty.NumberIntVal(-1)})
	require.NoError(t, sched.Submit(ctx, pos))
	require.NoError(t, sched.Submit(ctx, neg))
	sched.Wait()

	posFinal, _ := sched.Snapshot(pos.ID())
	z, ok := posFinal.GetProduct("z")
	require.True(t, ok)
	require.Equal(t, int64(-3), intVal(z))

	negFinal, _ := sched.Snapshot(neg.ID())
	_, ok = negFinal.GetProduct("z")
	require.False(t, ok, "gated transform must not publish when its predicate is false")
}

// TestFoldOverEvents is spec section 8 scenario 3.
func TestFoldOverEvents(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	proxy.Fold("sum_x", "job", []cty.Value{cty.NumberIntVal(0)},
		func(_ context.Context, state []cty.Value, inputs []cty.Value) ([]cty.Value, error) {
			return []cty.Value{cty.NumberIntVal(intVal(state[0]) + intVal(inputs[0]))}, nil
		}, nil,
	).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("sum").Register()

	sched, err := New(cat, WithExternalProducts("x"))
	require.NoError(t, err)

	ctx := testContext()
	root := store.Base("job")
	require.NoError(t, sched.Submit(ctx, root))
	for i, x := range []int64{1, 2, 3} {
		ev := root.MakeChild(i, "event", "demo:source", map[string]cty.Value{"x": cty.NumberIntVal(x)})
		require.NoError(t, sched.Submit(ctx, ev))
	}
	sched.SubmitFlush(ctx, root.MakeFlush())
	sched.Wait()

	require.Empty(t, sched.Errors())
	final, ok := sched.Snapshot(root.ID())
	require.True(t, ok)
	sum, ok := final.GetProduct("sum")
	require.True(t, ok)
	require.Equal(t, int64(6), intVal(sum))
}

// TestUnfoldToSegments is spec section 8 scenario 4.
func TestUnfoldToSegments(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	proxy.Unfold("expand_hits", "segment",
		func(_ context.Context, inputs []cty.Value) (bool, error) { return true, nil },
		func(_ context.Context, inputs []cty.Value) (algo.Generator, error) {
			return &listGen{items: inputs[0].AsValueSlice()}, nil
		},
	).InputFamily(phlexname.Label("hits")).Arity(1).Register()

	sched, err := New(cat, WithExternalProducts("hits"))
	require.NoError(t, err)

	ctx := testContext()
	hits := cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b"), cty.StringVal("c")})
	ev := store.Base("job").MakeChild(0, "event", "demo:source", map[string]cty.Value{"hits": hits})
	require.NoError(t, sched.Submit(ctx, ev))
	sched.Wait()

	require.Empty(t, sched.Errors())
	for i := 0; i < 3; i++ {
		segID := ev.ID().Child("segment", i)
		final, ok := sched.Snapshot(segID)
		require.True(t, ok, "expected segment %d to have been dispatched", i)
		hit, ok := final.GetProduct("hit")
		require.True(t, ok)
		require.False(t, hit.IsNull())
	}
}

type listGen struct {
	items []cty.Value
	next  int
}

func (g *listGen) Next(_ context.Context) (map[string]cty.Value, bool, error) {
	if g.next >= len(g.items) {
		return nil, false, nil
	}
	v := g.items[g.next]
	g.next++
	return map[string]cty.Value{"hit": v}, true, nil
}

// TestFoldUnderFailure is spec section 8 scenario 6.
func TestFoldUnderFailure(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	proxy.Fold("sum_x", "job", []cty.Value{cty.NumberIntVal(0)},
		func(_ context.Context, state []cty.Value, inputs []cty.Value) ([]cty.Value, error) {
			x := intVal(inputs[0])
			if x == 2 {
				return nil, errors.New("boom")
			}
			return []cty.Value{cty.NumberIntVal(intVal(state[0]) + x)}, nil
		}, nil,
	).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("sum").Register()

	sched, err := New(cat, WithExternalProducts("x"))
	require.NoError(t, err)

	ctx := testContext()
	root := store.Base("job")
	require.NoError(t, sched.Submit(ctx, root))
	for i, x := range []int64{1, 2, 3} {
		ev := root.MakeChild(i, "event", "demo:source", map[string]cty.Value{"x": cty.NumberIntVal(x)})
		require.NoError(t, sched.Submit(ctx, ev))
	}
	sched.SubmitFlush(ctx, root.MakeFlush())
	sched.Wait()

	require.Len(t, sched.Errors(), 1)
	final, ok := sched.Snapshot(root.ID())
	require.True(t, ok)
	sum, ok := final.GetProduct("sum")
	require.True(t, ok)
	require.Equal(t, int64(4), intVal(sum), "the failed event must not contribute to the finalized sum")
}

// TestDuplicateRegistrationRefusesExecution mirrors spec section 8 scenario
// 5 at the scheduler boundary: New must refuse to build while the catalog
// carries registration errors.
func TestDuplicateRegistrationRefusesExecution(t *testing.T) {
	cat := catalog.New()
	proxy := graphproxy.New(cat, "demo")
	register := func() {
		proxy.Transform("double", func(_ context.Context, inputs []cty.Value) ([]cty.Value, error) {
			return inputs, nil
		}).InputFamily(phlexname.Label("x")).Arity(1).OutputProducts("y").Register()
	}
	register()
	register()

	require.Len(t, cat.All(), 1)
	require.Len(t, cat.Errors(), 1)

	_, err := New(cat)
	require.Error(t, err)
}
