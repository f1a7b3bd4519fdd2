// Package source implements the source driver: the wrapper that pulls
// stores from a user-supplied source, seeds them into the flow graph, and
// drains the hierarchy it opened to completion.
// Grounded on spec section 4.6 and section 6's "next(driver) / next()"
// contract, and on the teacher's internal/dag worker-pool loop for the
// concurrent-pull variant's fan-out/fan-in shape.
package source

import (
	"context"
	"sort"
	"sync"

	"github.com/sabasehrish/phlex/internal/ctxlog"
	"github.com/sabasehrish/phlex/internal/scheduler"
	"github.com/sabasehrish/phlex/internal/store"
	"golang.org/x/sync/errgroup"
)

// Driver is the object a push-shaped source's next function publishes
// stores through: Yield submits one store and records its id as open.
// Driver has no Finish operation; a push source signals exhaustion by
// returning from its next function.
type Driver struct {
	sched *scheduler.Scheduler

	mu   sync.Mutex
	open map[uint64]*store.Store
}

func newDriver(sched *scheduler.Scheduler) *Driver {
	return &Driver{sched: sched, open: make(map[uint64]*store.Store)}
}

// Yield submits st into the flow graph and records its id as open until the
// run drains the hierarchy. Safe for concurrent callers.
func (d *Driver) Yield(ctx context.Context, st *store.Store) error {
	if err := d.sched.Submit(ctx, st); err != nil {
		return err
	}
	d.mu.Lock()
	d.open[st.ID().Hash()] = st
	d.mu.Unlock()
	return nil
}

// drain closes every level the driver opened, deepest first, so a child
// level's flush is always delivered before its parent's — mirroring spec
// section 4.6's "reverse depth order" requirement.
func (d *Driver) drain(ctx context.Context) {
	d.mu.Lock()
	open := make([]*store.Store, 0, len(d.open))
	for _, st := range d.open {
		open = append(open, st)
	}
	d.open = make(map[uint64]*store.Store)
	d.mu.Unlock()

	sort.Slice(open, func(i, j int) bool { return open[i].ID().Depth() > open[j].ID().Depth() })
	for _, st := range open {
		d.sched.SubmitFlush(ctx, st.MakeFlush())
	}
}

// NextDriver is the push shape from spec section 6: the source's next
// function receives the driver directly and is free to call Yield as many
// times, in whatever order, as one logical read produces stores — useful
// for a source whose natural unit of work seeds several sibling levels at
// once. It is called exactly once; it owns its own iteration loop and
// returns when the source is exhausted or fails.
type NextDriver func(ctx context.Context, d *Driver) error

// NextFunc is the pull shape: the source's next function produces one
// store per call and reports ok=false once exhausted. The wrapper owns the
// Yield loop.
type NextFunc func(ctx context.Context) (st *store.Store, ok bool, err error)

// RunPush drives a push-shaped source to completion and drains the
// hierarchy it opened.
func RunPush(ctx context.Context, sched *scheduler.Scheduler, next NextDriver) error {
	d := newDriver(sched)
	err := next(ctx, d)
	d.drain(ctx)
	sched.Wait()
	return err
}

// RunPull drives a pull-shaped source to completion, calling next
// repeatedly on a single goroutine until it reports exhaustion.
func RunPull(ctx context.Context, sched *scheduler.Scheduler, next NextFunc) error {
	d := newDriver(sched)
	for {
		st, ok, err := next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := d.Yield(ctx, st); err != nil {
			return err
		}
	}
	d.drain(ctx)
	sched.Wait()
	return nil
}

// RunPullConcurrent drives a pull-shaped source with `workers` goroutines
// each calling next in a loop, for sources safe to read from concurrently
// (e.g. independently-seekable shards). All workers share one Driver, so
// the eventual drain still closes every level exactly once. The first
// worker error cancels the group; the rest wind down and the hierarchy
// opened so far is still drained, per spec section 7's "source failure:
// record, initiate shutdown, flush open levels" policy.
func RunPullConcurrent(ctx context.Context, sched *scheduler.Scheduler, next NextFunc, workers int) error {
	if workers < 1 {
		workers = 1
	}
	d := newDriver(sched)
	logger := ctxlog.FromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				st, ok, err := next(gctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := d.Yield(gctx, st); err != nil {
					return err
				}
			}
		})
	}
	err := g.Wait()
	if err != nil {
		logger.Error("source failed, draining open levels", "error", err)
	}
	d.drain(ctx)
	sched.Wait()
	return err
}
