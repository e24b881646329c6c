// Package sync drains the pending-mutation outbox against the active remote
// backend. One pass runs per online transition; a pass never aborts on a
// failed mutation, it leaves it queued and moves on.
package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/halaqahq/halaqa/internal/backend"
	"github.com/halaqahq/halaqa/internal/store"
)

type Engine struct {
	store    *store.Store
	backends *backend.Selector

	running atomic.Bool // at most one pass in flight
	online  atomic.Bool
	synced  atomic.Bool // a pass completed since the last online transition
	pending atomic.Int64
}

func NewEngine(st *store.Store, sel *backend.Selector) *Engine {
	e := &Engine{store: st, backends: sel}
	e.online.Store(true)

	return e
}

// Result summarizes one completed pass.
type Result struct {
	Processed int  `json:"processed"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped"`
}

// MarkOnline records a connectivity transition. Coming back online arms the
// engine for one pass.
func (e *Engine) MarkOnline() {
	if !e.online.Swap(true) {
		e.synced.Store(false)
	}
}

func (e *Engine) MarkOffline() {
	e.online.Store(false)
	e.synced.Store(false)
}

func (e *Engine) Online() bool {
	return e.online.Load()
}

func (e *Engine) Syncing() bool {
	return e.running.Load()
}

// PendingCount is the aggregate indicator shown to the user. It tracks the
// counter decremented during a pass and falls back to the outbox length.
func (e *Engine) PendingCount(ctx context.Context) int {
	if e.running.Load() {
		return int(e.pending.Load())
	}

	n, err := e.store.PendingCount(ctx)
	if err != nil {
		slog.Error("counting pending mutations", "error", err)
		return int(e.pending.Load())
	}

	e.pending.Store(int64(n))

	return n
}

// TrySync runs one pass if the engine is online, has not synced since the
// last transition, and no pass is already running. A concurrent trigger is a
// no-op.
func (e *Engine) TrySync(ctx context.Context) (Result, error) {
	if !e.online.Load() || e.synced.Load() {
		return Result{Skipped: true}, nil
	}

	return e.run(ctx)
}

// ForceSync re-arms the engine and runs a pass regardless of whether one
// already succeeded this transition. Manual trigger from the UI.
func (e *Engine) ForceSync(ctx context.Context) (Result, error) {
	e.synced.Store(false)
	return e.run(ctx)
}

func (e *Engine) run(ctx context.Context) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Result{Skipped: true}, nil
	}
	defer e.running.Store(false)

	adapter, err := e.backends.Active()
	if err != nil {
		return Result{Skipped: true}, err
	}

	// Snapshot the queue once. Mutations enqueued during the pass wait for
	// the next trigger.
	mutations, err := e.store.ListPending(ctx)
	if err != nil {
		return Result{}, err
	}

	e.pending.Store(int64(len(mutations)))

	var res Result

	for _, m := range mutations {
		if err := backend.Apply(ctx, adapter, m); err != nil {
			slog.Error("sync: mutation failed, leaving queued",
				"mutation", m.ID, "op", m.Op, "kind", m.Kind, "error", err)

			res.Failed++

			continue
		}

		if err := e.store.Dequeue(ctx, m.ID); err != nil {
			return res, err
		}

		e.pending.Add(-1)
		res.Processed++
	}

	e.synced.Store(true)

	return res, nil
}
