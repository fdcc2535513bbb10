// Package engine is the generic entity mutation engine: one in-memory
// collection of server truth per entity type, a linear undo/redo log, draft
// persistence for in-progress edits, and modal editing sessions that
// orchestrate validation, the remote call, and history bookkeeping.
//
// The engine is single-threaded: all collection and history
// mutations are synchronous and run on the caller's event loop. The only
// asynchronous boundary is the remote call, which is split into an explicit
// begin/finish pair so UI frameworks can run the network I/O off-loop and
// apply the result back on it.
package engine

import (
	"context"
	"errors"
	"time"

	"oneflow-cli/internal/collection"
	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/history"
	"oneflow-cli/internal/model"
	"oneflow-cli/internal/remote"
)

var ErrLoadInFlight = errors.New("list fetch already in flight")

// Descriptor parameterizes the generic engine per entity type. Projects and
// Tasks are two descriptors over the same machinery, not two copies of it.
type Descriptor[E collection.Entity, D any] struct {
	Kind    model.Kind
	Service remote.Service[E]

	// Empty is the baseline draft for a create session.
	Empty func() D
	// Baseline projects an entity's editable fields into a draft.
	Baseline func(E) D
	// Validate maps a draft to field errors given the current time.
	Validate func(D, time.Time) form.Errors
	// Payload is the typed mapping from a draft to the request body.
	Payload func(D) any
}

type Options struct {
	Drafts        draft.Store
	DraftDebounce time.Duration

	// Now is the clock used for date validation; nil means time.Now.
	Now func() time.Time
}

type Engine[E collection.Entity, D any] struct {
	desc   Descriptor[E, D]
	col    *collection.Collection[E]
	log    *history.Log[E]
	drafts draft.Store
	saver  *draft.Saver
	now    func() time.Time

	loading bool
}

func New[E collection.Entity, D any](desc Descriptor[E, D], opts Options) *Engine[E, D] {
	col := collection.New[E](string(desc.Kind))
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine[E, D]{
		desc:   desc,
		col:    col,
		log:    history.NewLog(col),
		drafts: opts.Drafts,
		saver:  draft.NewSaver(opts.Drafts, opts.DraftDebounce),
		now:    now,
	}
}

func (e *Engine[E, D]) Kind() model.Kind { return e.desc.Kind }

func (e *Engine[E, D]) List() []E { return e.col.List() }

func (e *Engine[E, D]) Get(id string) (E, bool) { return e.col.Get(id) }

func (e *Engine[E, D]) Len() int { return e.col.Len() }

// BeginLoad marks a list fetch as outstanding. It returns false while one is
// already in flight; callers must not issue a second fetch until the first
// resolves through FinishLoad.
func (e *Engine[E, D]) BeginLoad() bool {
	if e.loading {
		return false
	}
	e.loading = true
	return true
}

// FinishLoad applies a list fetch result. A successful fetch is a rebase:
// the collection is replaced wholesale and the history log is cleared, since
// its records describe pre-rebase state and inverting them against fresh
// server truth would corrupt the collection.
func (e *Engine[E, D]) FinishLoad(items []E, err error) error {
	e.loading = false
	if err != nil {
		return err
	}
	e.col.Reset(items)
	e.log.Clear()
	return nil
}

// Load is the synchronous fetch used by the CLI and tests.
func (e *Engine[E, D]) Load(ctx context.Context) error {
	if !e.BeginLoad() {
		return ErrLoadInFlight
	}
	items, err := e.desc.Service.List(ctx)
	return e.FinishLoad(items, err)
}

func (e *Engine[E, D]) CanUndo() bool { return e.log.CanUndo() }

func (e *Engine[E, D]) CanRedo() bool { return e.log.CanRedo() }

// Undo reverts the most recent mutation in the local collection. The server
// is not part of this transition; use PushRecord to fire the best-effort
// mirror write afterwards.
func (e *Engine[E, D]) Undo() (history.Record[E], bool, error) {
	return e.log.Undo()
}

func (e *Engine[E, D]) Redo() (history.Record[E], bool, error) {
	return e.log.Redo()
}

// PushRecord mirrors an undone (inverted) or redone record to the server,
// best effort. The response is intentionally not applied to the collection
// and a failure is never replayed: local state stays authoritative until the
// next full rebase. The returned error is only for surfacing a notice.
func (e *Engine[E, D]) PushRecord(ctx context.Context, rec history.Record[E], inverted bool) error {
	op := rec.Op
	if inverted {
		switch rec.Op {
		case history.OpCreate:
			op = history.OpDelete
		case history.OpDelete:
			op = history.OpCreate
		}
	}
	switch op {
	case history.OpCreate:
		payload := e.desc.Payload(e.desc.Baseline(rec.Entity))
		_, err := e.desc.Service.Create(ctx, payload)
		return err
	case history.OpUpdate:
		target := rec.Entity
		if inverted {
			target = rec.Previous
		}
		payload := e.desc.Payload(e.desc.Baseline(target))
		_, err := e.desc.Service.Update(ctx, target.EntityID(), payload)
		return err
	case history.OpDelete:
		return e.desc.Service.Delete(ctx, rec.Entity.EntityID())
	}
	return nil
}

// BeginDelete resolves the delete target. The caller shows its confirmation
// step, performs the remote delete, then applies it with FinishDelete.
func (e *Engine[E, D]) BeginDelete(id string) (E, bool) {
	return e.col.Get(id)
}

// FinishDelete applies a confirmed, server-acknowledged delete.
func (e *Engine[E, D]) FinishDelete(id string, err error) error {
	if err != nil {
		return err
	}
	removed, rerr := e.col.Remove(id)
	if rerr != nil {
		return rerr
	}
	e.log.Append(history.Record[E]{Op: history.OpDelete, Entity: removed})
	return nil
}

// Delete is the synchronous flow: remote delete, then collection removal and
// history append. Confirmation is the caller's responsibility.
func (e *Engine[E, D]) Delete(ctx context.Context, id string) error {
	if _, ok := e.col.Get(id); !ok {
		return collection.NotFoundError{Kind: string(e.desc.Kind), ID: id}
	}
	err := e.desc.Service.Delete(ctx, id)
	return e.FinishDelete(id, err)
}

// FlushDrafts forces any debounced draft writes to disk, e.g. on shutdown.
func (e *Engine[E, D]) FlushDrafts(ctx context.Context) error {
	return e.saver.Flush(ctx)
}
