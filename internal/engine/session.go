package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"oneflow-cli/internal/collection"
	"oneflow-cli/internal/draft"
	"oneflow-cli/internal/form"
	"oneflow-cli/internal/history"
)

type State int

const (
	StateClosed State = iota
	StateEditing
	StateSubmitting
	StateConfirmingDiscard
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateConfirmingDiscard:
		return "confirming-discard"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var ErrSubmitInFlight = errors.New("submit already in flight")

// ValidationError blocks a submit before any server call.
type ValidationError struct {
	Fields form.Errors
}

func (e *ValidationError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields.Fields(), ", ")
}

// Session orchestrates one modal editing session: open with a blank or
// existing entity, recover any persisted draft, validate on submit, call the
// server, then apply the mutation to the collection and history log.
type Session[E collection.Entity, D any] struct {
	eng *Engine[E, D]

	state    State
	targetID string // "" while creating
	val      D
	baseline D
	errs     form.Errors

	recovered bool
	remoteErr string
}

func (e *Engine[E, D]) NewSession() *Session[E, D] {
	return &Session[E, D]{eng: e, state: StateClosed}
}

func (s *Session[E, D]) State() State { return s.state }

func (s *Session[E, D]) TargetID() string { return s.targetID }

// Creating reports whether the session targets a new entity.
func (s *Session[E, D]) Creating() bool { return s.targetID == "" }

func (s *Session[E, D]) Draft() D { return s.val }

func (s *Session[E, D]) Errors() form.Errors { return s.errs }

// RemoteError is the last surfaced server failure, empty when none.
func (s *Session[E, D]) RemoteError() string { return s.remoteErr }

// Recovered reports whether the current form was seeded from a persisted
// draft rather than the baseline.
func (s *Session[E, D]) Recovered() bool { return s.recovered }

func (s *Session[E, D]) key() string {
	return draft.Key(s.eng.desc.Kind, s.targetID)
}

// OpenNew starts a create session. A recoverable draft under the "new"
// sentinel seeds the form; otherwise the empty baseline does.
func (s *Session[E, D]) OpenNew(ctx context.Context) error {
	if s.state != StateClosed {
		return fmt.Errorf("cannot open session while %s", s.state)
	}
	s.targetID = ""
	s.baseline = s.eng.desc.Empty()
	s.seed(ctx)
	s.state = StateEditing
	return nil
}

// OpenEdit starts an edit session for an existing entity. The baseline is
// re-derived from the current collection, never a cached entity copy. A
// recovered draft takes precedence over the live fields: an unsaved draft
// represents more recent user intent than the last server fetch.
func (s *Session[E, D]) OpenEdit(ctx context.Context, id string) error {
	if s.state != StateClosed {
		return fmt.Errorf("cannot open session while %s", s.state)
	}
	entity, ok := s.eng.col.Get(id)
	if !ok {
		return collection.NotFoundError{Kind: string(s.eng.desc.Kind), ID: id}
	}
	s.targetID = id
	s.baseline = s.eng.desc.Baseline(entity)
	s.seed(ctx)
	s.state = StateEditing
	return nil
}

func (s *Session[E, D]) seed(ctx context.Context) {
	s.val = s.baseline
	s.recovered = false
	s.errs = nil
	s.remoteErr = ""

	var stored D
	ok, err := s.eng.drafts.Load(ctx, s.key(), &stored)
	if err != nil {
		// Corrupt or unreadable entry: fall back to the baseline. The store
		// already discarded the bad row; the editor still opens.
		return
	}
	if ok {
		s.val = stored
		s.recovered = true
	}
}

// SetDraft replaces the form state and schedules a debounced draft save.
func (s *Session[E, D]) SetDraft(d D) {
	if s.state != StateEditing {
		return
	}
	s.val = d
	s.eng.saver.Notify(s.key(), d)
}

// HasUnsavedChanges deep-compares the form state against the baseline.
func (s *Session[E, D]) HasUnsavedChanges() bool {
	if s.state == StateClosed {
		return false
	}
	return !reflect.DeepEqual(s.val, s.baseline)
}

// SubmitRequest describes the server call a submit requires.
type SubmitRequest struct {
	Create  bool
	ID      string
	Payload any
}

// BeginSubmit validates the draft and, when valid, transitions to
// Submitting and returns the request to perform. With at least one invalid
// field it returns false and the session stays in Editing with errors set;
// no server call may happen. It also returns false while a submit is
// already outstanding, which is what makes a double-click harmless.
func (s *Session[E, D]) BeginSubmit() (SubmitRequest, bool) {
	if s.state != StateEditing {
		return SubmitRequest{}, false
	}
	s.remoteErr = ""
	errs := s.eng.desc.Validate(s.val, s.eng.now())
	if !errs.OK() {
		s.errs = errs
		return SubmitRequest{}, false
	}
	s.errs = nil
	s.state = StateSubmitting
	return SubmitRequest{
		Create:  s.Creating(),
		ID:      s.targetID,
		Payload: s.eng.desc.Payload(s.val),
	}, true
}

// Resolve completes an outstanding submit with the server outcome. On
// success the collection is mutated, a history record appended, the draft
// entry cleared, and the session closes. On failure the session returns to
// Editing with the draft intact so the user can retry.
func (s *Session[E, D]) Resolve(entity E, err error) error {
	if s.state != StateSubmitting {
		return fmt.Errorf("no submit in flight (state %s)", s.state)
	}
	if err != nil {
		s.remoteErr = err.Error()
		s.state = StateEditing
		return nil
	}

	if s.Creating() {
		if ierr := s.eng.col.Insert(entity); ierr != nil {
			s.state = StateEditing
			return ierr
		}
		s.eng.log.Append(history.Record[E]{Op: history.OpCreate, Entity: entity})
	} else {
		prev, ok := s.eng.col.Get(s.targetID)
		if !ok {
			s.state = StateEditing
			return collection.NotFoundError{Kind: string(s.eng.desc.Kind), ID: s.targetID}
		}
		if rerr := s.eng.col.Replace(entity); rerr != nil {
			s.state = StateEditing
			return rerr
		}
		s.eng.log.Append(history.Record[E]{Op: history.OpUpdate, Entity: entity, Previous: prev})
	}

	key := s.key()
	s.eng.saver.Cancel(key)
	_ = s.eng.drafts.Clear(context.Background(), key)
	s.reset()
	return nil
}

// Submit is the synchronous flow used by the CLI and tests: validate, call
// the server, apply. It returns *ValidationError without any server call
// when the draft is invalid, and the remote error (draft preserved) when
// the server rejects it.
func (s *Session[E, D]) Submit(ctx context.Context) error {
	req, ok := s.BeginSubmit()
	if !ok {
		if s.state == StateSubmitting {
			return ErrSubmitInFlight
		}
		if !s.errs.OK() {
			return &ValidationError{Fields: s.errs}
		}
		return fmt.Errorf("cannot submit while %s", s.state)
	}

	var entity E
	var err error
	if req.Create {
		entity, err = s.eng.desc.Service.Create(ctx, req.Payload)
	} else {
		entity, err = s.eng.desc.Service.Update(ctx, req.ID, req.Payload)
	}
	if rerr := s.Resolve(entity, err); rerr != nil {
		return rerr
	}
	return err
}

// RequestClose asks to close the editor. With no unsaved changes the session
// closes immediately and true is returned; otherwise it moves to
// ConfirmingDiscard and the caller must confirm or keep editing. While a
// submit is outstanding the request is ignored: the in-flight result will
// still be applied so the list reflects server truth.
func (s *Session[E, D]) RequestClose() bool {
	if s.state != StateEditing {
		return false
	}
	if !s.HasUnsavedChanges() {
		s.reset()
		return true
	}
	s.state = StateConfirmingDiscard
	return false
}

// ConfirmDiscard drops the unsaved changes: the draft entry is cleared and
// the session closes without any server call.
func (s *Session[E, D]) ConfirmDiscard(ctx context.Context) error {
	if s.state != StateConfirmingDiscard {
		return fmt.Errorf("nothing to discard (state %s)", s.state)
	}
	key := s.key()
	s.eng.saver.Cancel(key)
	err := s.eng.drafts.Clear(ctx, key)
	s.reset()
	return err
}

// KeepEditing returns from the discard prompt with the field changes intact.
func (s *Session[E, D]) KeepEditing() {
	if s.state == StateConfirmingDiscard {
		s.state = StateEditing
	}
}

func (s *Session[E, D]) reset() {
	var zero D
	s.state = StateClosed
	s.targetID = ""
	s.val = zero
	s.baseline = zero
	s.errs = nil
	s.recovered = false
	s.remoteErr = ""
}
