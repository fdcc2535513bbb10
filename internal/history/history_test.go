package history

import (
	"reflect"
	"testing"

	"oneflow-cli/internal/collection"
	"oneflow-cli/internal/model"
)

func task(id, title string) model.Task {
	return model.Task{ID: id, Title: title, State: model.TaskNew, Priority: model.PriorityMedium}
}

func snapshot(c *collection.Collection[model.Task]) map[string]model.Task {
	out := map[string]model.Task{}
	for _, t := range c.List() {
		out[t.ID] = t
	}
	return out
}

// applyForward applies a record's forward effect, as a session would before
// appending it.
func applyForward(t *testing.T, c *collection.Collection[model.Task], r Record[model.Task]) {
	t.Helper()
	var err error
	switch r.Op {
	case OpCreate:
		err = c.Insert(r.Entity)
	case OpUpdate:
		err = c.Replace(r.Entity)
	case OpDelete:
		_, err = c.Remove(r.Entity.EntityID())
	}
	if err != nil {
		t.Fatalf("apply %s: %v", r.Op, err)
	}
}

func TestUndoInvertsExactly(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	c.Reset([]model.Task{task("t1", "One"), task("t2", "Two")})
	l := NewLog(c)

	before := snapshot(c)

	updated := task("t1", "One, renamed")
	seq := []Record[model.Task]{
		{Op: OpCreate, Entity: task("t3", "Three")},
		{Op: OpUpdate, Entity: updated, Previous: task("t1", "One")},
		{Op: OpDelete, Entity: task("t2", "Two")},
	}
	for _, r := range seq {
		applyForward(t, c, r)
		l.Append(r)
	}

	for i := 0; i < len(seq); i++ {
		if _, ok, err := l.Undo(); !ok || err != nil {
			t.Fatalf("undo %d: ok=%v err=%v", i, ok, err)
		}
	}

	if got := snapshot(c); !reflect.DeepEqual(got, before) {
		t.Fatalf("undo did not restore pre-sequence content:\n got: %#v\nwant: %#v", got, before)
	}
	if l.CanUndo() {
		t.Fatalf("expected nothing left to undo")
	}
}

func TestRedoAfterUndoRoundTrip(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	l := NewLog(c)

	r := Record[model.Task]{Op: OpCreate, Entity: task("t1", "One")}
	applyForward(t, c, r)
	l.Append(r)

	before := snapshot(c)
	if _, ok, err := l.Undo(); !ok || err != nil {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if _, ok, err := l.Redo(); !ok || err != nil {
		t.Fatalf("redo: ok=%v err=%v", ok, err)
	}
	if got := snapshot(c); !reflect.DeepEqual(got, before) {
		t.Fatalf("undo+redo round trip diverged:\n got: %#v\nwant: %#v", got, before)
	}
}

func TestAppendTruncatesRedoTail(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	l := NewLog(c)

	r1 := Record[model.Task]{Op: OpCreate, Entity: task("t1", "One")}
	applyForward(t, c, r1)
	l.Append(r1)

	if _, ok, err := l.Undo(); !ok || err != nil {
		t.Fatalf("undo: ok=%v err=%v", ok, err)
	}
	if !l.CanRedo() {
		t.Fatalf("expected redo available after undo")
	}

	r2 := Record[model.Task]{Op: OpCreate, Entity: task("t2", "Two")}
	applyForward(t, c, r2)
	l.Append(r2)

	if l.CanRedo() {
		t.Fatalf("append must discard the redo tail")
	}
	if _, ok, _ := l.Redo(); ok {
		t.Fatalf("redo after truncation must be a no-op")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 record after truncation; got %d", l.Len())
	}
}

func TestUndoRedoGatedWhenEmpty(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	l := NewLog(c)

	// Key-repeat safety: repeated calls on an empty log stay no-ops.
	for i := 0; i < 3; i++ {
		if _, ok, err := l.Undo(); ok || err != nil {
			t.Fatalf("undo on empty log: ok=%v err=%v", ok, err)
		}
		if _, ok, err := l.Redo(); ok || err != nil {
			t.Fatalf("redo on empty log: ok=%v err=%v", ok, err)
		}
	}
}

func TestUndoFailureLeavesCursor(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	l := NewLog(c)

	r := Record[model.Task]{Op: OpCreate, Entity: task("t1", "One")}
	applyForward(t, c, r)
	l.Append(r)

	// Simulate a stale log: the entity is gone from the collection.
	if _, err := c.Remove("t1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, ok, err := l.Undo(); ok || err == nil {
		t.Fatalf("expected undo to fail against inconsistent collection; ok=%v err=%v", ok, err)
	}
	if l.Cursor() != 0 {
		t.Fatalf("failed undo must not move cursor; got %d", l.Cursor())
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	c := collection.New[model.Task]("task")
	l := NewLog(c)
	r := Record[model.Task]{Op: OpCreate, Entity: task("t1", "One")}
	applyForward(t, c, r)
	l.Append(r)

	l.Clear()
	if l.CanUndo() || l.CanRedo() || l.Len() != 0 {
		t.Fatalf("clear should drop all records")
	}
}
