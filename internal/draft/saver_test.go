package draft

import (
	"context"
	"testing"
	"time"

	"oneflow-cli/internal/form"
	"oneflow-cli/internal/model"
)

func waitForDraft(t *testing.T, s Store, key string, out any) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ok, err := s.Load(context.Background(), key, out)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if ok {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestSaverCoalescesToLastWrite(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, 30*time.Millisecond)
	key := Key(model.KindProject, "p1")

	// Simulated keystrokes within one debounce window.
	saver.Notify(key, form.ProjectDraft{Name: "P"})
	saver.Notify(key, form.ProjectDraft{Name: "Po"})
	saver.Notify(key, form.ProjectDraft{Name: "Portal"})

	var got form.ProjectDraft
	if !waitForDraft(t, store, key, &got) {
		t.Fatalf("debounced save never fired")
	}
	if got.Name != "Portal" {
		t.Fatalf("expected last write to win; got %q", got.Name)
	}
}

func TestSaverCancelDropsPending(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, 30*time.Millisecond)
	key := Key(model.KindTask, "t1")

	saver.Notify(key, form.TaskDraft{Title: "doomed"})
	saver.Cancel(key)

	time.Sleep(100 * time.Millisecond)
	var got form.TaskDraft
	ok, err := store.Load(context.Background(), key, &got)
	if err != nil || ok {
		t.Fatalf("canceled draft must not be written: ok=%v err=%v", ok, err)
	}
}

func TestSaverCancelBeatsInFlightBatch(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, time.Hour)
	key := Key(model.KindProject, "p1")
	ctx := context.Background()

	saver.Notify(key, form.ProjectDraft{Name: "stale"})

	// Snapshot the batch the way the timer does, then let a successful
	// submit cancel and clear the entry before the batch is written.
	saver.mu.Lock()
	batch := saver.pending
	saver.pending = map[string][]byte{}
	saver.mu.Unlock()

	saver.Cancel(key)
	if err := store.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if err := saver.writeBatch(ctx, batch); err != nil {
		t.Fatalf("writeBatch: %v", err)
	}

	var got form.ProjectDraft
	ok, err := store.Load(ctx, key, &got)
	if err != nil || ok {
		t.Fatalf("cancelled key must not be resurrected: ok=%v err=%v", ok, err)
	}
}

func TestSaverCancelDuringSaveClearsRowAgain(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, time.Hour)
	key := Key(model.KindTask, "t1")
	ctx := context.Background()

	// The save was already past the tombstone check when the cancel and
	// clear arrived, and its write lands after them. The post-save check
	// must clear the row again.
	saver.Cancel(key)
	if err := store.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Save(ctx, key, form.TaskDraft{Title: "stale"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saver.finishKey(ctx, key)

	var got form.TaskDraft
	ok, err := store.Load(ctx, key, &got)
	if err != nil || ok {
		t.Fatalf("write landing after the cancel must stay cleared: ok=%v err=%v", ok, err)
	}
}

func TestSaverNotifyLiftsTombstone(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, time.Hour)
	key := Key(model.KindProject, "p2")
	ctx := context.Background()

	saver.Notify(key, form.ProjectDraft{Name: "first"})
	saver.Cancel(key)
	saver.Notify(key, form.ProjectDraft{Name: "second"})
	if err := saver.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var got form.ProjectDraft
	ok, err := store.Load(ctx, key, &got)
	if err != nil || !ok {
		t.Fatalf("editing again after a cancel must persist: ok=%v err=%v", ok, err)
	}
	if got.Name != "second" {
		t.Fatalf("draft after re-edit: %q", got.Name)
	}
}

func TestSaverFlushWritesImmediately(t *testing.T) {
	t.Parallel()

	store := Store{Dir: t.TempDir()}
	saver := NewSaver(store, time.Hour) // window never elapses on its own
	key := Key(model.KindProject, "")

	saver.Notify(key, form.ProjectDraft{Name: "unsaved"})
	if err := saver.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var got form.ProjectDraft
	ok, err := store.Load(context.Background(), key, &got)
	if err != nil || !ok {
		t.Fatalf("Load after flush: ok=%v err=%v", ok, err)
	}
	if got.Name != "unsaved" {
		t.Fatalf("flushed draft mismatch: %q", got.Name)
	}
}
