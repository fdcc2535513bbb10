package draft

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Saver coalesces rapid draft writes: every keystroke notifies it, but only
// the last value within the debounce window reaches the store. Last-write-
// wins per key; there is no cross-key ordering to preserve.
type Saver struct {
	store    Store
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string][]byte
	// cancelled tombstones keys whose draft was just cleared. A batch
	// snapshot taken before the Cancel may still be mid-write; the tombstone
	// is re-checked around the save so that write cannot survive. Lifted by
	// the next Notify for the key.
	cancelled map[string]struct{}
	running   bool
}

func NewSaver(store Store, debounce time.Duration) *Saver {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Saver{
		store:     store,
		debounce:  debounce,
		pending:   map[string][]byte{},
		cancelled: map[string]struct{}{},
	}
}

// Notify schedules a debounced save of v under key. The value is serialized
// immediately so later mutations of the caller's draft cannot leak into an
// earlier snapshot.
func (s *Saver) Notify(key string, v any) {
	if s == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.pending[key] = b
	delete(s.cancelled, key)
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.onTimer)
		s.mu.Unlock()
		return
	}
	s.timer.Reset(s.debounce)
	s.mu.Unlock()
}

// Cancel drops any queued save for key so a pending or in-flight write
// cannot resurrect an entry the caller just cleared.
func (s *Saver) Cancel(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.pending, key)
	s.cancelled[key] = struct{}{}
	s.mu.Unlock()
}

// Flush writes all queued drafts immediately. Used on shutdown so the last
// keystrokes survive even when the window has not elapsed.
func (s *Saver) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	batch := s.pending
	s.pending = map[string][]byte{}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	return s.writeBatch(ctx, batch)
}

// writeBatch persists a snapshot taken from pending. Keys cancelled after
// the snapshot are skipped; a cancel that lands while the save is already in
// flight is honored by clearing the row again afterwards.
func (s *Saver) writeBatch(ctx context.Context, batch map[string][]byte) error {
	var firstErr error
	for k, b := range batch {
		s.mu.Lock()
		_, dead := s.cancelled[k]
		s.mu.Unlock()
		if dead {
			continue
		}

		if err := s.store.Save(ctx, k, json.RawMessage(b)); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		s.finishKey(ctx, k)
	}
	return firstErr
}

// finishKey re-checks the tombstone after a save has landed: a cancel that
// arrived while the write was in flight wins, and the row is cleared again.
func (s *Saver) finishKey(ctx context.Context, key string) {
	s.mu.Lock()
	_, dead := s.cancelled[key]
	s.mu.Unlock()
	if dead {
		_ = s.store.Clear(ctx, key)
	}
}

func (s *Saver) onTimer() {
	s.mu.Lock()
	if s.running {
		// A flush is in flight; run again shortly to pick up new values.
		if s.timer != nil {
			s.timer.Reset(s.debounce)
		}
		s.mu.Unlock()
		return
	}
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = map[string][]byte{}
	s.running = true
	s.mu.Unlock()

	// Best-effort: a failed background save is retried naturally by the next
	// keystroke; the in-memory form state is still authoritative.
	_ = s.writeBatch(context.Background(), batch)

	s.mu.Lock()
	s.running = false
	if len(s.pending) > 0 && s.timer != nil {
		s.timer.Reset(s.debounce)
	}
	s.mu.Unlock()
}
