// Package draft persists in-progress form edits so they survive navigation
// and process restarts. Entries are keyed per entity ("{kind}-draft-{id}",
// with the sentinel "new" for creates) and live in a small sqlite database
// under the client state directory.
package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oneflow-cli/internal/model"

	_ "modernc.org/sqlite"
)

const dbFileName = "drafts.sqlite"

// ErrCorrupt is returned by Load when a stored draft cannot be decoded.
// Callers fall back to the live entity's fields; the editor must still open.
var ErrCorrupt = errors.New("corrupt draft")

// Key builds the storage key for an entity draft. An empty id targets a new
// (not yet persisted) entity.
func Key(kind model.Kind, id string) string {
	if id == "" {
		id = "new"
	}
	return fmt.Sprintf("%s-draft-%s", kind, id)
}

type Store struct {
	Dir string
}

func (s Store) path() string {
	return filepath.Join(s.Dir, dbFileName)
}

func (s Store) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", s.path())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database
	// is locked" flakiness when a debounced save races a foreground clear.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS drafts (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s Store) Save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx,
		`INSERT INTO drafts(k, v, updated_at_unixms) VALUES(?, ?, ?)
		 ON CONFLICT(k) DO UPDATE SET v=excluded.v, updated_at_unixms=excluded.updated_at_unixms;`,
		key, string(b), time.Now().UnixMilli())
	return err
}

// Load decodes the stored draft for key into out. It returns (false, nil)
// when no entry exists and (false, ErrCorrupt) when the entry cannot be
// decoded; the bad row is removed so the corruption is not hit again.
func (s Store) Load(ctx context.Context, key string, out any) (bool, error) {
	db, err := s.open(ctx)
	if err != nil {
		return false, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx, `SELECT v FROM drafts WHERE k = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		_, _ = db.ExecContext(ctx, `DELETE FROM drafts WHERE k = ?;`, key)
		return false, fmt.Errorf("%w: %s", ErrCorrupt, key)
	}
	return true, nil
}

func (s Store) Clear(ctx context.Context, key string) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM drafts WHERE k = ?;`, key)
	return err
}

// Keys lists stored draft keys, most recently updated first.
func (s Store) Keys(ctx context.Context) ([]string, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT k FROM drafts ORDER BY updated_at_unixms DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
