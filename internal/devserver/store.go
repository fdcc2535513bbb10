package devserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"oneflow-cli/internal/model"

	_ "modernc.org/sqlite"
)

const dbFileName = "devserver.sqlite"

var errNotFound = errors.New("not found")

// store persists entities as JSON documents in sqlite. The dev server is a
// stand-in for the portal backend, not a modeling exercise; a document table
// per entity type keeps it honest and small.
type store struct {
	db *sql.DB
}

func openStore(ctx context.Context, dir string) (*store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, err
	}
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
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &store{db: db}, nil
}

func (s *store) Close() error { return s.db.Close() }

func listDocs[E any](ctx context.Context, s *store, table string) ([]E, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+table+` ORDER BY created_at_unixms;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []E{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e E
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func getDoc[E any](ctx context.Context, s *store, table, id string) (E, error) {
	var zero E
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM `+table+` WHERE id = ?;`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, errNotFound
	}
	if err != nil {
		return zero, err
	}
	var e E
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return zero, err
	}
	return e, nil
}

func putDoc(ctx context.Context, s *store, table, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+`(id, data, created_at_unixms) VALUES(?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data=excluded.data;`,
		id, string(b), time.Now().UnixMilli())
	return err
}

func deleteDoc(ctx context.Context, s *store, table, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

func (s *store) ListProjects(ctx context.Context) ([]model.Project, error) {
	return listDocs[model.Project](ctx, s, "projects")
}

func (s *store) GetProject(ctx context.Context, id string) (model.Project, error) {
	return getDoc[model.Project](ctx, s, "projects", id)
}

func (s *store) PutProject(ctx context.Context, p model.Project) error {
	return putDoc(ctx, s, "projects", p.ID, p)
}

func (s *store) DeleteProject(ctx context.Context, id string) error {
	return deleteDoc(ctx, s, "projects", id)
}

func (s *store) ListTasks(ctx context.Context) ([]model.Task, error) {
	return listDocs[model.Task](ctx, s, "tasks")
}

func (s *store) GetTask(ctx context.Context, id string) (model.Task, error) {
	return getDoc[model.Task](ctx, s, "tasks", id)
}

func (s *store) PutTask(ctx context.Context, t model.Task) error {
	return putDoc(ctx, s, "tasks", t.ID, t)
}

func (s *store) DeleteTask(ctx context.Context, id string) error {
	return deleteDoc(ctx, s, "tasks", id)
}
