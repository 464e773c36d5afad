// Package runstore persists finished simulation runs to SQLite. The
// output document is stored as the JSON text handed in, so reads return
// byte-for-byte what the run produced.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/satwerk/gravsim/internal/rangestore"
)

// ErrNotFound is returned when no run matches a lookup.
var ErrNotFound = errors.New("runstore: run not found")

// Run is one persisted simulation run. Data is the output document
// exactly as saved.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	Status     string
	Iterations int
	Agents     int
	Data       []byte
}

// Document decodes the persisted output document.
func (r *Run) Document() (rangestore.Document, error) {
	var doc rangestore.Document
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, fmt.Errorf("runstore: decode run %d: %w", r.ID, err)
	}
	return doc, nil
}

// Meta is the per-run row without the document payload.
type Meta struct {
	ID         int64
	CreatedAt  time.Time
	Status     string
	Iterations int
	Agents     int
}

// Store wraps the SQLite handle. Safe for concurrent use; the pool is
// capped at one connection, which SQLite prefers for writers.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("runstore: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps readers unblocked while a run is being saved.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS simulations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			status TEXT NOT NULL,
			iterations INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_created ON simulations(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a run and returns its assigned id.
func (s *Store) Save(ctx context.Context, status string, iterations, agents int, data []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO simulations(created_at, status, iterations, agents, data) VALUES(?,?,?,?,?)`,
		time.Now().UTC().Format(time.RFC3339Nano), status, iterations, agents, string(data))
	if err != nil {
		return 0, fmt.Errorf("runstore: save: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recently saved run.
func (s *Store) Latest(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, status, iterations, agents, data
		 FROM simulations ORDER BY id DESC LIMIT 1`)
	return scanRun(row)
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, status, iterations, agents, data
		 FROM simulations WHERE id = ?`, id)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var (
		r       Run
		created string
		data    string
	)
	err := row.Scan(&r.ID, &created, &r.Status, &r.Iterations, &r.Agents, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("runstore: scan: %w", err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	r.Data = []byte(data)
	return &r, nil
}

// List returns run metadata, newest first, up to limit rows.
func (s *Store) List(ctx context.Context, limit int) ([]Meta, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, status, iterations, agents
		 FROM simulations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runstore: list: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var (
			m       Meta
			created string
		)
		if err := rows.Scan(&m.ID, &created, &m.Status, &m.Iterations, &m.Agents); err != nil {
			return nil, fmt.Errorf("runstore: scan: %w", err)
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, m)
	}
	return out, rows.Err()
}
