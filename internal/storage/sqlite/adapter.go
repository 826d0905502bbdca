// Package sqlite is the SQLite run-store backend.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	apperrors "fabric-migrator/internal/common/errors"
	"fabric-migrator/internal/storage"
)

func init() {
	storage.Register("sqlite", &factory{})
}

type factory struct{}

func (f *factory) Create(config storage.StoreConfig) (storage.Store, error) {
	path := config["path"]
	if path == "" {
		return nil, fmt.Errorf("sqlite store requires a path")
	}
	return New(path)
}

// Store persists runs in a SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS migration_runs (
			id TEXT PRIMARY KEY,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			status TEXT NOT NULL,
			pipelines INTEGER NOT NULL,
			activities INTEGER NOT NULL,
			diagnostics INTEGER NOT NULL,
			report TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *Store) SaveRun(run *storage.Run) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO migration_runs
			(id, started_at, completed_at, status, pipelines, activities, diagnostics, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.CompletedAt, run.Status,
		run.Pipelines, run.Activities, run.Diagnostics, string(run.Report))
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(id string) (*storage.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, completed_at, status, pipelines, activities, diagnostics, report
		FROM migration_runs WHERE id = ?`, id)
	return scanRun(row)
}

func (s *Store) ListRuns(limit, offset int) ([]*storage.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, status, pipelines, activities, diagnostics, report
		FROM migration_runs ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Health() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*storage.Run, error) {
	var run storage.Run
	var report string
	err := row.Scan(&run.ID, &run.StartedAt, &run.CompletedAt, &run.Status,
		&run.Pipelines, &run.Activities, &run.Diagnostics, &report)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Report = []byte(report)
	return &run, nil
}
