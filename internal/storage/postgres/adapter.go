// Package postgres is the PostgreSQL run-store backend.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "fabric-migrator/internal/common/errors"
	"fabric-migrator/internal/storage"
)

func init() {
	storage.Register("postgres", &factory{})
}

type factory struct{}

func (f *factory) Create(config storage.StoreConfig) (storage.Store, error) {
	dsn := config["dsn"]
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a dsn")
	}
	return New(dsn)
}

// Store persists runs in a PostgreSQL database.
type Store struct {
	db *sql.DB
}

// New connects to the database and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
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
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
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
		INSERT INTO migration_runs
			(id, started_at, completed_at, status, pipelines, activities, diagnostics, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			completed_at = EXCLUDED.completed_at,
			status = EXCLUDED.status,
			pipelines = EXCLUDED.pipelines,
			activities = EXCLUDED.activities,
			diagnostics = EXCLUDED.diagnostics,
			report = EXCLUDED.report`,
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
		FROM migration_runs WHERE id = $1`, id)
	return scanRun(row)
}

func (s *Store) ListRuns(limit, offset int) ([]*storage.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, completed_at, status, pipelines, activities, diagnostics, report
		FROM migration_runs ORDER BY started_at DESC LIMIT $1 OFFSET $2`, limit, offset)
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
