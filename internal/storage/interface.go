// Package storage persists migration run history behind a pluggable store
// interface. Backends register themselves with the default registry; the
// entrypoint selects one by configuration.
package storage

import (
	"time"
)

// Run is one recorded migration run.
type Run struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Status      string    `json:"status"`
	Pipelines   int       `json:"pipelines"`
	Activities  int       `json:"activities"`
	Diagnostics int       `json:"diagnostics"`
	// Report is the JSON-rendered run summary.
	Report []byte `json:"-"`
}

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
)

// Store is the run-history persistence interface.
type Store interface {
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit, offset int) ([]*Run, error)
	Health() error
	Close() error
}

// StoreConfig carries backend-specific connection settings.
type StoreConfig map[string]string

// Factory creates a store from its configuration.
type Factory interface {
	Create(config StoreConfig) (Store, error)
}
