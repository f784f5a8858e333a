// Package store persists run history for processed batches.
package store

import (
	"context"

	"github.com/sells-group/geohash-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Input  string          `json:"input,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for batch run history.
type Store interface {
	CreateRun(ctx context.Context, input, mode, strategy string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, stats *model.BatchStats) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
