// Package model holds the shared types persisted by the run-history store.
package model

import "time"

// RunStatus tracks the lifecycle of one batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BatchStats is the persisted outcome summary of one routed batch.
type BatchStats struct {
	Records     int    `json:"records"`
	Enriched    int    `json:"enriched"`
	Unchanged   int    `json:"unchanged"`
	Failed      int    `json:"failed"`
	Disposition string `json:"disposition"`
}

// Run is one processed input batch.
type Run struct {
	ID        string      `json:"id"`
	Input     string      `json:"input"`
	Mode      string      `json:"mode"`
	Strategy  string      `json:"strategy"`
	Status    RunStatus   `json:"status"`
	Stats     *BatchStats `json:"stats,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
