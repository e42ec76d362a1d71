// Package store persists finished batch runs so `digimonitor runs` can list
// history. A store failure never fails a batch; callers log and move on.
package store

import (
	"context"

	"github.com/digibook/digimonitor/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Platform model.Platform  `json:"platform,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for batch runs.
type Store interface {
	// SaveReport stores a finished report and its per-target outcomes,
	// returning the created run record.
	SaveReport(ctx context.Context, report *model.Report) (*model.Run, error)
	// ListRuns returns stored runs, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}
