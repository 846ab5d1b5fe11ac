// Package store persists analysis run records for audit. Deal records
// themselves are never stored, only the report artifact and how it was
// produced.
package store

import (
	"context"
	"time"

	"github.com/sells-group/revwatch/internal/model"
)

// AnalysisRun is one recorded analysis invocation.
type AnalysisRun struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`           // "rules" or "provider"
	Provider  string        `json:"provider,omitempty"`
	Reason    string        `json:"reason,omitempty"` // fallback reason, if any
	Files     []string      `json:"files,omitempty"`
	DealCount int           `json:"deal_count"`
	Summary   model.Summary `json:"summary"`
	Report    *model.Report `json:"report,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store defines the run-history persistence interface.
type Store interface {
	// SaveRun persists a run, assigning an ID when none is set.
	SaveRun(ctx context.Context, run *AnalysisRun) error
	GetRun(ctx context.Context, id string) (*AnalysisRun, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]AnalysisRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
