package db

import "context"

// RunStore defines the interface for schedule run database operations
type RunStore interface {
	GetRuns(ctx context.Context) ([]Run, error)
	GetEntries(ctx context.Context, runID string) ([]Entry, error)
	InsertRun(ctx context.Context, run *Run, entries []Entry) error
}
