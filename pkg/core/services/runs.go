package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/db"
)

// RunReader reads stored runs
type RunReader interface {
	GetRuns(ctx context.Context) ([]db.Run, error)
	GetEntries(ctx context.Context, runID string) ([]db.Entry, error)
}

// ListRuns returns stored runs, optionally only those for one week, newest first
func ListRuns(ctx context.Context, store RunReader, logger *zap.Logger, week string) ([]db.Run, error) {
	logger.Debug("Fetching runs", zap.String("week", week))
	runs, err := store.GetRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	if week == "" {
		return runs, nil
	}

	var filtered []db.Run
	for _, r := range runs {
		if r.Week == week {
			filtered = append(filtered, r)
		}
	}
	logger.Debug("Filtered runs", zap.Int("total", len(runs)), zap.Int("matching", len(filtered)))
	return filtered, nil
}

// RunEntries returns the stored entries of a run, grouped by troop in the order stored
func RunEntries(ctx context.Context, store RunReader, logger *zap.Logger, runID string) (map[string][]db.Entry, []string, error) {
	if runID == "" {
		return nil, nil, fmt.Errorf("run id is required")
	}

	entries, err := store.GetEntries(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("run %s has no entries", runID)
	}

	byTroop := make(map[string][]db.Entry)
	var troops []string
	for _, e := range entries {
		if _, seen := byTroop[e.Troop]; !seen {
			troops = append(troops, e.Troop)
		}
		byTroop[e.Troop] = append(byTroop[e.Troop], e)
	}

	logger.Debug("Fetched run entries", zap.String("run_id", runID), zap.Int("entries", len(entries)), zap.Int("troops", len(troops)))
	return byTroop, troops, nil
}
