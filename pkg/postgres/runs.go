package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/camp-scheduler/pkg/db"
)

// GetRuns retrieves all run records, newest first
func (d *DB) GetRuns(ctx context.Context) ([]db.Run, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, week, policy, troops, entries, score, hard, soft, gaps,
		       top5_met, top5_wanted, rounds, fixed_point, created_at
		FROM run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		if err := rows.Scan(&r.ID, &r.Week, &r.Policy, &r.Troops, &r.Entries, &r.Score, &r.Hard, &r.Soft, &r.Gaps,
			&r.Top5Met, &r.Top5Wanted, &r.Rounds, &r.FixedPoint, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetEntries retrieves the entries of one run in chronological order
func (d *DB) GetEntries(ctx context.Context, runID string) ([]db.Entry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, troop, activity, day, slot, span
		FROM entry
		WHERE run_id = $1
		ORDER BY troop, array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday'], day), slot
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []db.Entry
	for rows.Next() {
		var e db.Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Troop, &e.Activity, &e.Day, &e.Slot, &e.Span); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// InsertRun inserts a run and its entries in one transaction
func (d *DB) InsertRun(ctx context.Context, run *db.Run, entries []db.Entry) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO run (id, week, policy, troops, entries, score, hard, soft, gaps,
		                 top5_met, top5_wanted, rounds, fixed_point)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`, run.ID, run.Week, run.Policy, run.Troops, run.Entries, run.Score, run.Hard, run.Soft, run.Gaps,
		run.Top5Met, run.Top5Wanted, run.Rounds, run.FixedPoint).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO entry (id, run_id, troop, activity, day, slot, span)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, e.ID, e.RunID, e.Troop, e.Activity, e.Day, e.Slot, e.Span)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

var _ db.RunStore = (*DB)(nil)
