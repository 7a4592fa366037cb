package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/optimizer"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
	"github.com/jakechorley/camp-scheduler/pkg/db"
)

// RunWriter persists finished runs
type RunWriter interface {
	InsertRun(ctx context.Context, run *db.Run, entries []db.Entry) error
}

// Week is one roster to schedule
type Week struct {
	// Label identifies the session, usually its start date
	Label  string
	Troops []*model.Troop
}

// ScheduleResult represents the outcome of one weekly run
type ScheduleResult struct {
	Run      *db.Run
	Schedule *model.Schedule
	Report   *report.Report
	Outcome  *optimizer.Outcome
}

// GenerateSchedule allocates and repairs the schedule for one week and builds its report.
// The run is stored when store is non-nil.
func GenerateSchedule(ctx context.Context, store RunWriter, cfg *config.Config, catalog *model.Catalog, logger *zap.Logger, week Week) (*ScheduleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(week.Troops) == 0 {
		return nil, fmt.Errorf("week %q has no troops", week.Label)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	policy, err := allocator.PolicyByName(cfg.FillPolicy)
	if err != nil {
		return nil, err
	}

	logger = logger.With(zap.String("week", week.Label))
	logger.Debug("Generating schedule", zap.Int("troops", len(week.Troops)), zap.String("policy", policy.Name()))

	// Every run owns its validator and schedule
	validator := constraints.New()
	engine := allocator.NewEngine(catalog, validator, policy, logger)

	result, err := engine.Allocate(week.Troops)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate week %q: %w", week.Label, err)
	}

	opt := optimizer.New(engine, optimizer.Options{
		MaxRounds:            cfg.MaxRepairRounds,
		ProtectedRank:        cfg.ProtectedRank,
		StaffSpreadThreshold: cfg.StaffSpreadThreshold,
		MaxForcedViolations:  cfg.MaxForcedViolations,
	}, logger)

	outcome, err := opt.Run(result.Schedule, result.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to repair week %q: %w", week.Label, err)
	}

	rep := report.Build(result.Schedule, validator, result.Journal, outcome.Info())
	run := db.NewRun(week.Label, policy.Name(), result.Schedule, rep)

	logger.Info("Schedule generated",
		zap.String("run_id", run.ID),
		zap.Int("hard", rep.Counts.Hard),
		zap.Int("soft", rep.Counts.Soft),
		zap.Int("score", rep.Counts.Score),
		zap.Int("top5_met", rep.Top5Met),
		zap.Int("top5_requested", rep.Top5Requested),
		zap.Int("missing_mandatory", len(rep.MissingMandatory)))

	if store != nil {
		entries := db.ScheduleEntries(run.ID, result.Schedule)
		logger.Debug("Storing run", zap.String("run_id", run.ID), zap.Int("entries", len(entries)))
		if err := store.InsertRun(ctx, run, entries); err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
	}

	return &ScheduleResult{Run: run, Schedule: result.Schedule, Report: rep, Outcome: outcome}, nil
}

// GenerateWeeks runs independent weeks concurrently, at most cfg.MaxConcurrentRuns at a time.
// Results are returned in input order. The first failure cancels the weeks not yet started.
func GenerateWeeks(ctx context.Context, store RunWriter, cfg *config.Config, catalog *model.Catalog, logger *zap.Logger, weeks []Week) ([]*ScheduleResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := cfg.MaxConcurrentRuns
	if limit <= 0 {
		limit = 1
	}

	logger.Debug("Generating weeks", zap.Int("weeks", len(weeks)), zap.Int("concurrency", limit))

	results := make([]*ScheduleResult, len(weeks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, week := range weeks {
		g.Go(func() error {
			res, err := GenerateSchedule(gctx, store, cfg, catalog, logger, week)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
