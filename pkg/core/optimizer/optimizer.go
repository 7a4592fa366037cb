package optimizer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// Pass names, used in logs and Outcome.PerPass
const (
	PassGaps       = "gaps"
	PassTop5       = "top5-recovery"
	PassMandatory  = "mandatory-recovery"
	PassViolations = "violation-fixing"
	PassClustering = "area-clustering"
	PassStaff      = "staff-balancing"
)

// Options bound and tune the repair loop
type Options struct {
	// MaxRounds caps the number of repair rounds
	MaxRounds int

	// ProtectedRank: entries ranked at or above this index (0-based) are never displaced
	// to recover a Top 5 preference
	ProtectedRank int

	// StaffSpreadThreshold is the busiest-minus-quietest slot load tolerated before balancing
	StaffSpreadThreshold int

	// MaxForcedViolations bounds the soft violations a forced Top 5 placement may add
	MaxForcedViolations int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxRounds:            25,
		ProtectedRank:        15,
		StaffSpreadThreshold: 2,
		MaxForcedViolations:  2,
	}
}

// withDefaults replaces zero values with the defaults
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxRounds <= 0 {
		o.MaxRounds = d.MaxRounds
	}
	if o.ProtectedRank <= 0 {
		o.ProtectedRank = d.ProtectedRank
	}
	if o.StaffSpreadThreshold <= 0 {
		o.StaffSpreadThreshold = d.StaffSpreadThreshold
	}
	if o.MaxForcedViolations <= 0 {
		o.MaxForcedViolations = d.MaxForcedViolations
	}
	return o
}

// Optimizer repairs and improves an allocated schedule
type Optimizer struct {
	engine    *allocator.Engine
	validator *constraints.Validator
	opts      Options
	logger    *zap.Logger
}

// New creates an optimizer that reuses the engine's gap filling and validator
func New(engine *allocator.Engine, opts Options, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		engine:    engine,
		validator: engine.Validator(),
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Outcome reports how the repair loop ended
type Outcome struct {
	// Rounds is the number of rounds run
	Rounds int

	// FixedPoint is true when the last round changed nothing; false means the round cap was hit
	FixedPoint bool

	// Mutations is the number of accepted changes
	Mutations int

	// PerPass counts accepted changes by pass
	PerPass map[string]int
}

// Info converts the outcome for the report
func (o *Outcome) Info() report.RunInfo {
	return report.RunInfo{Rounds: o.Rounds, FixedPoint: o.FixedPoint, Mutations: o.Mutations}
}

// Run repairs the schedule in bounded rounds until a round changes nothing or the cap is hit.
// Every accepted change strictly lowers the schedule's potential, so rounds cannot cycle.
func (o *Optimizer) Run(s *model.Schedule, journal *report.Journal) (*Outcome, error) {
	r := &repair{Optimizer: o, s: s, catalog: s.Catalog(), journal: journal}
	r.refresh()

	outcome := &Outcome{PerPass: make(map[string]int)}

	passes := []struct {
		name string
		fn   func() (int, error)
	}{
		{PassGaps, r.fillGaps},
		{PassTop5, r.recoverTop5},
		{PassMandatory, r.recoverMandatory},
		{PassViolations, r.fixViolations},
		{PassClustering, r.clusterAreas},
		{PassStaff, r.balanceStaff},
		{PassGaps, r.fillGaps},
	}

	for round := 1; round <= o.opts.MaxRounds; round++ {
		changed := 0
		for _, pass := range passes {
			n, err := pass.fn()
			if err != nil {
				return nil, fmt.Errorf("%s pass failed in round %d: %w", pass.name, round, err)
			}
			changed += n
			outcome.PerPass[pass.name] += n
		}

		if err := s.Verify(); err != nil {
			return nil, fmt.Errorf("repair round %d broke a schedule invariant: %w", round, err)
		}

		outcome.Rounds = round
		outcome.Mutations += changed
		o.logger.Debug("Repair round complete",
			zap.Int("round", round),
			zap.Int("changes", changed),
			zap.Int("gaps", r.current.gaps),
			zap.Int("missingTop5", r.current.missingTop5),
			zap.Int("score", r.current.score))

		if changed == 0 {
			outcome.FixedPoint = true
			break
		}
	}

	if !outcome.FixedPoint {
		o.logger.Warn("Repair round cap reached before a fixed point", zap.Int("rounds", outcome.Rounds))

		// The cap must never leave a slot empty
		n, err := r.fillGaps()
		if err != nil {
			return nil, fmt.Errorf("final gap fill failed: %w", err)
		}
		outcome.Mutations += n
		outcome.PerPass[PassGaps] += n
	}

	o.logger.Info("Repair complete",
		zap.Int("rounds", outcome.Rounds),
		zap.Bool("fixedPoint", outcome.FixedPoint),
		zap.Int("mutations", outcome.Mutations))

	return outcome, nil
}

// repair holds the state of one Run
type repair struct {
	*Optimizer
	s       *model.Schedule
	catalog *model.Catalog
	journal *report.Journal

	// current is the potential of the schedule as it stands
	current potential
}

// refresh recomputes the current potential after a change made outside attempt
func (r *repair) refresh() {
	r.current = r.measure()
}

// attempt applies a tentative change. The change is kept only if apply succeeds and accept
// approves the before/after potentials (nil accept means a strict lexicographic improvement);
// otherwise the schedule is rolled back.
func (r *repair) attempt(apply func() (bool, error), accept func(before, after potential) bool) (bool, error) {
	before := r.current
	cp := r.s.Checkpoint()

	ok, err := apply()
	if err != nil {
		return false, err
	}

	var after potential
	if ok {
		after = r.measure()
		if accept == nil {
			ok = after.less(before)
		} else {
			ok = accept(before, after)
		}
	}

	if !ok {
		r.s.Rollback(cp)
		return false, nil
	}
	r.current = after
	return true, nil
}

// fillGaps reuses the engine's gap filling and zero-gap guarantee
func (r *repair) fillGaps() (int, error) {
	if r.s.Gaps() == 0 {
		return 0, nil
	}
	before := r.s.Len()
	if err := r.engine.FillGaps(r.s, r.journal); err != nil {
		return 0, err
	}
	if err := r.engine.EnsureNoGaps(r.s, r.journal); err != nil {
		return 0, err
	}
	r.refresh()
	return r.s.Len() - before, nil
}
