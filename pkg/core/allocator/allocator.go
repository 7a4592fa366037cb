package allocator

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// ErrNoFallback means a free slot could not take even the universal fallback activity.
// The catalog guarantees a concurrent, repeatable fallback, so this indicates a logic error.
var ErrNoFallback = errors.New("no fallback activity can fill the slot")

// Phase names, used in logs and relaxation records
const (
	PhaseMandatory = "mandatory"
	PhaseTop5      = "top5"
	PhaseRanked    = "ranked"
	PhaseDeferred  = "deferred-mandatory"
	PhaseGapFill   = "gap-fill"
	PhaseZeroGap   = "zero-gap"
)

// Engine builds a schedule from scratch in five phases
type Engine struct {
	catalog   *model.Catalog
	validator *constraints.Validator
	policy    FillPolicy
	logger    *zap.Logger
}

// NewEngine creates an engine. A nil policy means PreferenceFirst; a nil logger discards logs.
func NewEngine(catalog *model.Catalog, validator *constraints.Validator, policy FillPolicy, logger *zap.Logger) *Engine {
	if validator == nil {
		validator = constraints.New()
	}
	if policy == nil {
		policy = PreferenceFirst{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, validator: validator, policy: policy, logger: logger}
}

// Validator returns the validator the engine places against
func (e *Engine) Validator() *constraints.Validator {
	return e.validator
}

// Result is the output of an allocation
type Result struct {
	Schedule *model.Schedule
	Journal  *report.Journal
}

// run holds the state of one allocation
type run struct {
	placer
	deferred []deferral
}

// deferral is a mandatory activity that could not be placed in phase one
type deferral struct {
	troop     *model.Troop
	mandatory model.Mandatory
}

// Allocate runs the five phases for the roster and returns a gap-free schedule
func (e *Engine) Allocate(troops []*model.Troop) (*Result, error) {
	s, err := model.NewSchedule(e.catalog, troops)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	r := &run{placer: placer{Engine: e, s: s, journal: report.NewJournal()}}
	r.recordInvalidReferences()

	// Phase 1: commissioner-governed and closing activities
	if err := r.placeMandatory(); err != nil {
		return nil, err
	}
	e.logger.Debug("Mandatory phase complete", zap.Int("entries", s.Len()), zap.Int("deferred", len(r.deferred)))

	// Phase 2: Top 5, soft rules may be relaxed
	if err := r.placePreferences(0, 5, PhaseTop5, true); err != nil {
		return nil, err
	}
	e.logger.Debug("Top 5 phase complete", zap.Int("entries", s.Len()))

	// Phase 3: Top 6-20, strict
	if err := r.placePreferences(5, 20, PhaseRanked, false); err != nil {
		return nil, err
	}
	e.logger.Debug("Ranked phase complete", zap.Int("entries", s.Len()))

	// Phase 4: deferred mandatory, then gap fill
	if err := r.placeDeferred(); err != nil {
		return nil, err
	}
	if err := e.FillGaps(s, r.journal); err != nil {
		return nil, err
	}
	e.logger.Debug("Gap fill phase complete", zap.Int("entries", s.Len()), zap.Int("gaps", s.Gaps()))

	// Phase 5: nothing may remain empty
	if err := e.EnsureNoGaps(s, r.journal); err != nil {
		return nil, err
	}

	if err := s.Verify(); err != nil {
		return nil, fmt.Errorf("allocation broke a schedule invariant: %w", err)
	}

	e.logger.Info("Allocation complete",
		zap.Int("troops", len(troops)),
		zap.Int("entries", s.Len()),
		zap.Int("relaxations", len(r.journal.Relaxations())))

	return &Result{Schedule: s, Journal: r.journal}, nil
}

// recordInvalidReferences journals preferences and commissioner roles the catalog does not know
func (r *run) recordInvalidReferences() {
	for _, t := range r.s.Troops() {
		if _, ok := r.catalog.MandatoryActivities(t); !ok {
			ref := report.InvalidReference{Troop: t.Name, Kind: "commissioner", Name: t.Commissioner}
			if r.journal.Invalid(ref) {
				r.logger.Warn("Unknown commissioner role, commissioner activities skipped",
					zap.String("troop", t.Name), zap.String("commissioner", t.Commissioner))
			}
		}
		for _, name := range t.Preferences {
			if _, ok := r.catalog.Activity(name); ok {
				continue
			}
			ref := report.InvalidReference{Troop: t.Name, Kind: "activity", Name: name}
			if r.journal.Invalid(ref) {
				r.logger.Warn("Preference names an unknown activity",
					zap.String("troop", t.Name), zap.String("activity", name))
			}
		}
	}
}

// placeMandatory places each troop's closing and commissioner activities on their designated
// days. Placements that do not fit are deferred to phase four, never dropped.
func (r *run) placeMandatory() error {
	for _, t := range r.s.Troops() {
		mandatory, _ := r.catalog.MandatoryActivities(t)
		for _, m := range mandatory {
			if r.holds(t, m) {
				continue
			}

			var o *option
			if m.Kind == model.MandatoryClosing {
				// Closing activity goes in the latest slot of its day
				starts := model.DaySlots(m.Day)
				slices.Reverse(starts)
				if o = r.first(t, m.Activity, starts, false); o == nil {
					o = r.first(t, m.Activity, starts, true)
				}
			} else {
				o = r.bestStrictThenRelaxed(t, m.Activity, model.DaySlots(m.Day))
			}

			if o == nil {
				r.deferred = append(r.deferred, deferral{troop: t, mandatory: m})
				r.logger.Debug("Deferred mandatory activity",
					zap.String("troop", t.Name), zap.String("activity", m.Activity.Name), zap.Stringer("day", m.Day))
				continue
			}
			if err := r.commit(o, PhaseMandatory, "mandatory "+m.Kind.String()+" activity"); err != nil {
				return err
			}
		}
	}
	return nil
}

// holds reports whether the troop already satisfies the mandatory activity
func (r *run) holds(t *model.Troop, m model.Mandatory) bool {
	if m.Kind != model.MandatoryClosing {
		return r.s.Has(t, m.Activity.Name)
	}
	for _, e := range r.s.EntriesForTroopOnDay(t, m.Day) {
		if e.Activity == m.Activity {
			return true
		}
	}
	return false
}

// placePreferences walks ranks [from, to) rank-major: every troop's rank-n preference is tried
// before any troop's rank n+1, so no troop monopolises contested areas
func (r *run) placePreferences(from, to int, phase string, relax bool) error {
	for rank := from; rank < to; rank++ {
		for _, t := range r.s.Troops() {
			if rank >= len(t.Preferences) {
				continue
			}
			name := t.Preferences[rank]
			a, ok := r.usable(t, name)
			if !ok || r.s.Has(t, name) {
				continue
			}

			o := r.best(t, a, model.WeekSlots(), false)
			if o == nil && relax {
				o = r.best(t, a, model.WeekSlots(), true)
			}
			if o == nil {
				r.logger.Debug("Preference not placed",
					zap.String("phase", phase), zap.String("troop", t.Name),
					zap.String("activity", name), zap.Int("rank", rank))
				continue
			}
			if err := r.commit(o, phase, fmt.Sprintf("preference rank %d", rank+1)); err != nil {
				return err
			}
		}
	}
	return nil
}

// placeDeferred retries mandatory activities phase one could not place: first on the
// designated day, then (for commissioner activities) on any day the ordering allows
func (r *run) placeDeferred() error {
	for _, d := range r.deferred {
		t, m := d.troop, d.mandatory
		if r.holds(t, m) {
			continue
		}

		o := r.bestStrictThenRelaxed(t, m.Activity, model.DaySlots(m.Day))
		reason := "deferred mandatory activity"
		if o == nil && m.Kind != model.MandatoryClosing {
			// Earliest slot the ordering allows
			if o = r.first(t, m.Activity, model.WeekSlots(), false); o == nil {
				o = r.first(t, m.Activity, model.WeekSlots(), true)
			}
			reason = "designated day unavailable"
		}
		if o == nil {
			r.logger.Warn("Mandatory activity could not be placed",
				zap.String("troop", t.Name), zap.String("activity", m.Activity.Name), zap.Stringer("day", m.Day))
			continue
		}
		if o.entry.Day() != m.Day {
			r.logger.Info("Mandatory activity moved off its designated day",
				zap.String("troop", t.Name), zap.String("activity", m.Activity.Name),
				zap.Stringer("designated", m.Day), zap.Stringer("placed", o.entry.Start))
		}
		if err := r.commit(o, PhaseDeferred, reason); err != nil {
			return err
		}
	}
	return nil
}

// FillGaps fills every troop's free slots from the fill policy: clean placements first,
// repeated until nothing more fits, then the least-violating candidate per remaining slot.
// Slots no candidate can take are left for EnsureNoGaps.
func (e *Engine) FillGaps(s *model.Schedule, journal *report.Journal) error {
	p := &placer{Engine: e, s: s, journal: journal}

	for _, t := range s.Troops() {
		candidates := e.policy.Candidates(e.catalog, t)

		// Clean placements, one session per candidate per pass
		for progress := true; progress && len(s.FreeSlots(t)) > 0; {
			progress = false
			for _, name := range candidates {
				if len(s.FreeSlots(t)) == 0 {
					break
				}
				a, ok := p.usable(t, name)
				if !ok {
					continue
				}
				o := p.best(t, a, model.WeekSlots(), false)
				if o == nil {
					continue
				}
				if err := p.commit(o, PhaseGapFill, "gap fill"); err != nil {
					return err
				}
				progress = true
			}
		}

		// Relaxed, slot by slot
		for _, ts := range s.FreeSlots(t) {
			if !s.IsTroopFree(t, ts) {
				continue
			}
			var chosen *option
			for _, name := range candidates {
				a, ok := p.usable(t, name)
				if !ok {
					continue
				}
				o := p.evaluate(t, a, ts, true)
				if o != nil && (chosen == nil || len(o.assessment.Soft) < len(chosen.assessment.Soft)) {
					chosen = o
				}
			}
			if chosen == nil {
				continue
			}
			if err := p.commit(chosen, PhaseGapFill, "gap fill with no clean candidate"); err != nil {
				return err
			}
		}
	}
	return nil
}

// EnsureNoGaps places the least-constrained default activity into every remaining free slot,
// falling back to the universal fallback activity. Returns ErrNoFallback if even that fails.
func (e *Engine) EnsureNoGaps(s *model.Schedule, journal *report.Journal) error {
	p := &placer{Engine: e, s: s, journal: journal}

	for _, t := range s.Troops() {
		for _, ts := range s.FreeSlots(t) {
			if !s.IsTroopFree(t, ts) {
				continue
			}

			var chosen *option
			for _, name := range e.catalog.Rules.DefaultFill {
				a, ok := p.usable(t, name)
				if !ok || a.SlotsFor(t) != 1 {
					continue
				}
				o := p.evaluate(t, a, ts, true)
				if o != nil && (chosen == nil || len(o.assessment.Soft) < len(chosen.assessment.Soft)) {
					chosen = o
				}
			}

			if chosen == nil {
				chosen = p.evaluate(t, e.catalog.Fallback(), ts, true)
			}
			if chosen == nil {
				return fmt.Errorf("%w: %s at %s", ErrNoFallback, t.Name, ts)
			}
			if err := p.commit(chosen, PhaseZeroGap, "slot must not stay empty"); err != nil {
				return err
			}
		}
	}
	return nil
}
