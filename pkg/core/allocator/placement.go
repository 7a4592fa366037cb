package allocator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// option is a candidate placement with its validator assessment
type option struct {
	entry      *model.Entry
	assessment constraints.Assessment

	// dayLoad is the troop's entry count on the option's day when evaluated
	dayLoad int
}

// better orders options: fewest soft violations, earliest slot of the day,
// then the day the troop is already busiest on, then the earliest day.
// Slot number stands in for chronology; a strict week order would never reach the busiest-day tie-break.
func better(a, b *option) bool {
	if sa, sb := len(a.assessment.Soft), len(b.assessment.Soft); sa != sb {
		return sa < sb
	}
	if a.entry.Start.Slot != b.entry.Start.Slot {
		return a.entry.Start.Slot < b.entry.Start.Slot
	}
	if a.dayLoad != b.dayLoad {
		return a.dayLoad > b.dayLoad
	}
	return a.entry.Start.Day < b.entry.Start.Day
}

// placer evaluates and commits placements into one schedule
type placer struct {
	*Engine
	s       *model.Schedule
	journal *report.Journal
}

// evaluate assesses the troop taking the activity at start. Returns nil when the troop
// is not free for the whole span, or when the placement breaks a hard rule
// (or any rule, if relaxed is false).
func (p *placer) evaluate(t *model.Troop, a *model.Activity, start model.TimeSlot, relaxed bool) *option {
	e := model.NewEntry(t, a, start)
	if !p.s.IsRangeFree(t, start, e.Span) {
		return nil
	}

	assessment := p.validator.Check(p.s, e)
	if !assessment.Allowed() || (!relaxed && !assessment.Clean()) {
		return nil
	}
	return &option{entry: e, assessment: assessment, dayLoad: p.s.DayCount(t, start.Day)}
}

// best returns the best option among the candidate starts, or nil
func (p *placer) best(t *model.Troop, a *model.Activity, starts []model.TimeSlot, relaxed bool) *option {
	var chosen *option
	for _, start := range starts {
		o := p.evaluate(t, a, start, relaxed)
		if o != nil && (chosen == nil || better(o, chosen)) {
			chosen = o
		}
	}
	return chosen
}

// first returns the first option in the order of starts, or nil
func (p *placer) first(t *model.Troop, a *model.Activity, starts []model.TimeSlot, relaxed bool) *option {
	for _, start := range starts {
		if o := p.evaluate(t, a, start, relaxed); o != nil {
			return o
		}
	}
	return nil
}

// bestStrictThenRelaxed tries a clean placement first and only then relaxes soft rules
func (p *placer) bestStrictThenRelaxed(t *model.Troop, a *model.Activity, starts []model.TimeSlot) *option {
	if o := p.best(t, a, starts, false); o != nil {
		return o
	}
	return p.best(t, a, starts, true)
}

// commit applies the option, journaling any soft rules it breaks
func (p *placer) commit(o *option, phase, reason string) error {
	if err := p.s.Add(o.entry); err != nil {
		return fmt.Errorf("failed to place %s during %s: %w", o.entry, phase, err)
	}

	if len(o.assessment.Soft) > 0 {
		p.journal.Relax(report.Relaxation{
			Phase:      phase,
			Troop:      o.entry.Troop.Name,
			Activity:   o.entry.Activity.Name,
			Slot:       o.entry.Start,
			Categories: o.assessment.Soft,
			Reason:     reason,
		})
		p.logger.Info("Relaxed soft constraints",
			zap.String("phase", phase),
			zap.String("troop", o.entry.Troop.Name),
			zap.String("activity", o.entry.Activity.Name),
			zap.Stringer("slot", o.entry.Start),
			zap.Any("categories", o.assessment.Soft),
			zap.String("reason", reason))
	}
	return nil
}

// reserved reports whether the activity is governed by the mandatory phases for the troop
// and must not be placed as an ordinary preference or fill
func (p *placer) reserved(t *model.Troop, name string) bool {
	return p.catalog.IsMandatoryFor(t, name)
}

// usable returns the activity if the troop may take (another) session of it
func (p *placer) usable(t *model.Troop, name string) (*model.Activity, bool) {
	a, ok := p.catalog.Activity(name)
	if !ok || p.reserved(t, name) {
		return nil, false
	}
	if p.s.Has(t, name) && !a.Repeatable {
		return nil, false
	}
	return a, true
}
