package optimizer

import (
	"slices"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// recoverTop5 tries to give every troop its missing Top 5 preferences: first by exchanging
// sessions with another troop, then by displacing low-ranked entries, and last by forcing a
// placement that breaks a bounded number of soft rules
func (r *repair) recoverTop5() (int, error) {
	n := 0
	for _, w := range r.missingTop5() {
		if r.s.Has(w.troop, w.activity.Name) {
			continue
		}
		for _, strategy := range []func(want) (bool, error){r.exchange, r.displace, r.force} {
			ok, err := strategy(w)
			if err != nil {
				return n, err
			}
			if ok {
				n++
				break
			}
		}
	}
	return n, nil
}

// exchange trades the wanted session with a troop that holds it, giving that troop the
// wanting troop's entry from the same window. Neither troop may lose a Top 5 preference and
// the score may not get worse.
func (r *repair) exchange(w want) (bool, error) {
	t, a := w.troop, w.activity
	span := a.SlotsFor(t)

	for _, held := range r.s.EntriesForActivity(a.Name) {
		u := held.Troop
		if u == t || held.Span != span || u.IsTopFive(a.Name) || r.mandatory(held) {
			continue
		}

		mine := r.s.EntryAt(t, held.Start)
		if mine == nil || mine.Start != held.Start || mine.Span != span {
			continue
		}
		if r.mandatory(mine) || t.IsTopFive(mine.Activity.Name) {
			continue
		}

		give := model.NewEntry(u, mine.Activity, held.Start)
		if give.Span != span {
			continue
		}
		take := model.NewEntry(t, a, held.Start)

		ok, err := r.attempt(func() (bool, error) {
			return r.rearrange([]*model.Entry{held, mine}, []*model.Entry{take, give})
		}, func(before, after potential) bool {
			return after.less(before) && after.score <= before.score
		})
		if err != nil || ok {
			if ok {
				r.logger.Debug("Exchanged sessions to recover a Top 5 preference",
					zap.String("troop", t.Name), zap.String("with", u.Name),
					zap.String("activity", a.Name), zap.Stringer("slot", held.Start))
			}
			return ok, err
		}
	}
	return false, nil
}

// window is a candidate start with the entries it would displace
type window struct {
	entry   *model.Entry
	victims int

	// ranked counts the victims ranked above the protected rank
	ranked int
}

// windows returns the starts where e could go once displaceable entries are moved.
// Windows that displace no protected preference come first, then fewest displacements.
func (r *repair) windows(t *model.Troop, a *model.Activity, starts []model.TimeSlot, ok func(*model.Entry) bool) []window {
	var out []window
	for _, start := range starts {
		e := model.NewEntry(t, a, start)
		victims, movable := r.victims(e, ok)
		if !movable {
			continue
		}
		win := window{entry: e, victims: len(victims)}
		for _, v := range victims {
			if !r.displaceable(v, true) {
				win.ranked++
			}
		}
		out = append(out, win)
	}
	slices.SortStableFunc(out, func(x, y window) int {
		if x.ranked != y.ranked {
			return x.ranked - y.ranked
		}
		return x.victims - y.victims
	})
	return out
}

// displace places the preference cleanly, moving entries ranked at or below the protected rank
func (r *repair) displace(w want) (bool, error) {
	protected := func(e *model.Entry) bool { return r.displaceable(e, true) }

	for _, win := range r.windows(w.troop, w.activity, model.WeekSlots(), protected) {
		ok, err := r.attempt(func() (bool, error) {
			_, placed, err := r.placeAt(win.entry, protected, true)
			return placed, err
		}, nil)
		if err != nil || ok {
			if ok {
				r.logger.Debug("Displaced entries to recover a Top 5 preference",
					zap.String("troop", w.troop.Name), zap.String("activity", w.activity.Name),
					zap.Stringer("slot", win.entry.Start), zap.Int("displaced", win.victims))
			}
			return ok, err
		}
	}
	return false, nil
}

// force places the preference at the cost of a bounded number of soft violations, moving any
// entry that is neither mandatory nor another Top 5 preference
func (r *repair) force(w want) (bool, error) {
	unprotected := func(e *model.Entry) bool { return r.displaceable(e, false) }

	for _, win := range r.windows(w.troop, w.activity, model.WeekSlots(), unprotected) {
		var assessment constraints.Assessment
		ok, err := r.attempt(func() (bool, error) {
			var placed bool
			var err error
			assessment, placed, err = r.placeAt(win.entry, unprotected, false)
			return placed, err
		}, func(before, after potential) bool {
			return after.less(before) && after.counts.Soft-before.counts.Soft <= r.opts.MaxForcedViolations
		})
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		e := win.entry
		if len(assessment.Soft) > 0 {
			reason := "Top 5 preference forced"
			r.journal.Relax(report.Relaxation{
				Phase:      PassTop5,
				Troop:      e.Troop.Name,
				Activity:   e.Activity.Name,
				Slot:       e.Start,
				Categories: assessment.Soft,
				Reason:     reason,
			})
			r.logger.Info("Relaxed soft constraints",
				zap.String("phase", PassTop5),
				zap.String("troop", e.Troop.Name),
				zap.String("activity", e.Activity.Name),
				zap.Stringer("slot", e.Start),
				zap.Any("categories", assessment.Soft),
				zap.String("reason", reason))
		}
		return true, nil
	}
	return false, nil
}

// mandatoryStarts orders the starts tried for a mandatory activity: the closing activity
// from the latest slot of its day, commissioner activities on the designated day then the
// rest of the week
func mandatoryStarts(kind model.MandatoryKind, day model.Day) []model.TimeSlot {
	starts := model.DaySlots(day)
	if kind == model.MandatoryClosing {
		slices.Reverse(starts)
		return starts
	}
	for _, ts := range model.WeekSlots() {
		if ts.Day != day {
			starts = append(starts, ts)
		}
	}
	return starts
}

// recoverMandatory places missing mandatory activities, displacing anything that is neither
// mandatory nor a Top 5 preference. A missing early commissioner activity that the late one
// blocks is handled by moving the late one after it, and a missing late one by moving the
// early one earlier.
func (r *repair) recoverMandatory() (int, error) {
	n := 0
	unprotected := func(e *model.Entry) bool { return r.displaceable(e, false) }

	for _, m := range report.MissingMandatories(r.s) {
		t, ok := r.s.Troop(m.Troop)
		if !ok {
			continue
		}
		a, ok := r.catalog.Activity(m.Activity)
		if !ok {
			continue
		}

		placed := false
		for _, start := range mandatoryStarts(m.Kind, m.Day) {
			e := model.NewEntry(t, a, start)
			accepted, err := r.attempt(func() (bool, error) {
				_, ok, err := r.placeAt(e, unprotected, false)
				return ok, err
			}, nil)
			if err != nil {
				return n, err
			}
			if accepted {
				placed = true
				r.logger.Info("Recovered mandatory activity",
					zap.String("troop", t.Name), zap.String("activity", a.Name), zap.Stringer("slot", start))
				break
			}
		}

		if !placed && (m.Kind == model.MandatoryEarly || m.Kind == model.MandatoryLate) {
			accepted, err := r.attempt(func() (bool, error) {
				if m.Kind == model.MandatoryLate {
					return r.advanceCommissioner(t, a)
				}
				return r.reorderCommissioner(t, a, m.Day)
			}, nil)
			if err != nil {
				return n, err
			}
			placed = accepted
		}

		if placed {
			n++
		}
	}
	return n, nil
}

// reorderCommissioner lifts the troop's late commissioner activity, places the early one,
// then re-places the late one in a later window
func (r *repair) reorderCommissioner(t *model.Troop, early *model.Activity, day model.Day) (bool, error) {
	rules := r.catalog.Rules
	days, ok := rules.CommissionerDays(t.Commissioner)
	if !ok {
		return false, nil
	}

	var late *model.Entry
	for _, e := range r.s.EntriesForTroop(t) {
		if e.Activity.Name == rules.Commissioner.Late {
			late = e
			break
		}
	}
	if late == nil {
		return false, nil
	}
	if err := r.s.Remove(late); err != nil {
		return false, err
	}

	unprotected := func(e *model.Entry) bool { return r.displaceable(e, false) }

	var first *model.Entry
	for _, start := range mandatoryStarts(model.MandatoryEarly, day) {
		e := model.NewEntry(t, early, start)
		if _, ok, err := r.placeAt(e, unprotected, false); err != nil {
			return false, err
		} else if ok {
			first = e
			break
		}
	}
	if first == nil {
		return false, nil
	}

	for _, start := range mandatoryStarts(model.MandatoryLate, days.Late) {
		if !first.Start.Before(start) {
			continue
		}
		e := moved(late, start)
		if _, ok, err := r.placeAt(e, unprotected, false); err != nil {
			return false, err
		} else if ok {
			r.logger.Info("Reordered commissioner activities",
				zap.String("troop", t.Name),
				zap.Stringer("early", first.Start),
				zap.Stringer("late", e.Start))
			return true, nil
		}
	}
	return false, nil
}

// advanceCommissioner lifts the troop's early commissioner activity, re-places it in an
// earlier window, then places the missing late one after it
func (r *repair) advanceCommissioner(t *model.Troop, late *model.Activity) (bool, error) {
	rules := r.catalog.Rules
	days, ok := rules.CommissionerDays(t.Commissioner)
	if !ok {
		return false, nil
	}

	var early *model.Entry
	for _, e := range r.s.EntriesForTroop(t) {
		if e.Activity.Name == rules.Commissioner.Early {
			early = e
			break
		}
	}
	if early == nil {
		return false, nil
	}
	if err := r.s.Remove(early); err != nil {
		return false, err
	}

	unprotected := func(e *model.Entry) bool { return r.displaceable(e, false) }

	for _, start := range mandatoryStarts(model.MandatoryEarly, days.Early) {
		if !start.Before(early.Start) {
			continue
		}
		cp := r.s.Checkpoint()
		first := moved(early, start)
		if _, ok, err := r.placeAt(first, unprotected, false); err != nil {
			return false, err
		} else if !ok {
			continue
		}

		for _, ls := range mandatoryStarts(model.MandatoryLate, days.Late) {
			if !first.Start.Before(ls) {
				continue
			}
			e := model.NewEntry(t, late, ls)
			if _, ok, err := r.placeAt(e, unprotected, false); err != nil {
				return false, err
			} else if ok {
				r.logger.Info("Reordered commissioner activities",
					zap.String("troop", t.Name),
					zap.Stringer("early", first.Start),
					zap.Stringer("late", e.Start))
				return true, nil
			}
		}
		r.s.Rollback(cp)
	}
	return false, nil
}

// acceptFix admits a violation fix: the score must strictly drop and no category may grow
func acceptFix(before, after potential) bool {
	return after.hard <= before.hard &&
		after.missingMandatory <= before.missingMandatory &&
		after.missingTop5 <= before.missingTop5 &&
		after.gaps <= before.gaps &&
		after.score < before.score &&
		after.counts.NoWorseThan(before.counts)
}

// fixViolations tries to remove each violation by moving one of the entries involved
func (r *repair) fixViolations() (int, error) {
	n := 0
	for _, v := range r.validator.Violations(r.s) {
		for _, e := range v.Entries {
			if !r.present(e) {
				continue
			}
			ok, err := r.fixEntry(e)
			if err != nil {
				return n, err
			}
			if ok {
				n++
				break
			}
		}
	}
	return n, nil
}

// present reports whether the entry is still in the schedule
func (r *repair) present(e *model.Entry) bool {
	return slices.Contains(r.s.EntriesForTroop(e.Troop), e)
}

// fixEntry relocates the entry to a free window, swaps it with another of the troop's
// entries, or rotates it with another troop's session of the same activity
func (r *repair) fixEntry(e *model.Entry) (bool, error) {
	t := e.Troop

	// Relocate
	for _, start := range model.WeekSlots() {
		if start == e.Start || !r.freeExcept(t, start, e.Span, e) {
			continue
		}
		ok, err := r.attempt(func() (bool, error) { return r.relocate(e, start) }, acceptFix)
		if err != nil || ok {
			return ok, err
		}
	}

	// Swap within the troop
	for _, o := range r.s.EntriesForTroop(t) {
		if o == e || o.Span != e.Span {
			continue
		}
		ok, err := r.attempt(func() (bool, error) { return r.swapStarts(e, o) }, acceptFix)
		if err != nil || ok {
			return ok, err
		}
	}

	// Rotate with another troop holding the same activity
	for _, o := range r.s.EntriesForActivity(e.Activity.Name) {
		if o.Troop == t || o.Start == e.Start || o.Span != e.Span {
			continue
		}
		y := r.s.EntryAt(t, o.Start)
		z := r.s.EntryAt(o.Troop, e.Start)
		if y == nil || z == nil || y.Start != o.Start || z.Start != e.Start || y.Span != e.Span || z.Span != e.Span {
			continue
		}
		ok, err := r.attempt(func() (bool, error) {
			return r.rearrange(
				[]*model.Entry{e, y, o, z},
				[]*model.Entry{moved(e, o.Start), moved(y, e.Start), moved(o, e.Start), moved(z, o.Start)},
			)
		}, acceptFix)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// freeExcept reports whether the troop's n slots from start are free apart from the entry
func (r *repair) freeExcept(t *model.Troop, start model.TimeSlot, n int, e *model.Entry) bool {
	slots, ok := start.Span(n)
	if !ok {
		return false
	}
	for _, ts := range slots {
		if o := r.s.EntryAt(t, ts); o != nil && o != e {
			return false
		}
	}
	return true
}

// clusterAreas packs each cluster area's sessions onto fewer days
func (r *repair) clusterAreas() (int, error) {
	n := 0
	for _, area := range r.catalog.Areas() {
		if !r.catalog.Rules.IsClusterArea(area) {
			continue
		}
		for {
			if report.Usage(r.s, area).Excess() == 0 {
				break
			}
			ok, err := r.clusterOnce(area)
			if err != nil {
				return n, err
			}
			if !ok {
				break
			}
			n++
		}
	}
	return n, nil
}

// clusterOnce moves one session from the area's quietest day onto a busier day
func (r *repair) clusterOnce(area string) (bool, error) {
	usage := r.s.AreaDays(area)
	var used []model.Day
	for _, d := range model.Days {
		if usage[d] > 0 {
			used = append(used, d)
		}
	}

	// Sources: quietest first, later days first on ties
	sources := slices.Clone(used)
	slices.SortStableFunc(sources, func(a, b model.Day) int {
		if usage[a] != usage[b] {
			return usage[a] - usage[b]
		}
		return int(b) - int(a)
	})
	// Targets: busiest first, earlier days first on ties
	targets := slices.Clone(used)
	slices.SortStableFunc(targets, func(a, b model.Day) int {
		if usage[a] != usage[b] {
			return usage[b] - usage[a]
		}
		return int(a) - int(b)
	})

	for _, src := range sources {
		for _, e := range r.s.Entries() {
			if e.Day() != src || !e.Activity.Exclusive() || e.Activity.Area != area {
				continue
			}
			for _, dst := range targets {
				if dst == src || usage[dst] < usage[src] {
					continue
				}
				for _, start := range model.DaySlots(dst) {
					ok, err := r.attempt(func() (bool, error) { return r.shift(e, start, area) }, nil)
					if err != nil || ok {
						return ok, err
					}
				}
			}
		}
	}
	return false, nil
}

// shift moves the entry to start, swapping with the troop's entry there when it has the same
// span and is not itself part of the area
func (r *repair) shift(e *model.Entry, start model.TimeSlot, area string) (bool, error) {
	if r.freeExcept(e.Troop, start, e.Span, e) {
		return r.relocate(e, start)
	}
	x := r.s.EntryAt(e.Troop, start)
	if x == nil || x.Start != start || x.Span != e.Span || x.Activity.Area == area {
		return false, nil
	}
	return r.swapStarts(e, x)
}

// balanceStaff moves single-slot staffed entries out of the busiest slot while the spread
// between the busiest and quietest slot exceeds the threshold
func (r *repair) balanceStaff() (int, error) {
	n := 0
	for {
		loads, spread, _ := report.StaffLoad(r.s)
		if spread <= r.opts.StaffSpreadThreshold {
			return n, nil
		}
		ok, err := r.balanceOnce(loads)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// balanceOnce moves one entry out of the busiest slot into a lighter one
func (r *repair) balanceOnce(loads []int) (bool, error) {
	slots := model.WeekSlots()
	busiest := 0
	for i, l := range loads {
		if l > loads[busiest] {
			busiest = i
		}
	}

	lighter := make([]int, 0, len(slots))
	for i := range slots {
		if loads[i] < loads[busiest] {
			lighter = append(lighter, i)
		}
	}
	slices.SortStableFunc(lighter, func(a, b int) int { return loads[a] - loads[b] })

	rules := r.catalog.Rules
	for _, e := range r.s.EntriesForSlot(slots[busiest]) {
		a := e.Activity
		if e.Span != 1 || a.Staff == "" || a.Shared() || rules.IsClusterArea(a.Area) || r.mandatory(e) {
			continue
		}
		for _, i := range lighter {
			if loads[i]+a.StaffLoad >= loads[busiest] {
				continue
			}
			target := slots[i]
			ok, err := r.attempt(func() (bool, error) {
				if r.s.IsTroopFree(e.Troop, target) {
					return r.relocate(e, target)
				}
				x := r.s.EntryAt(e.Troop, target)
				if x.Span != 1 || r.mandatory(x) {
					return false, nil
				}
				return r.swapStarts(e, x)
			}, nil)
			if err != nil || ok {
				return ok, err
			}
		}
	}
	return false, nil
}
