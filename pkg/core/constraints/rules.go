package constraints

import (
	"fmt"
	"slices"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Penalty weights used by the default rules
const (
	WeightHard     = 100
	WeightAccuracy = 10
	WeightWetDry   = 3
	WeightBeach    = 2
	WeightSameDay  = 2
)

// DefaultRules returns every rule the validator applies
func DefaultRules() []Rule {
	return []Rule{
		&OverlapRule{},
		&ExclusiveAreaRule{},
		&ContiguityRule{},
		&CapacityRule{},
		newTroopRule(CategoryOrdering, true, WeightHard, checkOrdering),
		newTroopRule(CategoryMandatory, true, WeightHard, checkMandatory),
		newTroopRule(CategoryDuplicate, true, WeightHard, checkDuplicates),
		newTroopRule(CategoryAccuracy, false, WeightAccuracy, checkAccuracy),
		newTroopRule(CategoryBeachSlot, false, WeightBeach, checkBeachSlots),
		newTroopRule(CategoryWetDry, false, WeightWetDry, checkWetDry),
		newTroopRule(CategorySameDay, false, WeightSameDay, checkSameDay),
	}
}

// OverlapRule flags a troop booked into two entries at once
type OverlapRule struct{}

func (r *OverlapRule) Category() Category { return CategoryOverlap }
func (r *OverlapRule) Hard() bool         { return true }
func (r *OverlapRule) Weight() int        { return WeightHard }

func (r *OverlapRule) Violations(s *model.Schedule) []Violation {
	var violations []Violation
	for _, t := range s.Troops() {
		entries := s.EntriesForTroop(t)
		for i, a := range entries {
			for _, b := range entries[i+1:] {
				if a.Overlaps(b) {
					violations = append(violations, Violation{
						Category:    CategoryOverlap,
						Hard:        true,
						Troop:       t,
						Slot:        b.Start,
						Entries:     []*model.Entry{a, b},
						Description: fmt.Sprintf("%s has %s and %s at the same time", t.Name, a.Activity.Name, b.Activity.Name),
					})
				}
			}
		}
	}
	return violations
}

func (r *OverlapRule) WouldViolate(s *model.Schedule, e *model.Entry) bool {
	for _, ts := range e.Slots() {
		if !s.IsTroopFree(e.Troop, ts) {
			return true
		}
	}
	return false
}

// ExclusiveAreaRule flags exclusive areas holding more troops than their sharing rule allows,
// and declared conflicting activities running in the same slot
type ExclusiveAreaRule struct{}

func (r *ExclusiveAreaRule) Category() Category { return CategoryExclusiveArea }
func (r *ExclusiveAreaRule) Hard() bool         { return true }
func (r *ExclusiveAreaRule) Weight() int        { return WeightHard }

func (r *ExclusiveAreaRule) Violations(s *model.Schedule) []Violation {
	var violations []Violation
	for _, e := range s.Entries() {
		blockers := s.AreaBlockers(e.Troop, e.Activity, e.Start)
		if len(blockers) == 0 {
			continue
		}
		violations = append(violations, Violation{
			Category:    CategoryExclusiveArea,
			Hard:        true,
			Troop:       e.Troop,
			Slot:        e.Start,
			Entries:     append([]*model.Entry{e}, blockers...),
			Description: fmt.Sprintf("%s shares %s with %d other troop(s)", e, e.Activity.Area, len(blockers)),
		})
	}
	return violations
}

func (r *ExclusiveAreaRule) WouldViolate(s *model.Schedule, e *model.Entry) bool {
	return len(s.AreaBlockers(e.Troop, e.Activity, e.Start)) > 0
}

// ContiguityRule flags multi-slot entries that do not fit within their day
type ContiguityRule struct{}

func (r *ContiguityRule) Category() Category { return CategoryContiguity }
func (r *ContiguityRule) Hard() bool         { return true }
func (r *ContiguityRule) Weight() int        { return WeightHard }

func (r *ContiguityRule) Violations(s *model.Schedule) []Violation {
	var violations []Violation
	for _, e := range s.Entries() {
		if e.Slots() == nil {
			violations = append(violations, Violation{
				Category:    CategoryContiguity,
				Hard:        true,
				Troop:       e.Troop,
				Slot:        e.Start,
				Entries:     []*model.Entry{e},
				Description: fmt.Sprintf("%s needs %d slots but the day ends", e, e.Span),
			})
		}
	}
	return violations
}

func (r *ContiguityRule) WouldViolate(_ *model.Schedule, e *model.Entry) bool {
	return e.Slots() == nil
}

// CapacityRule flags slots over a staff-role session cap or the total staff limit
type CapacityRule struct{}

func (r *CapacityRule) Category() Category { return CategoryCapacity }
func (r *CapacityRule) Hard() bool         { return true }
func (r *CapacityRule) Weight() int        { return WeightHard }

func (r *CapacityRule) Violations(s *model.Schedule) []Violation {
	rules := s.Catalog().Rules
	var violations []Violation

	for _, ts := range model.WeekSlots() {
		for _, limit := range rules.SlotCaps {
			if n := s.RoleSessions(ts, limit.Staff); n > limit.Max {
				violations = append(violations, Violation{
					Category:    CategoryCapacity,
					Hard:        true,
					Slot:        ts,
					Entries:     roleEntries(s, ts, limit.Staff),
					Description: fmt.Sprintf("%d %s sessions at %s (max %d)", n, limit.Staff, ts, limit.Max),
				})
			}
		}
		if rules.MaxSlotStaff > 0 {
			if load := s.StaffLoad(ts); load > rules.MaxSlotStaff {
				violations = append(violations, Violation{
					Category:    CategoryCapacity,
					Hard:        true,
					Slot:        ts,
					Entries:     s.Sessions(ts),
					Description: fmt.Sprintf("%d staff needed at %s (max %d)", load, ts, rules.MaxSlotStaff),
				})
			}
		}
	}
	return violations
}

func (r *CapacityRule) WouldViolate(s *model.Schedule, e *model.Entry) bool {
	rules := s.Catalog().Rules
	a := e.Activity
	if a.Staff == "" {
		return false
	}

	limit, capped := rules.SlotCapFor(a.Staff)
	for _, ts := range e.Slots() {
		if joinsSession(s, e, ts) {
			continue
		}
		if capped && s.RoleSessions(ts, a.Staff)+1 > limit.Max {
			return true
		}
		if rules.MaxSlotStaff > 0 && s.StaffLoad(ts)+a.StaffLoad > rules.MaxSlotStaff {
			return true
		}
	}
	return false
}

// joinsSession reports whether e would join an existing shared session at ts
func joinsSession(s *model.Schedule, e *model.Entry, ts model.TimeSlot) bool {
	if !e.Activity.Shared() {
		return false
	}
	for _, o := range s.EntriesForSlot(ts) {
		if o.Activity == e.Activity && o.Start == e.Start {
			return true
		}
	}
	return false
}

func roleEntries(s *model.Schedule, ts model.TimeSlot, role string) []*model.Entry {
	var out []*model.Entry
	for _, e := range s.Sessions(ts) {
		if e.Activity.Staff == role {
			out = append(out, e)
		}
	}
	return out
}

// troopCheck evaluates one troop's entries (sorted chronologically)
type troopCheck func(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation

// troopRule is a rule decided entirely by one troop's own entries.
// WouldViolate compares violation counts with and without the hypothetical entry.
type troopRule struct {
	category Category
	hard     bool
	weight   int
	check    troopCheck
}

func newTroopRule(category Category, hard bool, weight int, check troopCheck) *troopRule {
	return &troopRule{category: category, hard: hard, weight: weight, check: check}
}

func (r *troopRule) Category() Category { return r.category }
func (r *troopRule) Hard() bool         { return r.hard }
func (r *troopRule) Weight() int        { return r.weight }

func (r *troopRule) Violations(s *model.Schedule) []Violation {
	rules := s.Catalog().Rules
	var violations []Violation
	for _, t := range s.Troops() {
		for _, v := range r.check(rules, t, s.EntriesForTroop(t)) {
			v.Category = r.category
			v.Hard = r.hard
			v.Troop = t
			violations = append(violations, v)
		}
	}
	return violations
}

func (r *troopRule) WouldViolate(s *model.Schedule, e *model.Entry) bool {
	rules := s.Catalog().Rules
	entries := s.EntriesForTroop(e.Troop)
	before := len(r.check(rules, e.Troop, entries))
	after := len(r.check(rules, e.Troop, withEntry(entries, e)))
	return after > before
}

// withEntry returns the entries plus e, kept in chronological order
func withEntry(entries []*model.Entry, e *model.Entry) []*model.Entry {
	out := append(slices.Clone(entries), e)
	slices.SortStableFunc(out, func(a, b *model.Entry) int {
		return a.Start.Index() - b.Start.Index()
	})
	return out
}

func checkOrdering(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	early, late := rules.Commissioner.Early, rules.Commissioner.Late
	if early == "" || late == "" {
		return nil
	}

	var violations []Violation
	for _, e := range entries {
		if e.Activity.Name != early {
			continue
		}
		for _, l := range entries {
			if l.Activity.Name == late && !e.Start.Before(l.Start) {
				violations = append(violations, Violation{
					Slot:        l.Start,
					Entries:     []*model.Entry{e, l},
					Description: fmt.Sprintf("%s has %s at %s, not before %s at %s", t.Name, early, e.Start, late, l.Start),
				})
			}
		}
	}
	return violations
}

func checkMandatory(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	closing := rules.Closing
	var violations []Violation
	var onDay []*model.Entry

	for _, e := range entries {
		if e.Activity.Name != closing.Activity {
			continue
		}
		if e.Day() != closing.Day {
			violations = append(violations, Violation{
				Slot:        e.Start,
				Entries:     []*model.Entry{e},
				Description: fmt.Sprintf("%s has %s on %s instead of %s", t.Name, closing.Activity, e.Day(), closing.Day),
			})
			continue
		}
		onDay = append(onDay, e)
	}

	switch {
	case len(onDay) == 0:
		violations = append(violations, Violation{
			Slot:        model.TimeSlot{Day: closing.Day, Slot: closing.Day.SlotCount()},
			Description: fmt.Sprintf("%s is missing %s on %s", t.Name, closing.Activity, closing.Day),
		})
	case len(onDay) > 1:
		for _, extra := range onDay[1:] {
			violations = append(violations, Violation{
				Slot:        extra.Start,
				Entries:     onDay,
				Description: fmt.Sprintf("%s has %s more than once", t.Name, closing.Activity),
			})
		}
	}
	return violations
}

func checkDuplicates(_ *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	var violations []Violation
	first := make(map[string]*model.Entry)
	for _, e := range entries {
		if e.Activity.Repeatable {
			continue
		}
		prev, seen := first[e.Activity.Name]
		if !seen {
			first[e.Activity.Name] = e
			continue
		}
		violations = append(violations, Violation{
			Slot:        e.Start,
			Entries:     []*model.Entry{prev, e},
			Description: fmt.Sprintf("%s has %s more than once", t.Name, e.Activity.Name),
		})
	}
	return violations
}

func checkAccuracy(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	var violations []Violation
	first := make(map[model.Day]*model.Entry)
	for _, e := range entries {
		if !rules.IsAccuracy(e.Activity.Name) {
			continue
		}
		prev, seen := first[e.Day()]
		if !seen {
			first[e.Day()] = e
			continue
		}
		violations = append(violations, Violation{
			Slot:        e.Start,
			Entries:     []*model.Entry{prev, e},
			Description: fmt.Sprintf("%s has %s and %s on %s", t.Name, prev.Activity.Name, e.Activity.Name, e.Day()),
		})
	}
	return violations
}

func checkBeachSlots(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		if !rules.IsBeachSlot(e.Activity.Name) || rules.BeachStartAllowed(e.Start) {
			continue
		}
		violations = append(violations, Violation{
			Slot:        e.Start,
			Entries:     []*model.Entry{e},
			Description: fmt.Sprintf("%s starts in restricted slot %d", e, e.Start.Slot),
			Exempt:      t.IsTopFive(e.Activity.Name),
		})
	}
	return violations
}

func checkWetDry(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	var violations []Violation

	// Wet immediately followed by tower or outdoor skills
	for i, e := range entries {
		if !rules.IsWet(e.Activity.Name) {
			continue
		}
		for _, next := range entries[i+1:] {
			if next.Day() == e.Day() && next.Start.Slot == e.Last()+1 && rules.IsTowerOutdoorSkills(next.Activity.Name) {
				violations = append(violations, Violation{
					Slot:        next.Start,
					Entries:     []*model.Entry{e, next},
					Description: fmt.Sprintf("%s goes from %s straight to %s", t.Name, e.Activity.Name, next.Activity.Name),
				})
			}
		}
	}

	// Wet, dry, wet across a three-slot day
	for _, d := range model.Days {
		if d.SlotCount() < 3 {
			continue
		}
		cells := make([]*model.Entry, 3)
		for _, e := range entries {
			for _, ts := range e.Slots() {
				if ts.Day == d && ts.Slot <= 3 {
					cells[ts.Slot-1] = e
				}
			}
		}
		first, middle, last := cells[0], cells[1], cells[2]
		if first == nil || middle == nil || last == nil || first == middle || middle == last {
			continue
		}
		if rules.IsWet(first.Activity.Name) && !rules.IsWet(middle.Activity.Name) && rules.IsWet(last.Activity.Name) {
			violations = append(violations, Violation{
				Slot:        middle.Start,
				Entries:     []*model.Entry{first, middle, last},
				Description: fmt.Sprintf("%s has a wet-dry-wet %s", t.Name, d),
			})
		}
	}
	return violations
}

func checkSameDay(rules *model.Rules, t *model.Troop, entries []*model.Entry) []Violation {
	var violations []Violation
	for i, a := range entries {
		for _, b := range entries[i+1:] {
			if a.Day() == b.Day() && rules.SameDayConflict(a.Activity.Name, b.Activity.Name) {
				violations = append(violations, Violation{
					Slot:        b.Start,
					Entries:     []*model.Entry{a, b},
					Description: fmt.Sprintf("%s has %s and %s on %s", t.Name, a.Activity.Name, b.Activity.Name, a.Day()),
				})
			}
		}
	}
	return violations
}
