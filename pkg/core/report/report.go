package report

import (
	"math"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// MissedPreference is a ranked (Top 20) preference the final schedule does not hold
type MissedPreference struct {
	Troop    string
	Activity string
	Rank     int
	Tier     model.Tier

	// Exempt is true when the preference was never satisfiable (unknown activity)
	Exempt bool
	Reason string
}

// MissingMandatory is a mandatory activity a troop does not hold on its designated day
type MissingMandatory struct {
	Troop    string
	Activity string
	Day      model.Day
	Kind     model.MandatoryKind
}

// AreaUsage describes how an exclusive area's sessions spread over the week
type AreaUsage struct {
	Area     string
	Sessions int
	UsedDays int

	// MinDays is the fewest days the sessions could fit into
	MinDays int
}

// Excess returns the number of days used beyond the minimum
func (u AreaUsage) Excess() int {
	return max(u.UsedDays-u.MinDays, 0)
}

// RunInfo carries the repair loop outcome into the report
type RunInfo struct {
	Rounds     int
	FixedPoint bool
	Mutations  int
}

// Report is a read-only snapshot of a finished run
type Report struct {
	Counts     constraints.Counts
	Violations []constraints.Violation

	Missed           []MissedPreference
	MissingMandatory []MissingMandatory

	Relaxations       []Relaxation
	InvalidReferences []InvalidReference

	Gaps int

	Areas []AreaUsage

	// StaffLoad is the staff units per slot, in WeekSlots order
	StaffLoad     []int
	StaffSpread   int
	StaffVariance float64

	Top5Requested int
	Top5Met       int

	RunInfo
}

// AreaExcessDays totals the excess days over every exclusive area
func (r *Report) AreaExcessDays() int {
	total := 0
	for _, u := range r.Areas {
		total += u.Excess()
	}
	return total
}

// MissedInTier counts missed preferences of a tier that were satisfiable
func (r *Report) MissedInTier(tier model.Tier) int {
	n := 0
	for _, m := range r.Missed {
		if m.Tier == tier && !m.Exempt {
			n++
		}
	}
	return n
}

// Build assembles the report for a finished schedule
func Build(s *model.Schedule, v *constraints.Validator, j *Journal, info RunInfo) *Report {
	r := &Report{
		Counts:            v.Counts(s),
		Violations:        v.Violations(s),
		Missed:            MissedPreferences(s),
		MissingMandatory:  MissingMandatories(s),
		Relaxations:       j.Relaxations(),
		InvalidReferences: j.InvalidReferences(),
		Gaps:              s.Gaps(),
		RunInfo:           info,
	}

	for _, area := range s.Catalog().Areas() {
		r.Areas = append(r.Areas, Usage(s, area))
	}

	r.StaffLoad, r.StaffSpread, r.StaffVariance = StaffLoad(s)

	cat := s.Catalog()
	for _, t := range s.Troops() {
		for _, name := range t.TopPreferences(5) {
			if _, ok := cat.Activity(name); !ok {
				continue
			}
			r.Top5Requested++
			if s.Has(t, name) {
				r.Top5Met++
			}
		}
	}
	return r
}

// MissedPreferences lists every Top 20 preference the schedule does not hold
func MissedPreferences(s *model.Schedule) []MissedPreference {
	cat := s.Catalog()
	var missed []MissedPreference
	for _, t := range s.Troops() {
		for rank, name := range t.TopPreferences(20) {
			if _, ok := cat.Activity(name); !ok {
				missed = append(missed, MissedPreference{
					Troop: t.Name, Activity: name, Rank: rank, Tier: model.TierOf(rank),
					Exempt: true, Reason: "activity not in catalog",
				})
				continue
			}
			if s.Has(t, name) {
				continue
			}
			missed = append(missed, MissedPreference{
				Troop: t.Name, Activity: name, Rank: rank, Tier: model.TierOf(rank),
				Reason: "no valid slot",
			})
		}
	}
	return missed
}

// MissingMandatories lists mandatory activities absent from their designated day.
// Commissioner activities count as held on any day; only the closing activity is day-bound.
func MissingMandatories(s *model.Schedule) []MissingMandatory {
	cat := s.Catalog()
	var missing []MissingMandatory
	for _, t := range s.Troops() {
		mandatory, _ := cat.MandatoryActivities(t)
		for _, m := range mandatory {
			if held(s, t, m) {
				continue
			}
			missing = append(missing, MissingMandatory{Troop: t.Name, Activity: m.Activity.Name, Day: m.Day, Kind: m.Kind})
		}
	}
	return missing
}

func held(s *model.Schedule, t *model.Troop, m model.Mandatory) bool {
	if m.Kind != model.MandatoryClosing {
		return s.Has(t, m.Activity.Name)
	}
	for _, e := range s.EntriesForActivity(m.Activity.Name) {
		if e.Troop == t && e.Day() == m.Day {
			return true
		}
	}
	return false
}

// Usage measures an exclusive area's day spread
func Usage(s *model.Schedule, area string) AreaUsage {
	days := s.AreaDays(area)
	u := AreaUsage{Area: area, UsedDays: len(days)}
	for _, n := range days {
		u.Sessions += n
	}
	if u.Sessions == 0 {
		return u
	}

	// Sessions per day is bounded by the longest activity in the area
	span := 1
	for _, a := range s.Catalog().AreaActivities(area) {
		span = max(span, int(math.Ceil(a.Duration)))
	}
	perDay := max(3/span, 1)
	u.MinDays = (u.Sessions + perDay - 1) / perDay
	return u
}

// StaffLoad returns the per-slot staff load, the spread between the busiest and
// quietest slot, and the population variance
func StaffLoad(s *model.Schedule) ([]int, int, float64) {
	slots := model.WeekSlots()
	loads := make([]int, len(slots))
	lo, hi, sum := math.MaxInt, 0, 0
	for i, ts := range slots {
		loads[i] = s.StaffLoad(ts)
		lo = min(lo, loads[i])
		hi = max(hi, loads[i])
		sum += loads[i]
	}

	mean := float64(sum) / float64(len(loads))
	variance := 0.0
	for _, l := range loads {
		d := float64(l) - mean
		variance += d * d
	}
	return loads, hi - lo, variance / float64(len(loads))
}
