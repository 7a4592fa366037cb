package optimizer

import (
	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// potential measures a schedule for the repair loop. Fields are compared in declaration
// order; a change is an improvement when it lowers the first field that differs.
type potential struct {
	hard             int
	missingMandatory int
	missingTop5      int
	gaps             int
	score            int

	// clusterDays is the number of days cluster areas are used on
	clusterDays int

	// clusterSpread is the negated sum of squared per-day session counts over cluster
	// areas, so packing sessions onto fewer days lowers it
	clusterSpread int

	// staffSumSq is the sum of squared per-slot staff loads
	staffSumSq int

	// counts is carried for acceptance checks, not compared
	counts constraints.Counts
}

func (p potential) vector() [8]int {
	return [8]int{p.hard, p.missingMandatory, p.missingTop5, p.gaps, p.score, p.clusterDays, p.clusterSpread, p.staffSumSq}
}

// less reports whether p is strictly better than o
func (p potential) less(o potential) bool {
	a, b := p.vector(), o.vector()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// measure computes the potential of the schedule as it stands
func (r *repair) measure() potential {
	counts := r.validator.Counts(r.s)
	p := potential{
		hard:             counts.Hard,
		missingMandatory: len(report.MissingMandatories(r.s)),
		missingTop5:      len(r.missingTop5()),
		gaps:             r.s.Gaps(),
		score:            counts.Score,
		counts:           counts,
	}

	for _, area := range r.catalog.Areas() {
		if !r.catalog.Rules.IsClusterArea(area) {
			continue
		}
		for _, n := range r.s.AreaDays(area) {
			p.clusterDays++
			p.clusterSpread -= n * n
		}
	}

	for _, ts := range model.WeekSlots() {
		load := r.s.StaffLoad(ts)
		p.staffSumSq += load * load
	}
	return p
}

// want is a Top 5 preference a troop does not hold
type want struct {
	troop    *model.Troop
	activity *model.Activity
	rank     int
}

// missingTop5 lists the satisfiable Top 5 preferences the schedule does not hold,
// in rank-major roster order
func (r *repair) missingTop5() []want {
	var wants []want
	for rank := 0; rank < 5; rank++ {
		for _, t := range r.s.Troops() {
			if rank >= len(t.Preferences) {
				continue
			}
			name := t.Preferences[rank]
			a, ok := r.catalog.Activity(name)
			if !ok || r.catalog.IsMandatoryFor(t, name) || r.s.Has(t, name) {
				continue
			}
			wants = append(wants, want{troop: t, activity: a, rank: rank})
		}
	}
	return wants
}
