package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// Recorder holds report gauges for one or more weekly runs, labelled by week
type Recorder struct {
	registry *prometheus.Registry

	violations       *prometheus.GaugeVec
	score            *prometheus.GaugeVec
	missed           *prometheus.GaugeVec
	missingMandatory *prometheus.GaugeVec
	relaxations      *prometheus.GaugeVec
	gaps             *prometheus.GaugeVec
	top5Met          *prometheus.GaugeVec
	top5Requested    *prometheus.GaugeVec
	areaExcessDays   *prometheus.GaugeVec
	staffSpread      *prometheus.GaugeVec
	staffVariance    *prometheus.GaugeVec
	rounds           *prometheus.GaugeVec
	fixedPoint       *prometheus.GaugeVec
}

// NewRecorder registers the report gauges on a private registry
func NewRecorder() *Recorder {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "camp_scheduler",
			Name:      name,
			Help:      help,
		}, append([]string{"week"}, labels...))
	}

	r := &Recorder{
		registry:         prometheus.NewRegistry(),
		violations:       gauge("violations", "Violations in the final schedule by category", "category", "severity"),
		score:            gauge("score", "Weighted violation penalty of the final schedule"),
		missed:           gauge("missed_preferences", "Ranked preferences not held, by tier", "tier", "exempt"),
		missingMandatory: gauge("missing_mandatory", "Mandatory activities not held on their designated day"),
		relaxations:      gauge("relaxations", "Soft-rule relaxations recorded during the run", "category"),
		gaps:             gauge("gaps", "Unassigned slot-units in the final schedule"),
		top5Met:          gauge("top5_met", "Top 5 preferences held"),
		top5Requested:    gauge("top5_requested", "Top 5 preferences naming a known activity"),
		areaExcessDays:   gauge("area_excess_days", "Days used beyond the minimum by an exclusive area", "area"),
		staffSpread:      gauge("staff_spread", "Busiest minus quietest slot staff load"),
		staffVariance:    gauge("staff_variance", "Population variance of per-slot staff load"),
		rounds:           gauge("repair_rounds", "Repair rounds run"),
		fixedPoint:       gauge("repair_fixed_point", "1 when the repair loop reached a fixed point"),
	}

	r.registry.MustRegister(
		r.violations, r.score, r.missed, r.missingMandatory, r.relaxations, r.gaps,
		r.top5Met, r.top5Requested, r.areaExcessDays, r.staffSpread, r.staffVariance,
		r.rounds, r.fixedPoint,
	)
	return r
}

// Registry exposes the registry the gauges live on
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe sets every gauge for the week from its report
func (r *Recorder) Observe(week string, rep *report.Report) {
	hard := make(map[constraints.Category]bool)
	for _, rule := range constraints.DefaultRules() {
		hard[rule.Category()] = rule.Hard()
	}
	for _, c := range constraints.Categories {
		severity := "soft"
		if hard[c] {
			severity = "hard"
		}
		r.violations.WithLabelValues(week, string(c), severity).Set(float64(rep.Counts.Get(c)))
		r.relaxations.WithLabelValues(week, string(c)).Set(float64(relaxationsIn(rep, c)))
	}
	r.score.WithLabelValues(week).Set(float64(rep.Counts.Score))

	for _, tier := range []model.Tier{model.TierTop5, model.TierTop10, model.TierTop20} {
		exempt := 0
		for _, m := range rep.Missed {
			if m.Tier == tier && m.Exempt {
				exempt++
			}
		}
		r.missed.WithLabelValues(week, tierLabel(tier), "false").Set(float64(rep.MissedInTier(tier)))
		r.missed.WithLabelValues(week, tierLabel(tier), "true").Set(float64(exempt))
	}

	r.missingMandatory.WithLabelValues(week).Set(float64(len(rep.MissingMandatory)))
	r.gaps.WithLabelValues(week).Set(float64(rep.Gaps))
	r.top5Met.WithLabelValues(week).Set(float64(rep.Top5Met))
	r.top5Requested.WithLabelValues(week).Set(float64(rep.Top5Requested))

	for _, u := range rep.Areas {
		r.areaExcessDays.WithLabelValues(week, u.Area).Set(float64(u.Excess()))
	}

	r.staffSpread.WithLabelValues(week).Set(float64(rep.StaffSpread))
	r.staffVariance.WithLabelValues(week).Set(rep.StaffVariance)
	r.rounds.WithLabelValues(week).Set(float64(rep.Rounds))

	fixed := 0.0
	if rep.FixedPoint {
		fixed = 1
	}
	r.fixedPoint.WithLabelValues(week).Set(fixed)
}

// WriteTextfile writes the gauges in the node exporter textfile format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// WriteTextfile records the reports, keyed by week, and writes them to path
func WriteTextfile(path string, reports map[string]*report.Report) error {
	r := NewRecorder()
	for week, rep := range reports {
		r.Observe(week, rep)
	}
	return r.WriteTextfile(path)
}

func relaxationsIn(rep *report.Report, c constraints.Category) int {
	n := 0
	for _, rel := range rep.Relaxations {
		if slices.Contains(rel.Categories, c) {
			n++
		}
	}
	return n
}

// tierLabel turns "Top 5" into "top5"
func tierLabel(t model.Tier) string {
	return strings.ToLower(strings.ReplaceAll(t.String(), " ", ""))
}
