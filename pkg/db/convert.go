package db

import (
	"github.com/google/uuid"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

// NewRun builds the run record for a finished schedule
func NewRun(week, policy string, s *model.Schedule, r *report.Report) *Run {
	return &Run{
		ID:         uuid.New().String(),
		Week:       week,
		Policy:     policy,
		Troops:     len(s.Troops()),
		Entries:    s.Len(),
		Score:      r.Counts.Score,
		Hard:       r.Counts.Hard,
		Soft:       r.Counts.Soft,
		Gaps:       r.Gaps,
		Top5Met:    r.Top5Met,
		Top5Wanted: r.Top5Requested,
		Rounds:     r.Rounds,
		FixedPoint: r.FixedPoint,
	}
}

// ScheduleEntries converts every entry of the schedule to a record of the run
func ScheduleEntries(runID string, s *model.Schedule) []Entry {
	entries := s.Entries()
	records := make([]Entry, len(entries))
	for i, e := range entries {
		records[i] = Entry{
			ID:       uuid.New().String(),
			RunID:    runID,
			Troop:    e.Troop.Name,
			Activity: e.Activity.Name,
			Day:      e.Start.Day.String(),
			Slot:     e.Start.Slot,
			Span:     e.Span,
		}
	}
	return records
}
