package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
	"github.com/jakechorley/camp-scheduler/pkg/db"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

const (
	dayColWidth  = 6
	slotColWidth = 28
)

// continued marks a slot held by an entry that started earlier in the day
const continued = "..."

// printSchedule prints one day-by-slot grid per troop
func printSchedule(w io.Writer, s *model.Schedule) {
	for _, t := range s.Troops() {
		fmt.Fprintf(w, "\n%s (%d scouts, %d adults", t.Name, t.Scouts, t.Adults)
		if t.Commissioner != "" {
			fmt.Fprintf(w, ", commissioner %s", t.Commissioner)
		}
		fmt.Fprintln(w, ")")
		printGridHeader(w)

		for _, d := range model.Days {
			fmt.Fprintf(w, "%-*s", dayColWidth, d.Short())
			for _, ts := range model.DaySlots(d) {
				fmt.Fprintf(w, "%-*s", slotColWidth, slotCell(s, t, ts))
			}
			fmt.Fprintln(w)
		}
	}
}

func printGridHeader(w io.Writer) {
	fmt.Fprintf(w, "%-*s", dayColWidth, "")
	for slot := 1; slot <= 3; slot++ {
		fmt.Fprintf(w, "%-*s", slotColWidth, fmt.Sprintf("Slot %d", slot))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", dayColWidth+3*slotColWidth))
}

// slotCell returns the text shown for a troop's slot
func slotCell(s *model.Schedule, t *model.Troop, ts model.TimeSlot) string {
	e := s.EntryAt(t, ts)
	if e == nil {
		return "-"
	}
	if e.Start != ts {
		return continued
	}
	name := e.Activity.Name
	if rank := t.Rank(name); rank >= 0 && rank < 20 {
		name = fmt.Sprintf("%s #%d", name, rank+1)
	}
	return truncate(name, slotColWidth-2)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// printReport prints the run summary for a week
func printReport(w io.Writer, label string, rep *report.Report) {
	fmt.Fprintf(w, "\nWeek %s\n", label)

	hardColor := colorGreen
	if rep.Counts.Hard > 0 {
		hardColor = colorRed
	}
	fmt.Fprintf(w, "  Hard violations:   %s%d%s\n", hardColor, rep.Counts.Hard, colorReset)
	fmt.Fprintf(w, "  Soft violations:   %d (%d within exceptions)\n", rep.Counts.Soft, rep.Counts.Exempt)
	fmt.Fprintf(w, "  Score:             %d\n", rep.Counts.Score)
	fmt.Fprintf(w, "  Gaps:              %d\n", rep.Gaps)
	fmt.Fprintf(w, "  Top 5 met:         %d/%d\n", rep.Top5Met, rep.Top5Requested)
	fmt.Fprintf(w, "  Missed (Top 5/10/20): %d / %d / %d\n",
		rep.MissedInTier(model.TierTop5), rep.MissedInTier(model.TierTop10), rep.MissedInTier(model.TierTop20))
	fmt.Fprintf(w, "  Relaxations:       %d\n", len(rep.Relaxations))
	fmt.Fprintf(w, "  Area excess days:  %d\n", rep.AreaExcessDays())
	fmt.Fprintf(w, "  Staff spread:      %d (variance %.2f)\n", rep.StaffSpread, rep.StaffVariance)

	fixed := colorGreen + "fixed point" + colorReset
	if !rep.FixedPoint {
		fixed = colorYellow + "round cap reached" + colorReset
	}
	fmt.Fprintf(w, "  Repair:            %d rounds, %d changes, %s\n", rep.Rounds, rep.Mutations, fixed)

	if len(rep.MissingMandatory) > 0 {
		fmt.Fprintf(w, "  %sMissing mandatory:%s\n", colorRed, colorReset)
		for _, m := range rep.MissingMandatory {
			fmt.Fprintf(w, "    %s: %s (%s, %s)\n", m.Troop, m.Activity, m.Kind, m.Day)
		}
	}

	if len(rep.InvalidReferences) > 0 {
		fmt.Fprintf(w, "  %sUnknown references:%s\n", colorDim, colorReset)
		for _, ref := range rep.InvalidReferences {
			fmt.Fprintf(w, "    %s: %s %q\n", ref.Troop, ref.Kind, ref.Name)
		}
	}
}

// printRuns prints stored runs, newest first
func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}

	fmt.Fprintf(w, "\n%-38s %-12s %-18s %6s %6s %6s %8s %6s\n", "Run ID", "Week", "Policy", "Troops", "Hard", "Soft", "Top 5", "Rounds")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		hard := fmt.Sprintf("%6d", r.Hard)
		if r.Hard > 0 {
			hard = colorRed + hard + colorReset
		}
		rounds := fmt.Sprintf("%6d", r.Rounds)
		if !r.FixedPoint {
			rounds = colorYellow + rounds + colorReset
		}
		fmt.Fprintf(w, "%-38s %-12s %-18s %6d %s %6d %8s %s\n",
			r.ID, r.Week, r.Policy, r.Troops, hard, r.Soft, fmt.Sprintf("%d/%d", r.Top5Met, r.Top5Wanted), rounds)
	}
}

// printStoredEntries prints the stored grid of each troop of a run
func printStoredEntries(w io.Writer, byTroop map[string][]db.Entry, troops []string) {
	for _, troop := range troops {
		fmt.Fprintf(w, "\n%s\n", troop)
		printGridHeader(w)

		cells := make(map[model.TimeSlot]string)
		for _, e := range byTroop[troop] {
			d, err := model.ParseDay(e.Day)
			if err != nil {
				continue
			}
			start := model.TimeSlot{Day: d, Slot: e.Slot}
			cells[start] = truncate(e.Activity, slotColWidth-2)
			for i := 1; i < e.Span; i++ {
				cells[model.TimeSlot{Day: d, Slot: e.Slot + i}] = continued
			}
		}

		for _, d := range model.Days {
			fmt.Fprintf(w, "%-*s", dayColWidth, d.Short())
			for _, ts := range model.DaySlots(d) {
				cell, ok := cells[ts]
				if !ok {
					cell = "-"
				}
				fmt.Fprintf(w, "%-*s", slotColWidth, cell)
			}
			fmt.Fprintln(w)
		}
	}
}
