package optimizer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/camp-scheduler/pkg/core/allocator"
	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/report"
)

var popular = []string{
	"Aqua Trampoline", "Climbing Tower", "Troop Rifle", "Sailing", "Archery",
	"Water Polo", "Troop Swim", "Tie Dye", "Knots and Lashings", "Canoe Snorkel",
	"Back of the Moon", "Greased Watermelon", "Orienteering", "Dr. DNA", "Troop Shotgun",
	"Gaga Ball", "Troop Kayak", "Itasca State Park", "Hemp Craft", "Fishing",
}

func roster(n int) []*model.Troop {
	roles := []string{"A", "B", "C"}
	troops := make([]*model.Troop, n)
	for i := range troops {
		prefs := make([]string, len(popular))
		for j := range popular {
			prefs[j] = popular[(i*7+j)%len(popular)]
		}
		troops[i] = &model.Troop{
			Name:         fmt.Sprintf("Troop %d", i+1),
			Scouts:       8 + (i*5)%12,
			Adults:       2,
			Commissioner: roles[i%len(roles)],
			Preferences:  prefs,
		}
	}
	return troops
}

func newOptimizer(opts Options) *Optimizer {
	engine := allocator.NewEngine(model.DefaultCatalog(), constraints.New(), nil, nil)
	return New(engine, opts, nil)
}

func newSchedule(t *testing.T, troops ...*model.Troop) *model.Schedule {
	t.Helper()
	s, err := model.NewSchedule(model.DefaultCatalog(), troops)
	require.NoError(t, err)
	return s
}

func place(t *testing.T, s *model.Schedule, troop *model.Troop, name string, d model.Day, n int) *model.Entry {
	t.Helper()
	a, ok := s.Catalog().Activity(name)
	require.True(t, ok, "activity %q missing", name)
	e, err := s.Place(troop, a, model.TimeSlot{Day: d, Slot: n})
	require.NoError(t, err)
	return e
}

// fillWeek closes the troop's week with Reflection on Friday and free time everywhere else
func fillWeek(t *testing.T, s *model.Schedule, troop *model.Troop) {
	t.Helper()
	if s.IsTroopFree(troop, model.TimeSlot{Day: model.Friday, Slot: 3}) {
		place(t, s, troop, "Reflection", model.Friday, 3)
	}
	for _, ts := range s.FreeSlots(troop) {
		place(t, s, troop, "Campsite Free Time", ts.Day, ts.Slot)
	}
}

func activityOf(s *model.Schedule, troop *model.Troop, name string) *model.Entry {
	for _, e := range s.EntriesForTroop(troop) {
		if e.Activity.Name == name {
			return e
		}
	}
	return nil
}

func TestNew_AppliesDefaultOptions(t *testing.T) {
	o := newOptimizer(Options{})
	assert.Equal(t, DefaultOptions(), o.opts)

	o = newOptimizer(Options{MaxRounds: 3})
	assert.Equal(t, 3, o.opts.MaxRounds)
	assert.Equal(t, 15, o.opts.ProtectedRank)
}

func TestRun_FullPipeline(t *testing.T) {
	engine := allocator.NewEngine(model.DefaultCatalog(), constraints.New(), nil, nil)
	result, err := engine.Allocate(roster(12))
	require.NoError(t, err)
	s := result.Schedule

	before := report.Build(s, engine.Validator(), result.Journal, report.RunInfo{})

	outcome, err := New(engine, DefaultOptions(), nil).Run(s, result.Journal)
	require.NoError(t, err)

	after := report.Build(s, engine.Validator(), result.Journal, outcome.Info())
	assert.Equal(t, 0, after.Gaps)
	assert.Equal(t, 0, after.Counts.Hard, "no hard violations: %v", after.Counts.ByCategory)
	assert.LessOrEqual(t, len(after.MissingMandatory), len(before.MissingMandatory))
	assert.GreaterOrEqual(t, after.Top5Met, before.Top5Met)
	assert.LessOrEqual(t, outcome.Rounds, DefaultOptions().MaxRounds)
	assert.GreaterOrEqual(t, outcome.Rounds, 1)
	require.NoError(t, s.Verify())
}

func TestRun_Idempotent(t *testing.T) {
	engine := allocator.NewEngine(model.DefaultCatalog(), constraints.New(), nil, nil)
	result, err := engine.Allocate(roster(9))
	require.NoError(t, err)
	s := result.Schedule
	o := New(engine, DefaultOptions(), nil)

	// Run until the loop settles
	var outcome *Outcome
	for i := 0; i < 10; i++ {
		outcome, err = o.Run(s, result.Journal)
		require.NoError(t, err)
		if outcome.FixedPoint {
			break
		}
	}
	require.True(t, outcome.FixedPoint)

	settled := s.Entries()
	again, err := o.Run(s, result.Journal)
	require.NoError(t, err)

	assert.True(t, again.FixedPoint)
	assert.Equal(t, 1, again.Rounds)
	assert.Equal(t, 0, again.Mutations)
	assert.Equal(t, settled, s.Entries())
}

func TestRun_FillsGaps(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2}
	s := newSchedule(t, troop)

	outcome, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	assert.Equal(t, 0, s.Gaps())
	assert.Positive(t, outcome.PerPass[PassGaps])
}

func TestRun_RoundCapStillLeavesNoGaps(t *testing.T) {
	troops := roster(6)
	s := newSchedule(t, troops...)

	outcome, err := newOptimizer(Options{MaxRounds: 1}).Run(s, report.NewJournal())
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Rounds)
	assert.Equal(t, 0, s.Gaps())
}

func TestRecoverMandatory_EarlyOnDesignatedDay(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Commissioner: "A"}
	s := newSchedule(t, troop)
	place(t, s, troop, "Super Troop", model.Tuesday, 1)
	fillWeek(t, s, troop)

	_, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	delta := activityOf(s, troop, "Delta")
	superTroop := activityOf(s, troop, "Super Troop")
	require.NotNil(t, delta)
	require.NotNil(t, superTroop)

	assert.Equal(t, model.Monday, delta.Day())
	assert.True(t, delta.Start.Before(superTroop.Start))
	assert.Equal(t, 0, s.Gaps())
}

func TestRecoverMandatory_ReordersWhenEarlyDayBlocked(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Commissioner: "A"}
	others := []*model.Troop{
		{Name: "O1", Scouts: 10, Adults: 2, Commissioner: "A"},
		{Name: "O2", Scouts: 10, Adults: 2, Commissioner: "A"},
		{Name: "O3", Scouts: 10, Adults: 2, Commissioner: "A"},
	}
	s := newSchedule(t, append([]*model.Troop{troop}, others...)...)

	// Delta is taken all Monday
	for i, o := range others {
		place(t, s, o, "Delta", model.Monday, i+1)
		fillWeek(t, s, o)
	}
	place(t, s, troop, "Super Troop", model.Tuesday, 1)
	fillWeek(t, s, troop)

	_, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	delta := activityOf(s, troop, "Delta")
	superTroop := activityOf(s, troop, "Super Troop")
	require.NotNil(t, delta)
	require.NotNil(t, superTroop)

	assert.NotEqual(t, model.Monday, delta.Day())
	assert.True(t, delta.Start.Before(superTroop.Start), "Delta %s should precede Super Troop %s", delta.Start, superTroop.Start)
	assert.Empty(t, report.MissingMandatories(s))
	assert.Equal(t, 0, constraints.New().Counts(s).Hard)
	assert.Equal(t, 0, s.Gaps())
}

func TestRecoverMandatory_MovesEarlyEarlierForMissingLate(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Commissioner: "C"}
	others := []*model.Troop{
		{Name: "O1", Scouts: 10, Adults: 2, Commissioner: "C"},
		{Name: "O2", Scouts: 10, Adults: 2, Commissioner: "C"},
		{Name: "O3", Scouts: 10, Adults: 2, Commissioner: "C"},
	}
	s := newSchedule(t, append([]*model.Troop{troop}, others...)...)

	// Delta is taken all Wednesday; Super Troop holds Thu-1, Fri-1 and Fri-2
	lateSlots := []model.TimeSlot{{Day: model.Friday, Slot: 1}, {Day: model.Friday, Slot: 2}, {Day: model.Thursday, Slot: 1}}
	for i, o := range others {
		place(t, s, o, "Delta", model.Wednesday, i+1)
		place(t, s, o, "Super Troop", lateSlots[i].Day, lateSlots[i].Slot)
		fillWeek(t, s, o)
	}
	// Delta deferred to the last Thursday slot leaves no room after it
	place(t, s, troop, "Delta", model.Thursday, 2)
	fillWeek(t, s, troop)
	require.Len(t, report.MissingMandatories(s), 1)

	_, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	delta := activityOf(s, troop, "Delta")
	superTroop := activityOf(s, troop, "Super Troop")
	require.NotNil(t, delta)
	require.NotNil(t, superTroop)

	assert.True(t, delta.Start.Before(superTroop.Start), "Delta %s should precede Super Troop %s", delta.Start, superTroop.Start)
	assert.Empty(t, report.MissingMandatories(s))
	assert.Equal(t, 0, constraints.New().Counts(s).Hard)
	assert.Equal(t, 0, s.Gaps())
}

func TestRecoverTop5_Displacement(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Preferences: []string{"Climbing Tower"}}
	s := newSchedule(t, troop)
	fillWeek(t, s, troop)

	outcome, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	assert.True(t, s.Has(troop, "Climbing Tower"))
	assert.Positive(t, outcome.PerPass[PassTop5])
	assert.Equal(t, 0, s.Gaps())
}

func TestRecoverTop5_Exchange(t *testing.T) {
	wants := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Preferences: []string{"Archery"}}
	holds := &model.Troop{Name: "T2", Scouts: 10, Adults: 2}
	s := newSchedule(t, wants, holds)

	place(t, s, wants, "Knots and Lashings", model.Monday, 1)
	place(t, s, holds, "Archery", model.Monday, 1)
	fillWeek(t, s, wants)
	fillWeek(t, s, holds)

	_, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	monday := model.TimeSlot{Day: model.Monday, Slot: 1}
	assert.Equal(t, "Archery", s.EntryAt(wants, monday).Activity.Name)
	assert.Equal(t, "Knots and Lashings", s.EntryAt(holds, monday).Activity.Name)
}

func TestRecoverTop5_ProtectedRanksAreNotDisplaced(t *testing.T) {
	o := newOptimizer(DefaultOptions())
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Preferences: []string{
		"Climbing Tower", "Archery", "Fishing", "Sauna", "Tie Dye",
		"Gaga Ball", "Troop Swim", "Troop Kayak", "Troop Canoe", "Orienteering",
		"Chopped!", "Hemp Craft", "Nature Bingo", "Trading Post", "9 Square",
		"Shower House",
	}}
	s := newSchedule(t, troop)
	r := &repair{Optimizer: o, s: s, catalog: s.Catalog(), journal: report.NewJournal()}

	// Gaga Ball is ranked 6th, Shower House 16th
	gaga := place(t, s, troop, "Gaga Ball", model.Monday, 1)
	shower := place(t, s, troop, "Shower House", model.Monday, 2)
	free := place(t, s, troop, "Campsite Free Time", model.Monday, 3)
	reflection := place(t, s, troop, "Reflection", model.Friday, 3)

	assert.False(t, r.displaceable(gaga, true))
	assert.True(t, r.displaceable(shower, true))
	assert.True(t, r.displaceable(free, true))
	assert.False(t, r.displaceable(reflection, false))
	assert.True(t, r.displaceable(gaga, false))
}

// swimWeek books the troop's week so Troop Swim can only start in a restricted slot: O1
// holds the Friday morning swim and every other clean window is a Top 5 preference
func swimWeek(t *testing.T, thursday ...string) (*model.Schedule, *model.Troop) {
	t.Helper()
	prefs := append([]string{"Troop Swim", "Itasca State Park", "Tamarac Wildlife Refuge", "Back of the Moon"}, thursday...)
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2, Preferences: prefs}
	other := &model.Troop{Name: "O1", Scouts: 10, Adults: 2, Preferences: []string{"Troop Swim"}}
	s := newSchedule(t, troop, other)

	place(t, s, other, "Troop Swim", model.Friday, 1)
	fillWeek(t, s, other)

	place(t, s, troop, "Itasca State Park", model.Monday, 1)
	place(t, s, troop, "Tamarac Wildlife Refuge", model.Tuesday, 1)
	place(t, s, troop, "Back of the Moon", model.Wednesday, 1)
	return s, troop
}

func TestRecoverTop5_ForcedPlacementJournaled(t *testing.T) {
	s, troop := swimWeek(t, "Canoe Snorkel")
	place(t, s, troop, "Canoe Snorkel", model.Thursday, 1)
	fillWeek(t, s, troop)

	journal := report.NewJournal()
	outcome, err := newOptimizer(DefaultOptions()).Run(s, journal)
	require.NoError(t, err)

	assert.True(t, s.Has(troop, "Troop Swim"))
	assert.Positive(t, outcome.PerPass[PassTop5])

	relaxations := journal.Relaxations()
	require.Len(t, relaxations, 1)
	assert.Equal(t, PassTop5, relaxations[0].Phase)
	assert.Equal(t, "T1", relaxations[0].Troop)
	assert.Equal(t, "Troop Swim", relaxations[0].Activity)
	assert.Equal(t, model.TimeSlot{Day: model.Friday, Slot: 2}, relaxations[0].Slot)
	assert.Contains(t, relaxations[0].Categories, constraints.CategoryBeachSlot)
	assert.Equal(t, 0, s.Gaps())
}

func TestForce_KeepsProtectedPreferenceWhenUnrankedWindowExists(t *testing.T) {
	s, troop := swimWeek(t, "Fishing", "Loon Lore")
	place(t, s, troop, "Loon Lore", model.Thursday, 1)
	place(t, s, troop, "Fishing", model.Thursday, 2)
	fillWeek(t, s, troop)

	o := newOptimizer(DefaultOptions())
	r := &repair{Optimizer: o, s: s, catalog: s.Catalog(), journal: report.NewJournal()}
	r.refresh()

	swim, _ := s.Catalog().Activity("Troop Swim")
	ok, err := r.force(want{troop: troop, activity: swim})
	require.NoError(t, err)
	require.True(t, ok)

	// Thu-1 would be clean but evicts the 6th-ranked Loon Lore
	assert.Equal(t, "Troop Swim", s.EntryAt(troop, model.TimeSlot{Day: model.Friday, Slot: 2}).Activity.Name)
	assert.Equal(t, "Loon Lore", s.EntryAt(troop, model.TimeSlot{Day: model.Thursday, Slot: 1}).Activity.Name)
	assert.Equal(t, 1, r.journal.RelaxationCount(constraints.CategoryBeachSlot))
}

func TestFixViolations_RelocatesAccuracyConflict(t *testing.T) {
	troop := &model.Troop{Name: "T1", Scouts: 10, Adults: 2}
	s := newSchedule(t, troop)
	place(t, s, troop, "Archery", model.Monday, 1)
	place(t, s, troop, "Troop Rifle", model.Monday, 2)
	fillWeek(t, s, troop)

	o := newOptimizer(DefaultOptions())
	r := &repair{Optimizer: o, s: s, catalog: s.Catalog(), journal: report.NewJournal()}
	r.refresh()

	before := o.validator.Counts(s)
	require.Equal(t, 1, before.Get(constraints.CategoryAccuracy))

	n, err := r.fixViolations()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	after := o.validator.Counts(s)
	assert.Equal(t, 0, after.Get(constraints.CategoryAccuracy))
	assert.True(t, after.NoWorseThan(before), "before %v, after %v", before.ByCategory, after.ByCategory)
	assert.Less(t, after.Score, before.Score)

	archery := activityOf(s, troop, "Archery")
	rifle := activityOf(s, troop, "Troop Rifle")
	require.NotNil(t, archery)
	require.NotNil(t, rifle)
	assert.NotEqual(t, archery.Day(), rifle.Day())
	assert.Equal(t, 0, s.Gaps())
}

func TestClusterAreas_PacksSessionsOntoOneDay(t *testing.T) {
	troops := []*model.Troop{
		{Name: "T1", Scouts: 10, Adults: 2},
		{Name: "T2", Scouts: 10, Adults: 2},
		{Name: "T3", Scouts: 10, Adults: 2},
	}
	s := newSchedule(t, troops...)
	for i, d := range []model.Day{model.Monday, model.Tuesday, model.Wednesday} {
		place(t, s, troops[i], "Archery", d, 1)
		fillWeek(t, s, troops[i])
	}
	require.Equal(t, 2, report.Usage(s, "Archery").Excess())

	outcome, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	assert.Len(t, s.AreaDays("Archery"), 1)
	assert.Equal(t, 0, report.Usage(s, "Archery").Excess())
	assert.Equal(t, 2, outcome.PerPass[PassClustering])
	for _, troop := range troops {
		assert.True(t, s.Has(troop, "Archery"))
	}
}

func TestBalanceStaff_ReducesSpread(t *testing.T) {
	troops := make([]*model.Troop, 4)
	for i := range troops {
		troops[i] = &model.Troop{Name: fmt.Sprintf("T%d", i+1), Scouts: 10, Adults: 2}
	}
	s := newSchedule(t, troops...)
	for _, troop := range troops {
		place(t, s, troop, "Ecosystem in a Jar", model.Monday, 1)
		fillWeek(t, s, troop)
	}
	_, spread, _ := report.StaffLoad(s)
	require.Equal(t, 4, spread)

	outcome, err := newOptimizer(DefaultOptions()).Run(s, report.NewJournal())
	require.NoError(t, err)

	_, spread, _ = report.StaffLoad(s)
	assert.LessOrEqual(t, spread, 2)
	assert.Positive(t, outcome.PerPass[PassStaff])
	for _, troop := range troops {
		assert.True(t, s.Has(troop, "Ecosystem in a Jar"))
	}
}

func TestPotential_LexicographicOrder(t *testing.T) {
	base := potential{hard: 0, missingMandatory: 1, gaps: 0, score: 50}

	assert.True(t, potential{missingMandatory: 0, score: 500}.less(base))
	assert.False(t, potential{hard: 1}.less(base))
	assert.True(t, potential{missingMandatory: 1, score: 40}.less(base))
	assert.False(t, base.less(base))
}
