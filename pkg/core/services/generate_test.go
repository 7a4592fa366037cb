package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/db"
)

// mockRunStore implements RunWriter and RunReader for testing
type mockRunStore struct {
	mu              sync.Mutex
	runs            []db.Run
	entries         []db.Entry
	insertedRuns    []db.Run
	insertedEntries []db.Entry
	insertRunErr    error
	getRunsErr      error
	getEntriesErr   error
}

func (m *mockRunStore) InsertRun(ctx context.Context, run *db.Run, entries []db.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertRunErr != nil {
		return m.insertRunErr
	}
	m.insertedRuns = append(m.insertedRuns, *run)
	m.insertedEntries = append(m.insertedEntries, entries...)
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context) ([]db.Run, error) {
	if m.getRunsErr != nil {
		return nil, m.getRunsErr
	}
	return m.runs, nil
}

func (m *mockRunStore) GetEntries(ctx context.Context, runID string) ([]db.Entry, error) {
	if m.getEntriesErr != nil {
		return nil, m.getEntriesErr
	}
	var out []db.Entry
	for _, e := range m.entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{MaxRepairRounds: 5, MaxConcurrentRuns: 2}
	cfg.ApplyDefaults()
	return cfg
}

func roster(prefix string, n int) []*model.Troop {
	prefs := []string{
		"Archery", "Climbing Tower", "Sailing", "Troop Rifle", "Aqua Trampoline",
		"Knots and Lashings", "Fishing", "Hemp Craft", "Gaga Ball", "Orienteering",
	}
	roles := []string{"A", "B", "C"}
	troops := make([]*model.Troop, n)
	for i := range troops {
		rotated := append(append([]string{}, prefs[i%len(prefs):]...), prefs[:i%len(prefs)]...)
		troops[i] = &model.Troop{
			Name:         fmt.Sprintf("%s Troop %d", prefix, i+1),
			Scouts:       8 + i,
			Adults:       2,
			Commissioner: roles[i%len(roles)],
			Preferences:  rotated,
		}
	}
	return troops
}

func TestGenerateSchedule_StoresRun(t *testing.T) {
	store := &mockRunStore{}
	week := Week{Label: "2026-06-08", Troops: roster("W1", 4)}

	result, err := GenerateSchedule(context.Background(), store, testConfig(), model.DefaultCatalog(), zap.NewNop(), week)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Schedule.Gaps())
	assert.Equal(t, 0, result.Report.Counts.Hard)
	assert.Equal(t, 0, result.Report.Gaps)
	assert.Equal(t, "2026-06-08", result.Run.Week)
	assert.Equal(t, "preference-first", result.Run.Policy)
	assert.Equal(t, result.Outcome.Rounds, result.Report.Rounds)

	require.Len(t, store.insertedRuns, 1)
	assert.Equal(t, result.Run.ID, store.insertedRuns[0].ID)
	assert.Len(t, store.insertedEntries, result.Schedule.Len())
	for _, e := range store.insertedEntries {
		assert.Equal(t, result.Run.ID, e.RunID)
	}
}

func TestGenerateSchedule_NilStore(t *testing.T) {
	week := Week{Label: "2026-06-15", Troops: roster("W2", 2)}

	result, err := GenerateSchedule(context.Background(), nil, testConfig(), model.DefaultCatalog(), nil, week)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Run.Troops)
}

func TestGenerateSchedule_StoreError(t *testing.T) {
	store := &mockRunStore{insertRunErr: errors.New("connection refused")}
	week := Week{Label: "2026-06-08", Troops: roster("W1", 1)}

	_, err := GenerateSchedule(context.Background(), store, testConfig(), model.DefaultCatalog(), zap.NewNop(), week)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store run")
}

func TestGenerateSchedule_EmptyRoster(t *testing.T) {
	_, err := GenerateSchedule(context.Background(), nil, testConfig(), model.DefaultCatalog(), zap.NewNop(), Week{Label: "empty"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "has no troops")
}

func TestGenerateSchedule_UnknownPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.FillPolicy = "random"

	_, err := GenerateSchedule(context.Background(), nil, cfg, model.DefaultCatalog(), zap.NewNop(), Week{Troops: roster("W", 1)})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown fill policy")
}

func TestGenerateSchedule_DuplicateTroopNames(t *testing.T) {
	troops := []*model.Troop{{Name: "Troop 1", Scouts: 5}, {Name: "Troop 1", Scouts: 6}}

	_, err := GenerateSchedule(context.Background(), nil, testConfig(), model.DefaultCatalog(), zap.NewNop(), Week{Troops: troops})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to allocate")
}

func TestGenerateSchedule_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateSchedule(ctx, nil, testConfig(), model.DefaultCatalog(), zap.NewNop(), Week{Troops: roster("W", 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateWeeks_IndependentRuns(t *testing.T) {
	store := &mockRunStore{}
	weeks := []Week{
		{Label: "2026-06-08", Troops: roster("A", 3)},
		{Label: "2026-06-15", Troops: roster("B", 2)},
		{Label: "2026-06-22", Troops: roster("C", 4)},
	}

	results, err := GenerateWeeks(context.Background(), store, testConfig(), model.DefaultCatalog(), zap.NewNop(), weeks)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, weeks[i].Label, res.Run.Week)
		assert.Equal(t, len(weeks[i].Troops), res.Run.Troops)
		assert.Equal(t, 0, res.Schedule.Gaps())
		assert.Equal(t, 0, res.Report.Counts.Hard)
	}
	assert.Len(t, store.insertedRuns, 3)
}

func TestGenerateWeeks_FailureIsReturned(t *testing.T) {
	weeks := []Week{
		{Label: "ok", Troops: roster("A", 1)},
		{Label: "empty"},
	}

	_, err := GenerateWeeks(context.Background(), nil, testConfig(), model.DefaultCatalog(), zap.NewNop(), weeks)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "has no troops")
}

func TestGenerateWeeks_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateWeeks(ctx, nil, testConfig(), model.DefaultCatalog(), zap.NewNop(), []Week{{Troops: roster("A", 1)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListRuns_FiltersByWeek(t *testing.T) {
	store := &mockRunStore{runs: []db.Run{
		{ID: "r1", Week: "2026-06-08"},
		{ID: "r2", Week: "2026-06-15"},
		{ID: "r3", Week: "2026-06-08"},
	}}

	all, err := ListRuns(context.Background(), store, zap.NewNop(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := ListRuns(context.Background(), store, zap.NewNop(), "2026-06-08")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "r1", filtered[0].ID)
	assert.Equal(t, "r3", filtered[1].ID)
}

func TestListRuns_StoreError(t *testing.T) {
	store := &mockRunStore{getRunsErr: errors.New("boom")}

	_, err := ListRuns(context.Background(), store, zap.NewNop(), "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch runs")
}

func TestRunEntries_GroupsByTroop(t *testing.T) {
	store := &mockRunStore{entries: []db.Entry{
		{RunID: "r1", Troop: "Troop 2", Activity: "Archery", Day: "Monday", Slot: 1},
		{RunID: "r1", Troop: "Troop 1", Activity: "Sailing", Day: "Monday", Slot: 1},
		{RunID: "r1", Troop: "Troop 2", Activity: "Reflection", Day: "Friday", Slot: 3},
		{RunID: "r2", Troop: "Troop 9", Activity: "Fishing", Day: "Monday", Slot: 2},
	}}

	byTroop, troops, err := RunEntries(context.Background(), store, zap.NewNop(), "r1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Troop 2", "Troop 1"}, troops)
	assert.Len(t, byTroop["Troop 2"], 2)
	assert.Len(t, byTroop["Troop 1"], 1)
}

func TestRunEntries_UnknownRun(t *testing.T) {
	_, _, err := RunEntries(context.Background(), &mockRunStore{}, zap.NewNop(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "has no entries")
}
