package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeFile(t, "roster.yaml", `
week: "2026-06-08"
troops:
  - name: "Troop 101"
    scouts: 12
    adults: 3
    campsite: "Birch"
    commissioner: "A"
    preferences: ["Archery", "  Sailing ", "", "Climbing Tower"]
  - name: "Troop 202"
    scouts: 8
    adults: 2
`)

	roster, err := LoadRoster(path)
	require.NoError(t, err)

	assert.Equal(t, "2026-06-08", roster.Week)
	troops := roster.Troops()
	require.Len(t, troops, 2)

	assert.Equal(t, "Troop 101", troops[0].Name)
	assert.Equal(t, 15, troops[0].Size())
	assert.Equal(t, "A", troops[0].Commissioner)
	assert.Equal(t, []string{"Archery", "Sailing", "Climbing Tower"}, troops[0].Preferences)

	assert.Empty(t, troops[1].Preferences)
	assert.Empty(t, troops[1].Commissioner)
}

func TestLoadRoster_JSON(t *testing.T) {
	path := writeFile(t, "roster.json", `{"troops": [{"name": "Troop 7", "scouts": 5, "preferences": ["Fishing"]}]}`)

	roster, err := LoadRoster(path)
	require.NoError(t, err)

	troops := roster.Troops()
	require.Len(t, troops, 1)
	assert.Equal(t, []string{"Fishing"}, troops[0].Preferences)
}

func TestLoadRoster_RejectsDuplicateTroops(t *testing.T) {
	path := writeFile(t, "roster.yaml", `
troops:
  - name: "Troop 1"
  - name: "Troop 1"
`)

	_, err := LoadRoster(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate troop")
}

func TestLoadRoster_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no troops", content: `week: "2026-06-08"`},
		{name: "missing name", content: "troops:\n  - scouts: 4\n"},
		{name: "negative scouts", content: "troops:\n  - name: \"T\"\n    scouts: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRoster(writeFile(t, "roster.yaml", tt.content))
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadRoster_FileNotFound(t *testing.T) {
	_, err := LoadRoster("/nonexistent/roster.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

const smallCatalog = `
rules:
  fallback: "Free Time"
  closing:
    activity: "Reflection"
    day: "Friday"
  beach:
    activities: ["Swim"]
    allowedSlots: [1, 3]
    openDays: ["Thu"]
  slotCaps:
    - staff: "Beach Staff"
      max: 2
activities:
  - name: "Free Time"
    duration: 1
    concurrent: true
    repeatable: true
  - name: "Reflection"
    duration: 1
    concurrent: true
  - name: "Swim"
    duration: 1
    area: "Swim"
    staff: "Beach Staff"
    staffLoad: 2
    sharing:
      maxTroops: 2
      maxTroopSize: 16
  - name: "Sailing"
    duration: 1.5
    area: "Sailing"
    largeTroopScouts: 10
    largeTroopDuration: 2
`

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog(writeFile(t, "catalog.yaml", smallCatalog))
	require.NoError(t, err)

	assert.Len(t, catalog.Activities(), 4)
	assert.Equal(t, "Free Time", catalog.Fallback().Name)
	assert.Equal(t, model.Friday, catalog.Rules.Closing.Day)
	assert.Equal(t, []model.Day{model.Thursday}, catalog.Rules.Beach.OpenDays)

	swim, ok := catalog.Activity("Swim")
	require.True(t, ok)
	require.NotNil(t, swim.Sharing)
	assert.Equal(t, 2, swim.Sharing.MaxTroops)
	assert.True(t, swim.Exclusive())

	sailing, ok := catalog.Activity("Sailing")
	require.True(t, ok)
	assert.Equal(t, 2.0, sailing.DurationFor(&model.Troop{Scouts: 11}))
	assert.Equal(t, 1.5, sailing.DurationFor(&model.Troop{Scouts: 6}))
}

func TestLoadCatalog_UnknownFallback(t *testing.T) {
	content := `
rules:
  fallback: "Nap"
  closing:
    activity: "Reflection"
activities:
  - name: "Reflection"
    duration: 1
`
	_, err := LoadCatalog(writeFile(t, "catalog.yaml", content))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown activity")
}

func TestLoadCatalog_InvalidDuration(t *testing.T) {
	content := `
rules:
  fallback: "Free Time"
  closing:
    activity: "Free Time"
activities:
  - name: "Free Time"
    duration: 4
    concurrent: true
    repeatable: true
`
	_, err := LoadCatalog(writeFile(t, "catalog.yaml", content))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestExportCatalog_LoadsBack(t *testing.T) {
	exported := ExportCatalog(model.DefaultCatalog())

	data, err := yaml.Marshal(exported)
	require.NoError(t, err)

	catalog, err := LoadCatalog(writeFile(t, "catalog.yaml", string(data)))
	require.NoError(t, err)

	assert.Len(t, catalog.Activities(), len(model.DefaultCatalog().Activities()))
	assert.Equal(t, model.DefaultRules().Commissioner, catalog.Rules.Commissioner)
	assert.Equal(t, model.DefaultRules().Closing, catalog.Rules.Closing)
}
