package input

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// TroopRecord is one troop as written in a roster file
type TroopRecord struct {
	Name         string   `yaml:"name" validate:"required"`
	Scouts       int      `yaml:"scouts" validate:"min=0"`
	Adults       int      `yaml:"adults" validate:"min=0"`
	Campsite     string   `yaml:"campsite,omitempty"`
	Commissioner string   `yaml:"commissioner,omitempty"`
	Preferences  []string `yaml:"preferences,omitempty"`
}

// Roster is a roster file: the troops attending one camp week
type Roster struct {
	// Week labels the session, usually its start date
	Week    string        `yaml:"week,omitempty"`
	Records []TroopRecord `yaml:"troops" validate:"required,min=1,dive"`
}

// ActivityRecord is one activity as written in a catalog file
type ActivityRecord struct {
	Name               string             `yaml:"name" validate:"required"`
	Duration           float64            `yaml:"duration" validate:"gt=0,lte=3"`
	Zone               string             `yaml:"zone,omitempty"`
	Area               string             `yaml:"area,omitempty"`
	Staff              string             `yaml:"staff,omitempty"`
	StaffLoad          int                `yaml:"staffLoad,omitempty" validate:"min=0"`
	Conflicts          []string           `yaml:"conflicts,omitempty"`
	Sharing            *model.SharingRule `yaml:"sharing,omitempty"`
	Concurrent         bool               `yaml:"concurrent,omitempty"`
	Repeatable         bool               `yaml:"repeatable,omitempty"`
	LargeTroopScouts   int                `yaml:"largeTroopScouts,omitempty" validate:"min=0"`
	LargeTroopDuration float64            `yaml:"largeTroopDuration,omitempty" validate:"min=0,lte=3"`
}

// CatalogFile is a catalog file: the activities and the rules that designate them
type CatalogFile struct {
	Activities []ActivityRecord `yaml:"activities" validate:"required,min=1,dive"`
	Rules      model.Rules      `yaml:"rules"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadRoster reads and validates a roster file
func LoadRoster(path string) (*Roster, error) {
	var roster Roster
	if err := decode(path, &roster); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(roster.Records))
	for _, t := range roster.Records {
		if seen[t.Name] {
			return nil, fmt.Errorf("roster %s: duplicate troop %q", path, t.Name)
		}
		seen[t.Name] = true
	}
	return &roster, nil
}

// Troops converts the roster records to model troops
func (r *Roster) Troops() []*model.Troop {
	troops := make([]*model.Troop, len(r.Records))
	for i, rec := range r.Records {
		troops[i] = &model.Troop{
			Name:         rec.Name,
			Scouts:       rec.Scouts,
			Adults:       rec.Adults,
			Campsite:     rec.Campsite,
			Commissioner: rec.Commissioner,
			Preferences:  cleanPreferences(rec.Preferences),
		}
	}
	return troops
}

// cleanPreferences trims names and drops blanks, keeping rank order
func cleanPreferences(prefs []string) []string {
	out := make([]string, 0, len(prefs))
	for _, p := range prefs {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadCatalog reads a catalog file and builds the catalog it describes
func LoadCatalog(path string) (*model.Catalog, error) {
	var file CatalogFile
	if err := decode(path, &file); err != nil {
		return nil, err
	}

	activities := make([]*model.Activity, len(file.Activities))
	for i, rec := range file.Activities {
		activities[i] = &model.Activity{
			Name:               rec.Name,
			Duration:           rec.Duration,
			Zone:               rec.Zone,
			Area:               rec.Area,
			Staff:              rec.Staff,
			StaffLoad:          rec.StaffLoad,
			Conflicts:          rec.Conflicts,
			Sharing:            rec.Sharing,
			Concurrent:         rec.Concurrent,
			Repeatable:         rec.Repeatable,
			LargeTroopScouts:   rec.LargeTroopScouts,
			LargeTroopDuration: rec.LargeTroopDuration,
		}
	}

	rules := file.Rules
	catalog, err := model.NewCatalog(activities, &rules)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ExportCatalog converts a catalog back to its file form
func ExportCatalog(c *model.Catalog) *CatalogFile {
	file := &CatalogFile{Rules: *c.Rules}
	for _, a := range c.Activities() {
		file.Activities = append(file.Activities, ActivityRecord{
			Name:               a.Name,
			Duration:           a.Duration,
			Zone:               a.Zone,
			Area:               a.Area,
			Staff:              a.Staff,
			StaffLoad:          a.StaffLoad,
			Conflicts:          a.Conflicts,
			Sharing:            a.Sharing,
			Concurrent:         a.Concurrent,
			Repeatable:         a.Repeatable,
			LargeTroopScouts:   a.LargeTroopScouts,
			LargeTroopDuration: a.LargeTroopDuration,
		})
	}
	return file
}

// decode reads a YAML file (JSON is valid YAML) into out and validates it
func decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%s validation failed: %w", path, err)
	}
	return nil
}
