package allocator

import (
	"fmt"
	"slices"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// FillPolicy decides which activities are tried, in order, when filling a troop's free slots
type FillPolicy interface {
	// Name returns the identifier used in configuration
	Name() string

	// Candidates returns activity names to try for the troop, most wanted first.
	// Names the catalog does not know and activities the troop already holds are
	// filtered out by the engine.
	Candidates(catalog *model.Catalog, t *model.Troop) []string
}

// Policy names accepted in configuration
const (
	PolicyPreferenceFirst = "preference-first"
	PolicyDefaultsOnly    = "defaults-only"
)

// PreferenceFirst tries every remaining preference in rank order, then the default fill list
type PreferenceFirst struct{}

func (PreferenceFirst) Name() string { return PolicyPreferenceFirst }

func (PreferenceFirst) Candidates(catalog *model.Catalog, t *model.Troop) []string {
	candidates := slices.Clone(t.Preferences)
	for _, name := range catalog.Rules.DefaultFill {
		if !slices.Contains(candidates, name) {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// DefaultsOnly fills gaps from the default fill list alone
type DefaultsOnly struct{}

func (DefaultsOnly) Name() string { return PolicyDefaultsOnly }

func (DefaultsOnly) Candidates(catalog *model.Catalog, _ *model.Troop) []string {
	return slices.Clone(catalog.Rules.DefaultFill)
}

// PolicyByName returns the fill policy registered under name
func PolicyByName(name string) (FillPolicy, error) {
	switch name {
	case "", PolicyPreferenceFirst:
		return PreferenceFirst{}, nil
	case PolicyDefaultsOnly:
		return DefaultsOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown fill policy %q", name)
	}
}
