package model

import (
	"fmt"
	"slices"
	"sort"
)

// Catalog is the immutable set of activities available for a run, with the shared Rules
type Catalog struct {
	activities []*Activity
	byName     map[string]*Activity
	byArea     map[string][]*Activity

	// Rules is shared by pointer with every component of the run
	Rules *Rules
}

// NewCatalog builds a catalog and checks that every name the rules designate exists
func NewCatalog(activities []*Activity, rules *Rules) (*Catalog, error) {
	if rules == nil {
		return nil, fmt.Errorf("catalog rules are required")
	}

	c := &Catalog{
		activities: make([]*Activity, 0, len(activities)),
		byName:     make(map[string]*Activity, len(activities)),
		byArea:     make(map[string][]*Activity),
		Rules:      rules,
	}

	for _, a := range activities {
		if a == nil || a.Name == "" {
			return nil, fmt.Errorf("activity without a name")
		}
		if _, exists := c.byName[a.Name]; exists {
			return nil, fmt.Errorf("duplicate activity %q", a.Name)
		}
		if a.Duration <= 0 || a.Duration > 3 || a.Duration*2 != float64(int(a.Duration*2)) {
			return nil, fmt.Errorf("activity %q has invalid duration %v", a.Name, a.Duration)
		}
		if a.Sharing != nil && a.Sharing.MaxTroops < 2 {
			return nil, fmt.Errorf("activity %q shares with fewer than 2 troops", a.Name)
		}
		c.activities = append(c.activities, a)
		c.byName[a.Name] = a
		if a.Exclusive() {
			c.byArea[a.Area] = append(c.byArea[a.Area], a)
		}
	}

	// Required references
	required := []string{rules.Fallback, rules.Closing.Activity}
	if rules.Commissioner.Early != "" || rules.Commissioner.Late != "" {
		required = append(required, rules.Commissioner.Early, rules.Commissioner.Late)
	}
	for _, name := range required {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("rules reference unknown activity %q", name)
		}
	}

	fallback := c.byName[rules.Fallback]
	if !fallback.Concurrent || !fallback.Repeatable || fallback.Duration != 1 {
		return nil, fmt.Errorf("fallback activity %q must be concurrent, repeatable and one slot long", fallback.Name)
	}

	return c, nil
}

// Activity looks up an activity by name
func (c *Catalog) Activity(name string) (*Activity, bool) {
	a, ok := c.byName[name]
	return a, ok
}

// Activities returns the activities in catalog order
func (c *Catalog) Activities() []*Activity {
	return slices.Clone(c.activities)
}

// AreaActivities returns the activities sharing an exclusive area
func (c *Catalog) AreaActivities(area string) []*Activity {
	return c.byArea[area]
}

// Areas returns every exclusive area name, sorted
func (c *Catalog) Areas() []string {
	areas := make([]string, 0, len(c.byArea))
	for area := range c.byArea {
		areas = append(areas, area)
	}
	sort.Strings(areas)
	return areas
}

// Fallback returns the universal fill activity
func (c *Catalog) Fallback() *Activity {
	return c.byName[c.Rules.Fallback]
}

// MandatoryKind distinguishes the sources of mandatory activities
type MandatoryKind int

const (
	MandatoryClosing MandatoryKind = iota
	MandatoryEarly
	MandatoryLate
)

func (k MandatoryKind) String() string {
	switch k {
	case MandatoryEarly:
		return "early"
	case MandatoryLate:
		return "late"
	default:
		return "closing"
	}
}

// Mandatory is an activity a troop must hold, on its designated day
type Mandatory struct {
	Activity *Activity
	Day      Day
	Kind     MandatoryKind
}

// MandatoryActivities returns the activities the troop must hold. The boolean is false
// when the troop names a commissioner role the rules do not know; such a troop only
// receives the closing activity.
func (c *Catalog) MandatoryActivities(t *Troop) ([]Mandatory, bool) {
	r := c.Rules
	mandatory := []Mandatory{{Activity: c.byName[r.Closing.Activity], Day: r.Closing.Day, Kind: MandatoryClosing}}

	if t.Commissioner == "" || r.Commissioner.Early == "" {
		return mandatory, true
	}

	days, ok := r.CommissionerDays(t.Commissioner)
	if !ok {
		return mandatory, false
	}

	mandatory = append(mandatory,
		Mandatory{Activity: c.byName[r.Commissioner.Early], Day: days.Early, Kind: MandatoryEarly},
		Mandatory{Activity: c.byName[r.Commissioner.Late], Day: days.Late, Kind: MandatoryLate},
	)
	return mandatory, true
}

// IsMandatoryFor reports whether the activity is one of the troop's mandatory activities
// (or the closing activity, which no troop may take as an ordinary activity)
func (c *Catalog) IsMandatoryFor(t *Troop, name string) bool {
	if name == c.Rules.Closing.Activity {
		return true
	}
	mandatory, _ := c.MandatoryActivities(t)
	for _, m := range mandatory {
		if m.Activity.Name == name {
			return true
		}
	}
	return false
}
