package constraints

import (
	"slices"
	"strings"

	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Validator runs every rule over a schedule. It is read-only: nothing it does mutates
// the schedule it is given.
type Validator struct {
	rules []Rule
}

// New creates a validator with the default rules
func New() *Validator {
	return NewWithRules(DefaultRules()...)
}

// NewWithRules creates a validator with a custom rule set
func NewWithRules(rules ...Rule) *Validator {
	return &Validator{rules: rules}
}

// Rules returns the rules in evaluation order
func (v *Validator) Rules() []Rule {
	return slices.Clone(v.rules)
}

// Assessment lists the categories a hypothetical placement would newly violate
type Assessment struct {
	Hard []Category
	Soft []Category
}

// Allowed reports whether no hard rule vetoes the placement
func (a Assessment) Allowed() bool {
	return len(a.Hard) == 0
}

// Clean reports whether the placement breaks nothing at all
func (a Assessment) Clean() bool {
	return len(a.Hard) == 0 && len(a.Soft) == 0
}

// Check evaluates placing e into s without applying it
func (v *Validator) Check(s *model.Schedule, e *model.Entry) Assessment {
	var a Assessment
	for _, r := range v.rules {
		if !r.WouldViolate(s, e) {
			continue
		}
		if r.Hard() {
			a.Hard = append(a.Hard, r.Category())
		} else {
			a.Soft = append(a.Soft, r.Category())
		}
	}
	return a
}

// WouldViolate reports whether placing e would introduce a new violation of the category
func (v *Validator) WouldViolate(s *model.Schedule, e *model.Entry, category Category) bool {
	for _, r := range v.rules {
		if r.Category() == category && r.WouldViolate(s, e) {
			return true
		}
	}
	return false
}

// Violations returns every violation in the schedule, ordered by slot, category, then description
func (v *Validator) Violations(s *model.Schedule) []Violation {
	var violations []Violation
	for _, r := range v.rules {
		violations = append(violations, r.Violations(s)...)
	}
	slices.SortStableFunc(violations, func(a, b Violation) int {
		if d := a.Slot.Index() - b.Slot.Index(); d != 0 {
			return d
		}
		if d := categoryOrder(a.Category) - categoryOrder(b.Category); d != 0 {
			return d
		}
		return strings.Compare(a.Description, b.Description)
	})
	return violations
}

func categoryOrder(c Category) int {
	return slices.Index(Categories, c)
}

// Counts summarises violations per category
type Counts struct {
	ByCategory map[Category]int
	Hard       int
	Soft       int

	// Exempt counts violations inside a documented exception (included in Soft)
	Exempt int

	// Score is the weighted penalty
	Score int
}

// Get returns the count for a category
func (c Counts) Get(category Category) int {
	return c.ByCategory[category]
}

// Counts tallies the violations in the schedule
func (v *Validator) Counts(s *model.Schedule) Counts {
	c := Counts{ByCategory: make(map[Category]int, len(Categories))}
	for _, r := range v.rules {
		violations := r.Violations(s)
		c.ByCategory[r.Category()] += len(violations)
		c.Score += len(violations) * r.Weight()
		for _, viol := range violations {
			if viol.Hard {
				c.Hard++
			} else {
				c.Soft++
			}
			if viol.Exempt {
				c.Exempt++
			}
		}
	}
	return c
}

// Score returns the weighted penalty of the schedule (lower is better)
func (v *Validator) Score(s *model.Schedule) int {
	return v.Counts(s).Score
}

// NoWorseThan reports whether every category in c is at or below its count in base
func (c Counts) NoWorseThan(base Counts) bool {
	for category, n := range c.ByCategory {
		if n > base.ByCategory[category] {
			return false
		}
	}
	return true
}
