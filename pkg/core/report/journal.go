package report

import (
	"slices"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Relaxation records a placement that deliberately broke a soft rule
type Relaxation struct {
	// Phase is the engine phase or repair pass that made the placement
	Phase string

	Troop    string
	Activity string
	Slot     model.TimeSlot

	// Categories are the soft rules broken by the placement
	Categories []constraints.Category

	// Reason is why the relaxation was needed
	Reason string
}

// InvalidReference is an input naming something the catalog or rules do not know
type InvalidReference struct {
	Troop string

	// Kind is "activity" or "commissioner"
	Kind string
	Name string
}

// Journal collects the expected, non-fatal events of a run
type Journal struct {
	relaxations []Relaxation
	invalid     []InvalidReference
}

// NewJournal creates an empty journal
func NewJournal() *Journal {
	return &Journal{}
}

// Relax records a relaxation
func (j *Journal) Relax(r Relaxation) {
	j.relaxations = append(j.relaxations, r)
}

// Relaxations returns every relaxation in the order recorded
func (j *Journal) Relaxations() []Relaxation {
	return slices.Clone(j.relaxations)
}

// RelaxationCount returns how many relaxations broke the category
func (j *Journal) RelaxationCount(category constraints.Category) int {
	n := 0
	for _, r := range j.relaxations {
		if slices.Contains(r.Categories, category) {
			n++
		}
	}
	return n
}

// Invalid records an invalid input reference. Returns false if it was already recorded.
func (j *Journal) Invalid(ref InvalidReference) bool {
	if slices.Contains(j.invalid, ref) {
		return false
	}
	j.invalid = append(j.invalid, ref)
	return true
}

// InvalidReferences returns the invalid input references in the order found
func (j *Journal) InvalidReferences() []InvalidReference {
	return slices.Clone(j.invalid)
}
