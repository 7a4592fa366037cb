package constraints

import (
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// Category identifies a family of placement rules
type Category string

const (
	CategoryOverlap       Category = "overlap"
	CategoryExclusiveArea Category = "exclusive_area"
	CategoryAccuracy      Category = "accuracy"
	CategoryBeachSlot     Category = "beach_slot"
	CategoryWetDry        Category = "wet_dry"
	CategoryContiguity    Category = "contiguity"
	CategoryCapacity      Category = "capacity"
	CategoryOrdering      Category = "ordering"
	CategoryMandatory     Category = "mandatory_presence"
	CategoryDuplicate     Category = "duplicate"
	CategorySameDay       Category = "same_day_pair"
)

// Categories lists every category in report order
var Categories = []Category{
	CategoryOverlap,
	CategoryExclusiveArea,
	CategoryContiguity,
	CategoryCapacity,
	CategoryOrdering,
	CategoryMandatory,
	CategoryDuplicate,
	CategoryAccuracy,
	CategoryBeachSlot,
	CategoryWetDry,
	CategorySameDay,
}

// Violation is a single broken rule found in a schedule
type Violation struct {
	Category Category
	Hard     bool

	// Troop is nil for slot-wide violations (capacity)
	Troop *model.Troop

	// Slot is where the violation occurs
	Slot model.TimeSlot

	// Entries are the entries involved
	Entries []*model.Entry

	Description string

	// Exempt marks a documented exception that is still counted, e.g. a Top 5
	// beach activity started in a restricted slot
	Exempt bool
}

// Rule defines the interface for a placement rule.
// Rules never mutate the schedule.
type Rule interface {
	// Category returns the category this rule reports under
	Category() Category

	// Hard rules veto placements; soft rules only score them
	Hard() bool

	// Weight is the penalty per violation used by the validator score
	Weight() int

	// Violations checks the whole schedule
	// Returns a slice of violations (empty if all valid)
	Violations(s *model.Schedule) []Violation

	// WouldViolate reports whether adding the entry would introduce a new violation
	WouldViolate(s *model.Schedule, e *model.Entry) bool
}
