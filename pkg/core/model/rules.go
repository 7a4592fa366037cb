package model

import "slices"

// Rules holds every designated activity list the engine consults.
// A single value is owned by the Catalog and shared by pointer with every component;
// it is never copied into local literals.
type Rules struct {
	// DefaultFill is the low-demand fill priority list used when a troop has a free slot
	// and no remaining preferences fit
	DefaultFill []string `yaml:"defaultFill"`

	// Fallback is the universal activity that can always fill a slot (concurrent, repeatable)
	Fallback string `yaml:"fallback" validate:"required"`

	// Accuracy activities: at most one per troop per day
	Accuracy []string `yaml:"accuracy"`

	// Beach restricts the start slots of designated activities
	Beach BeachRule `yaml:"beach"`

	// Wet activities must not be followed immediately by a TowerOutdoorSkills activity,
	// and must not form a wet-dry-wet pattern over a three-slot day
	Wet                []string `yaml:"wet"`
	TowerOutdoorSkills []string `yaml:"towerOutdoorSkills"`

	// SameDayPairs are activities that should not land on the same day for one troop
	SameDayPairs []Pair `yaml:"sameDayPairs"`

	// Closing is the activity every troop must hold exactly once on the closing day
	Closing ClosingRule `yaml:"closing"`

	// Commissioner governs the early/late activity pair and their days per role
	Commissioner CommissionerRule `yaml:"commissioner"`

	// SlotCaps bound the number of concurrent sessions needing a given staff role
	SlotCaps []SlotCap `yaml:"slotCaps" validate:"dive"`

	// MaxSlotStaff bounds the total staff units on duty in one slot (0 = unlimited)
	MaxSlotStaff int `yaml:"maxSlotStaff" validate:"min=0"`

	// ClusterAreas are the exclusive areas whose sessions are consolidated onto few days
	ClusterAreas []string `yaml:"clusterAreas"`
}

// Pair is an unordered pair of activity names
type Pair struct {
	First  string `yaml:"first" validate:"required"`
	Second string `yaml:"second" validate:"required"`
}

// Matches reports whether the pair is {a, b} in either order
func (p Pair) Matches(a, b string) bool {
	return (p.First == a && p.Second == b) || (p.First == b && p.Second == a)
}

// BeachRule restricts where designated activities may start
type BeachRule struct {
	Activities []string `yaml:"activities"`

	// AllowedSlots are the slot numbers the activities may start in
	AllowedSlots []int `yaml:"allowedSlots"`

	// OpenDays are days on which any start slot is allowed
	OpenDays []Day `yaml:"openDays"`
}

// ClosingRule names the universally mandatory closing activity and its day
type ClosingRule struct {
	Activity string `yaml:"activity" validate:"required"`
	Day      Day    `yaml:"day"`
}

// CommissionerRule is the ordered early/late pair and the days each role receives them
type CommissionerRule struct {
	Early string                      `yaml:"early"`
	Late  string                      `yaml:"late"`
	Roles map[string]CommissionerDays `yaml:"roles"`
}

// CommissionerDays are the designated days for one commissioner role
type CommissionerDays struct {
	Early Day `yaml:"early"`
	Late  Day `yaml:"late"`
}

// SlotCap bounds concurrent sessions of activities staffed by one role
type SlotCap struct {
	Staff string `yaml:"staff" validate:"required"`
	Max   int    `yaml:"max" validate:"min=1"`
}

func (r *Rules) IsAccuracy(activity string) bool {
	return slices.Contains(r.Accuracy, activity)
}

func (r *Rules) IsBeachSlot(activity string) bool {
	return slices.Contains(r.Beach.Activities, activity)
}

// BeachStartAllowed reports whether a beach-slot activity may start at ts
func (r *Rules) BeachStartAllowed(ts TimeSlot) bool {
	return slices.Contains(r.Beach.OpenDays, ts.Day) || slices.Contains(r.Beach.AllowedSlots, ts.Slot)
}

func (r *Rules) IsWet(activity string) bool {
	return slices.Contains(r.Wet, activity)
}

func (r *Rules) IsTowerOutdoorSkills(activity string) bool {
	return slices.Contains(r.TowerOutdoorSkills, activity)
}

// SameDayConflict reports whether a and b form a designated same-day pair
func (r *Rules) SameDayConflict(a, b string) bool {
	for _, p := range r.SameDayPairs {
		if p.Matches(a, b) {
			return true
		}
	}
	return false
}

// CommissionerDays returns the designated days for a role
func (r *Rules) CommissionerDays(role string) (CommissionerDays, bool) {
	days, ok := r.Commissioner.Roles[role]
	return days, ok
}

func (r *Rules) IsClusterArea(area string) bool {
	return slices.Contains(r.ClusterAreas, area)
}

// SlotCapFor returns the cap applying to activities staffed by role
func (r *Rules) SlotCapFor(role string) (SlotCap, bool) {
	for _, c := range r.SlotCaps {
		if c.Staff == role {
			return c, true
		}
	}
	return SlotCap{}, false
}
