package model

import (
	"math"
	"slices"
)

// SharingRule allows an exclusive activity to host several troops in the same slot
type SharingRule struct {
	// MaxTroops is the maximum number of troops sharing one session
	MaxTroops int `yaml:"maxTroops" validate:"min=2"`

	// MaxTroopSize is the person-count (scouts + adults) every sharing troop must not exceed.
	// Zero means no size threshold.
	MaxTroopSize int `yaml:"maxTroopSize,omitempty" validate:"min=0"`
}

// Admits reports whether a troop of the given size may share a session
func (r *SharingRule) Admits(size int) bool {
	return r.MaxTroopSize == 0 || size <= r.MaxTroopSize
}

// Activity is an immutable catalog entry
type Activity struct {
	Name string

	// Duration in slot-units (1, 1.5, 2, 3)
	Duration float64

	// Zone is informational (Beach, Tower, Off-camp, ...)
	Zone string

	// Area is the exclusive-area tag. Empty means the activity is not exclusive.
	Area string

	// Staff is the staffing role required. Empty means unstaffed.
	Staff string

	// StaffLoad is the number of staff units a session needs
	StaffLoad int

	// Conflicts names activities that cannot run in the same slot as this one
	Conflicts []string

	// Sharing is the optional shared-capacity rule for the exclusive area
	Sharing *SharingRule

	// Concurrent activities host any number of troops at once
	Concurrent bool

	// Repeatable activities may appear more than once in a troop's week
	Repeatable bool

	// LargeTroopScouts and LargeTroopDuration lengthen the activity for big troops:
	// troops with more scouts than LargeTroopScouts take LargeTroopDuration instead
	LargeTroopScouts   int
	LargeTroopDuration float64
}

// DurationFor returns the duration that applies to the given troop
func (a *Activity) DurationFor(t *Troop) float64 {
	if t != nil && a.LargeTroopDuration > 0 && t.Scouts > a.LargeTroopScouts {
		return a.LargeTroopDuration
	}
	return a.Duration
}

// SlotsFor returns the number of physical slots the activity reserves for the troop
func (a *Activity) SlotsFor(t *Troop) int {
	n := int(math.Ceil(a.DurationFor(t)))
	if n < 1 {
		return 1
	}
	return n
}

// Staggered reports whether the duration ends mid-slot (e.g. 1.5),
// which lets sessions of the same activity starting in adjacent slots overlap.
func (a *Activity) Staggered(t *Troop) bool {
	d := a.DurationFor(t)
	return d != math.Trunc(d)
}

// ConflictsWith reports whether the two activities are declared conflicting (either direction)
func (a *Activity) ConflictsWith(other *Activity) bool {
	return slices.Contains(a.Conflicts, other.Name) || slices.Contains(other.Conflicts, a.Name)
}

// Exclusive reports whether the activity occupies an exclusive area
func (a *Activity) Exclusive() bool {
	return a.Area != "" && !a.Concurrent
}

// Shared reports whether several troops in one slot form a single session
func (a *Activity) Shared() bool {
	return a.Sharing != nil || a.Concurrent
}
