package model

import (
	"fmt"
	"strings"
)

// Day is a camp day. Days are ordered Monday through Friday.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Days lists the camp days in chronological order
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

func (d Day) String() string {
	if d < Monday || d > Friday {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Short returns the three letter abbreviation used in slot labels
func (d Day) Short() string {
	return d.String()[:3]
}

// SlotCount returns the number of slots on the day (Thursday has two, every other day three)
func (d Day) SlotCount() int {
	if d == Thursday {
		return 2
	}
	return 3
}

// ParseDay parses a full or abbreviated day name (case-insensitive)
func ParseDay(s string) (Day, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Days {
		name := strings.ToLower(d.String())
		if needle == name || needle == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// MarshalYAML writes the day as its name
func (d Day) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalText accepts day names in config and input files
func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeSlot is a single schedulable period: a day and a 1-based slot number
type TimeSlot struct {
	Day  Day
	Slot int
}

// SlotsPerWeek is the number of slot-units in a camp week (3+3+3+2+3)
const SlotsPerWeek = 14

// WeekSlots returns every slot of the week in chronological order
func WeekSlots() []TimeSlot {
	slots := make([]TimeSlot, 0, SlotsPerWeek)
	for _, d := range Days {
		for n := 1; n <= d.SlotCount(); n++ {
			slots = append(slots, TimeSlot{Day: d, Slot: n})
		}
	}
	return slots
}

// DaySlots returns the slots of a single day in order
func DaySlots(d Day) []TimeSlot {
	slots := make([]TimeSlot, 0, d.SlotCount())
	for n := 1; n <= d.SlotCount(); n++ {
		slots = append(slots, TimeSlot{Day: d, Slot: n})
	}
	return slots
}

// Valid reports whether the slot number is within the day's range
func (s TimeSlot) Valid() bool {
	return s.Day >= Monday && s.Day <= Friday && s.Slot >= 1 && s.Slot <= s.Day.SlotCount()
}

// Index returns the slot's position in WeekSlots (0-13)
func (s TimeSlot) Index() int {
	idx := 0
	for d := Monday; d < s.Day; d++ {
		idx += d.SlotCount()
	}
	return idx + s.Slot - 1
}

// Before reports whether s sorts strictly before other (by day, then slot number)
func (s TimeSlot) Before(other TimeSlot) bool {
	if s.Day != other.Day {
		return s.Day < other.Day
	}
	return s.Slot < other.Slot
}

// Next returns the following slot on the same day, or false at the end of the day
func (s TimeSlot) Next() (TimeSlot, bool) {
	if s.Slot >= s.Day.SlotCount() {
		return TimeSlot{}, false
	}
	return TimeSlot{Day: s.Day, Slot: s.Slot + 1}, true
}

// Span returns the n consecutive slots starting at s, or false if they cross the end of the day
func (s TimeSlot) Span(n int) ([]TimeSlot, bool) {
	if !s.Valid() || n < 1 || s.Slot+n-1 > s.Day.SlotCount() {
		return nil, false
	}
	slots := make([]TimeSlot, n)
	for i := range slots {
		slots[i] = TimeSlot{Day: s.Day, Slot: s.Slot + i}
	}
	return slots, true
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s-%d", s.Day.Short(), s.Slot)
}
