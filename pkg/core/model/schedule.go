package model

import (
	"fmt"
	"slices"
)

// Entry places one troop in one activity from a starting slot.
// Entries are immutable; moving an entry means removing it and adding a new one.
type Entry struct {
	Troop    *Troop
	Activity *Activity
	Start    TimeSlot

	// Span is the number of physical slots reserved (ceil of the duration)
	Span int
}

// NewEntry builds an entry reserving the activity's duration for the troop
func NewEntry(t *Troop, a *Activity, start TimeSlot) *Entry {
	return &Entry{Troop: t, Activity: a, Start: start, Span: a.SlotsFor(t)}
}

// Slots returns the physical slots the entry occupies (nil if it would cross a day boundary)
func (e *Entry) Slots() []TimeSlot {
	slots, _ := e.Start.Span(e.Span)
	return slots
}

// Day returns the day the entry is on
func (e *Entry) Day() Day {
	return e.Start.Day
}

// Last returns the last slot number occupied
func (e *Entry) Last() int {
	return e.Start.Slot + e.Span - 1
}

// Occupies reports whether the entry covers the slot
func (e *Entry) Occupies(ts TimeSlot) bool {
	return ts.Day == e.Start.Day && ts.Slot >= e.Start.Slot && ts.Slot <= e.Last()
}

// Overlaps reports whether two entries share any physical slot
func (e *Entry) Overlaps(o *Entry) bool {
	return e.Start.Day == o.Start.Day && e.Start.Slot <= o.Last() && o.Start.Slot <= e.Last()
}

func (e *Entry) String() string {
	if e == nil {
		return "<nil entry>"
	}
	return fmt.Sprintf("%s: %s @ %s", e.Troop.Name, e.Activity.Name, e.Start)
}

// Schedule is the mutable weekly assignment of troops to activities.
//
// Every mutation keeps the invariants: no troop overlaps itself, no entry crosses a day
// boundary, and exclusive areas hold one session at a time unless the activity's sharing
// rule admits more. Derived indices are cached against a version counter that every
// mutation bumps, so reads never see stale data.
//
// A Schedule is owned by a single run and is not safe for concurrent use.
type Schedule struct {
	catalog  *Catalog
	troops   []*Troop
	troopIdx map[*Troop]int
	byName   map[string]*Troop

	entries []*Entry
	version uint64
	cache   *scheduleIndex
}

// scheduleIndex is derived from the entries at a given version
type scheduleIndex struct {
	version    uint64
	sorted     []*Entry
	byTroop    map[*Troop][]*Entry
	cells      map[*Troop]*[SlotsPerWeek]*Entry
	bySlot     [SlotsPerWeek][]*Entry
	byActivity map[string][]*Entry
	counts     map[*Troop]map[string]int
}

// NewSchedule creates an empty schedule for the troops
func NewSchedule(catalog *Catalog, troops []*Troop) (*Schedule, error) {
	s := &Schedule{
		catalog:  catalog,
		troops:   slices.Clone(troops),
		troopIdx: make(map[*Troop]int, len(troops)),
		byName:   make(map[string]*Troop, len(troops)),
	}
	for i, t := range troops {
		if t == nil || t.Name == "" {
			return nil, fmt.Errorf("troop %d has no name", i)
		}
		if _, exists := s.byName[t.Name]; exists {
			return nil, fmt.Errorf("duplicate troop %q", t.Name)
		}
		s.troopIdx[t] = i
		s.byName[t.Name] = t
	}
	return s, nil
}

// Catalog returns the catalog the schedule was built against
func (s *Schedule) Catalog() *Catalog {
	return s.catalog
}

// Troops returns the troops in roster order
func (s *Schedule) Troops() []*Troop {
	return slices.Clone(s.troops)
}

// Troop looks up a troop by name
func (s *Schedule) Troop(name string) (*Troop, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Version returns the mutation counter
func (s *Schedule) Version() uint64 {
	return s.version
}

// Len returns the number of entries
func (s *Schedule) Len() int {
	return len(s.entries)
}

func (s *Schedule) index() *scheduleIndex {
	if s.cache != nil && s.cache.version == s.version {
		return s.cache
	}

	idx := &scheduleIndex{
		version:    s.version,
		sorted:     slices.Clone(s.entries),
		byTroop:    make(map[*Troop][]*Entry, len(s.troops)),
		cells:      make(map[*Troop]*[SlotsPerWeek]*Entry, len(s.troops)),
		byActivity: make(map[string][]*Entry),
		counts:     make(map[*Troop]map[string]int, len(s.troops)),
	}

	// Chronological, then roster order, then activity name
	slices.SortFunc(idx.sorted, func(a, b *Entry) int {
		if d := a.Start.Index() - b.Start.Index(); d != 0 {
			return d
		}
		if d := s.troopIdx[a.Troop] - s.troopIdx[b.Troop]; d != 0 {
			return d
		}
		switch {
		case a.Activity.Name < b.Activity.Name:
			return -1
		case a.Activity.Name > b.Activity.Name:
			return 1
		}
		return 0
	})

	for _, t := range s.troops {
		idx.cells[t] = &[SlotsPerWeek]*Entry{}
		idx.counts[t] = make(map[string]int)
	}

	for _, e := range idx.sorted {
		idx.byTroop[e.Troop] = append(idx.byTroop[e.Troop], e)
		idx.byActivity[e.Activity.Name] = append(idx.byActivity[e.Activity.Name], e)
		idx.counts[e.Troop][e.Activity.Name]++
		for _, ts := range e.Slots() {
			idx.cells[e.Troop][ts.Index()] = e
			idx.bySlot[ts.Index()] = append(idx.bySlot[ts.Index()], e)
		}
	}

	s.cache = idx
	return idx
}

// Entries returns every entry in chronological order
func (s *Schedule) Entries() []*Entry {
	return slices.Clone(s.index().sorted)
}

// EntriesForTroop returns the troop's entries in chronological order
func (s *Schedule) EntriesForTroop(t *Troop) []*Entry {
	return slices.Clone(s.index().byTroop[t])
}

// EntriesForSlot returns every entry occupying the slot (including multi-slot entries started earlier)
func (s *Schedule) EntriesForSlot(ts TimeSlot) []*Entry {
	if !ts.Valid() {
		return nil
	}
	return slices.Clone(s.index().bySlot[ts.Index()])
}

// EntriesForActivity returns every entry of the activity in chronological order
func (s *Schedule) EntriesForActivity(name string) []*Entry {
	return slices.Clone(s.index().byActivity[name])
}

// EntriesForTroopOnDay returns the troop's entries starting on the day
func (s *Schedule) EntriesForTroopOnDay(t *Troop, d Day) []*Entry {
	var out []*Entry
	for _, e := range s.index().byTroop[t] {
		if e.Day() == d {
			out = append(out, e)
		}
	}
	return out
}

// EntryAt returns the troop's entry occupying the slot, or nil
func (s *Schedule) EntryAt(t *Troop, ts TimeSlot) *Entry {
	cells, ok := s.index().cells[t]
	if !ok || !ts.Valid() {
		return nil
	}
	return cells[ts.Index()]
}

// IsTroopFree reports whether the troop has nothing in the slot
func (s *Schedule) IsTroopFree(t *Troop, ts TimeSlot) bool {
	return ts.Valid() && s.EntryAt(t, ts) == nil
}

// IsRangeFree reports whether the troop is free for n consecutive slots from start on one day
func (s *Schedule) IsRangeFree(t *Troop, start TimeSlot, n int) bool {
	slots, ok := start.Span(n)
	if !ok {
		return false
	}
	for _, ts := range slots {
		if !s.IsTroopFree(t, ts) {
			return false
		}
	}
	return true
}

// FreeSlots returns the troop's unassigned slots in chronological order
func (s *Schedule) FreeSlots(t *Troop) []TimeSlot {
	var free []TimeSlot
	for _, ts := range WeekSlots() {
		if s.IsTroopFree(t, ts) {
			free = append(free, ts)
		}
	}
	return free
}

// Gaps returns the total number of unassigned slot-units over all troops
func (s *Schedule) Gaps() int {
	gaps := 0
	for _, t := range s.troops {
		gaps += len(s.FreeSlots(t))
	}
	return gaps
}

// Count returns how many times the troop holds the activity
func (s *Schedule) Count(t *Troop, activity string) int {
	return s.index().counts[t][activity]
}

// Has reports whether the troop holds the activity
func (s *Schedule) Has(t *Troop, activity string) bool {
	return s.Count(t, activity) > 0
}

// DayCount returns how many entries the troop has starting on the day
func (s *Schedule) DayCount(t *Troop, d Day) int {
	return len(s.EntriesForTroopOnDay(t, d))
}

// AreaBlockers returns the entries that would stop the troop taking the activity at start
// because of exclusive-area occupancy, shared-capacity limits or declared conflicts.
// The troop's own entries are never blockers (that is an overlap).
func (s *Schedule) AreaBlockers(t *Troop, a *Activity, start TimeSlot) []*Entry {
	return s.areaBlockers(NewEntry(t, a, start), nil)
}

// areaBlockers checks e against the entries occupying its slots, ignoring skip
func (s *Schedule) areaBlockers(e *Entry, skip *Entry) []*Entry {
	idx := s.index()
	var blockers []*Entry
	add := func(o *Entry) {
		if !slices.Contains(blockers, o) {
			blockers = append(blockers, o)
		}
	}

	for _, ts := range e.Slots() {
		var session []*Entry
		for _, o := range idx.bySlot[ts.Index()] {
			if o == skip || o == e || o.Troop == e.Troop {
				continue
			}

			if e.Activity.ConflictsWith(o.Activity) {
				add(o)
				continue
			}

			if !e.Activity.Exclusive() || o.Activity.Area != e.Activity.Area {
				continue
			}

			if o.Activity != e.Activity {
				add(o)
				continue
			}

			// Staggered sessions of the same activity overlap only by half a slot
			if e.Activity.Staggered(e.Troop) && o.Activity.Staggered(o.Troop) && o.Start != e.Start {
				continue
			}

			session = append(session, o)
		}

		if len(session) == 0 {
			continue
		}

		rule := e.Activity.Sharing
		shareable := rule != nil && len(session)+1 <= rule.MaxTroops && rule.Admits(e.Troop.Size())
		for _, o := range session {
			if !shareable || o.Start != e.Start || !rule.Admits(o.Troop.Size()) {
				shareable = false
				break
			}
		}
		if !shareable {
			for _, o := range session {
				add(o)
			}
		}
	}
	return blockers
}

// IsAvailable reports whether the troop could take the activity at start without breaking
// any schedule invariant
func (s *Schedule) IsAvailable(t *Troop, a *Activity, start TimeSlot) bool {
	return s.check("add", NewEntry(t, a, start), nil) == nil
}

// check returns the invariant the entry would break, ignoring skip
func (s *Schedule) check(op string, e *Entry, skip *Entry) error {
	if _, ok := s.troopIdx[e.Troop]; !ok {
		return &InvariantError{Op: op, Entry: e, Reason: "troop is not on the roster"}
	}

	slots, ok := e.Start.Span(e.Span)
	if !ok {
		return &InvariantError{Op: op, Entry: e, Reason: "entry crosses a day boundary"}
	}

	cells := s.index().cells[e.Troop]
	var overlaps []*Entry
	for _, ts := range slots {
		if o := cells[ts.Index()]; o != nil && o != skip && o != e && !slices.Contains(overlaps, o) {
			overlaps = append(overlaps, o)
		}
	}
	if len(overlaps) > 0 {
		return &InvariantError{Op: op, Entry: e, Conflicts: overlaps, Reason: "troop already occupied"}
	}

	if blockers := s.areaBlockers(e, skip); len(blockers) > 0 {
		return &InvariantError{Op: op, Entry: e, Conflicts: blockers, Reason: "exclusive area occupied"}
	}
	return nil
}

// Add inserts the entry. If the entry would break an invariant the schedule is left
// unchanged and an *InvariantError is returned.
func (s *Schedule) Add(e *Entry) error {
	if err := s.check("add", e, nil); err != nil {
		return err
	}
	s.entries = append(s.entries, e)
	s.version++
	return nil
}

// Place builds and adds an entry for the troop
func (s *Schedule) Place(t *Troop, a *Activity, start TimeSlot) (*Entry, error) {
	e := NewEntry(t, a, start)
	if err := s.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Remove deletes the entry
func (s *Schedule) Remove(e *Entry) error {
	i := slices.Index(s.entries, e)
	if i < 0 {
		return &InvariantError{Op: "remove", Entry: e, Reason: "entry is not in the schedule"}
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	s.version++
	return nil
}

// Replace swaps old for next atomically: on failure the schedule is unchanged
func (s *Schedule) Replace(old, next *Entry) error {
	i := slices.Index(s.entries, old)
	if i < 0 {
		return &InvariantError{Op: "replace", Entry: old, Reason: "entry is not in the schedule"}
	}
	if err := s.check("replace", next, old); err != nil {
		return err
	}
	s.entries[i] = next
	s.version++
	return nil
}

// Checkpoint captures the entries so a tentative change can be undone
type Checkpoint struct {
	entries []*Entry
}

// Checkpoint returns a restore point
func (s *Schedule) Checkpoint() Checkpoint {
	return Checkpoint{entries: slices.Clone(s.entries)}
}

// Rollback restores the entries captured by the checkpoint
func (s *Schedule) Rollback(cp Checkpoint) {
	s.entries = slices.Clone(cp.entries)
	s.version++
}

// Verify rechecks every invariant from scratch and returns the first breach found
func (s *Schedule) Verify() error {
	fresh, err := NewSchedule(s.catalog, s.troops)
	if err != nil {
		return err
	}
	for _, e := range s.Entries() {
		if err := fresh.check("verify", e, nil); err != nil {
			return err
		}
		fresh.entries = append(fresh.entries, e)
		fresh.version++
	}
	return nil
}

// Sessions returns one entry per session running in the slot: troops sharing
// a shared or concurrent activity from the same start count as one session
func (s *Schedule) Sessions(ts TimeSlot) []*Entry {
	type key struct {
		activity string
		start    TimeSlot
	}
	seen := make(map[key]bool)
	var sessions []*Entry
	for _, e := range s.EntriesForSlot(ts) {
		if e.Activity.Shared() {
			k := key{activity: e.Activity.Name, start: e.Start}
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		sessions = append(sessions, e)
	}
	return sessions
}

// StaffLoad returns the staff units on duty in the slot
func (s *Schedule) StaffLoad(ts TimeSlot) int {
	load := 0
	for _, e := range s.Sessions(ts) {
		if e.Activity.Staff != "" {
			load += e.Activity.StaffLoad
		}
	}
	return load
}

// RoleSessions returns the number of sessions in the slot staffed by the role
func (s *Schedule) RoleSessions(ts TimeSlot, role string) int {
	n := 0
	for _, e := range s.Sessions(ts) {
		if e.Activity.Staff == role {
			n++
		}
	}
	return n
}

// AreaDays returns, for an exclusive area, the number of sessions held on each day
func (s *Schedule) AreaDays(area string) map[Day]int {
	days := make(map[Day]int)
	for _, ts := range WeekSlots() {
		for _, e := range s.Sessions(ts) {
			if e.Start == ts && e.Activity.Exclusive() && e.Activity.Area == area {
				days[ts.Day]++
			}
		}
	}
	return days
}
