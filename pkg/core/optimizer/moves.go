package optimizer

import (
	"fmt"
	"slices"

	"github.com/jakechorley/camp-scheduler/pkg/core/constraints"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
)

// rearrange removes entries then adds others in order. It returns false, leaving the
// schedule for attempt to roll back, when an addition would break a schedule invariant.
// Any error from the schedule after the availability check is a bug and is returned.
func (r *repair) rearrange(remove []*model.Entry, add []*model.Entry) (bool, error) {
	for _, e := range remove {
		if err := r.s.Remove(e); err != nil {
			return false, fmt.Errorf("failed to remove %s: %w", e, err)
		}
	}
	for _, e := range add {
		if e.Slots() == nil || !r.s.IsAvailable(e.Troop, e.Activity, e.Start) {
			return false, nil
		}
		if !r.holdable(e.Troop, e.Activity) {
			return false, nil
		}
		if err := r.s.Add(e); err != nil {
			return false, fmt.Errorf("failed to add %s: %w", e, err)
		}
	}
	return true, nil
}

// holdable reports whether the troop may take (another) session of the activity
func (r *repair) holdable(t *model.Troop, a *model.Activity) bool {
	return a.Repeatable || !r.s.Has(t, a.Name)
}

// moved returns the entry's activity for the same troop from a new start
func moved(e *model.Entry, start model.TimeSlot) *model.Entry {
	return model.NewEntry(e.Troop, e.Activity, start)
}

// relocate moves the entry to start
func (r *repair) relocate(e *model.Entry, start model.TimeSlot) (bool, error) {
	return r.rearrange([]*model.Entry{e}, []*model.Entry{moved(e, start)})
}

// swapStarts exchanges the starts of two of a troop's entries with equal spans
func (r *repair) swapStarts(a, b *model.Entry) (bool, error) {
	if a.Troop != b.Troop || a.Span != b.Span || a == b {
		return false, nil
	}
	return r.rearrange([]*model.Entry{a, b}, []*model.Entry{moved(a, b.Start), moved(b, a.Start)})
}

// mandatory reports whether the entry is one of its troop's mandatory activities
func (r *repair) mandatory(e *model.Entry) bool {
	return r.catalog.IsMandatoryFor(e.Troop, e.Activity.Name)
}

// displaceable reports whether the entry may be removed to make room for a Top 5 preference.
// Mandatory entries and Top 5 entries are never displaceable; when protect is set, entries
// ranked above the protected rank are kept too.
func (r *repair) displaceable(e *model.Entry, protect bool) bool {
	if r.mandatory(e) || e.Troop.IsTopFive(e.Activity.Name) {
		return false
	}
	if !protect {
		return true
	}
	rank := e.Troop.Rank(e.Activity.Name)
	return rank < 0 || rank >= r.opts.ProtectedRank
}

// victims returns the entries that must go for e to be placed: the troop's own entries in
// the window and every area blocker. The boolean is false if any of them may not be moved.
func (r *repair) victims(e *model.Entry, ok func(*model.Entry) bool) ([]*model.Entry, bool) {
	slots := e.Slots()
	if slots == nil {
		return nil, false
	}

	var out []*model.Entry
	for _, ts := range slots {
		if o := r.s.EntryAt(e.Troop, ts); o != nil && !slices.Contains(out, o) {
			out = append(out, o)
		}
	}
	for _, o := range r.s.AreaBlockers(e.Troop, e.Activity, e.Start) {
		if !slices.Contains(out, o) {
			out = append(out, o)
		}
	}

	for _, o := range out {
		if !ok(o) {
			return nil, false
		}
	}
	return out, true
}

// reseat tries to give each displaced entry's troop its activity back in a clean free slot.
// Entries that cannot be reseated are left out; the gap pass fills what they vacated.
func (r *repair) reseat(displaced []*model.Entry) error {
	for _, d := range displaced {
		if !r.holdable(d.Troop, d.Activity) {
			continue
		}
		for _, start := range model.WeekSlots() {
			e := moved(d, start)
			if !r.s.IsRangeFree(d.Troop, start, e.Span) || !r.s.IsAvailable(d.Troop, d.Activity, start) {
				continue
			}
			if !r.validator.Check(r.s, e).Clean() {
				continue
			}
			if err := r.s.Add(e); err != nil {
				return fmt.Errorf("failed to reseat %s: %w", e, err)
			}
			break
		}
	}
	return nil
}

// placeAt places e after removing its victims, which must all pass ok, then reseats them.
// The placement must be clean when clean is set, otherwise merely allowed. On false the
// schedule is left as it was.
func (r *repair) placeAt(e *model.Entry, ok func(*model.Entry) bool, clean bool) (constraints.Assessment, bool, error) {
	if !r.holdable(e.Troop, e.Activity) {
		return constraints.Assessment{}, false, nil
	}
	victims, movable := r.victims(e, ok)
	if !movable {
		return constraints.Assessment{}, false, nil
	}

	cp := r.s.Checkpoint()
	for _, v := range victims {
		if err := r.s.Remove(v); err != nil {
			return constraints.Assessment{}, false, fmt.Errorf("failed to remove %s: %w", v, err)
		}
	}

	if !r.s.IsAvailable(e.Troop, e.Activity, e.Start) {
		r.s.Rollback(cp)
		return constraints.Assessment{}, false, nil
	}
	assessment := r.validator.Check(r.s, e)
	if !assessment.Allowed() || (clean && !assessment.Clean()) {
		r.s.Rollback(cp)
		return assessment, false, nil
	}

	if err := r.s.Add(e); err != nil {
		return assessment, false, fmt.Errorf("failed to place %s: %w", e, err)
	}
	return assessment, true, r.reseat(victims)
}
