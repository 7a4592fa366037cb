package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvariant is matched by every InvariantError
var ErrInvariant = errors.New("schedule invariant violated")

// InvariantError reports a mutation that would break a schedule invariant.
// The mutation is never applied.
type InvariantError struct {
	// Op is the mutation that was attempted (add, remove, verify)
	Op string

	// Entry is the entry being mutated
	Entry *Entry

	// Conflicts are the existing entries the mutation collided with
	Conflicts []*Entry

	// Reason describes the broken invariant
	Reason string
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Op, e.Entry, e.Reason)
	if len(e.Conflicts) > 0 {
		names := make([]string, len(e.Conflicts))
		for i, c := range e.Conflicts {
			names[i] = c.String()
		}
		fmt.Fprintf(&b, " (conflicts with %s)", strings.Join(names, "; "))
	}
	return b.String()
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}
