// Package lifecycle holds the adjacency tables used by the element and
// delivery state machines.
package lifecycle

import (
	"fmt"
	"slices"

	appErrors "precast-tracker/pkg/errors"
)

// Table maps every known status to the statuses it may move to next.
// A status with an empty slice is terminal.
type Table[S ~string] map[S][]S

// Known reports whether status appears in the table.
func (t Table[S]) Known(status S) bool {
	_, ok := t[status]
	return ok
}

// Allowed reports whether from -> to is an edge of the table.
func (t Table[S]) Allowed(from, to S) bool {
	return slices.Contains(t[from], to)
}

// Next returns a copy of the statuses reachable from status.
func (t Table[S]) Next(status S) []S {
	return slices.Clone(t[status])
}

// Terminal reports whether status has no outgoing edges.
func (t Table[S]) Terminal(status S) bool {
	next, ok := t[status]
	return ok && len(next) == 0
}

// Validate checks a transition and returns an InvalidTransition AppError
// carrying the allowed next statuses when the edge is missing.
func (t Table[S]) Validate(from, to S) error {
	if !t.Known(from) {
		return appErrors.NewAppError(
			string(appErrors.KindInvalidTransition),
			fmt.Sprintf("unknown current status: %s", from),
			nil,
		)
	}
	if !t.Known(to) {
		return appErrors.NewAppError(
			string(appErrors.KindInvalidTransition),
			fmt.Sprintf("unknown target status: %s", to),
			nil,
		)
	}
	if t.Allowed(from, to) {
		return nil
	}

	allowed := make([]string, 0, len(t[from]))
	for _, s := range t[from] {
		allowed = append(allowed, string(s))
	}
	return appErrors.InvalidTransition(string(from), string(to), allowed)
}
