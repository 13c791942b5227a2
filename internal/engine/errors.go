// Package engine implements the gate pass lifecycle: creation with
// conflict detection, guard OUT/IN transitions, extensions, deletion
// and archive reconciliation.  It is the only writer of the active and
// archive tables.
package engine

import "errors"

// Sentinel errors returned by the engine.  Handlers map these to HTTP
// statuses; anything else is a store failure and becomes a 500.
var (
	// ErrMissingFields is returned when a create or extension request
	// lacks a required field for its category.
	ErrMissingFields = errors.New("missing required fields")
	// ErrInvalidDate is returned for dates not in DD/MM/YYYY form.
	ErrInvalidDate = errors.New("invalid date format")
	// ErrDateOrder is returned when the out date falls after the in date.
	ErrDateOrder = errors.New("out date after in date")
	// ErrOverlap is returned when the proposed range intersects an
	// existing active pass for the same student.
	ErrOverlap = errors.New("overlapping request exists")
	// ErrDuplicateActive is returned when the student already holds an
	// active pass of the same category.
	ErrDuplicateActive = errors.New("active request of this category exists")
	// ErrNotFound is returned when no matching non-archived pass exists.
	ErrNotFound = errors.New("request not found")
	// ErrInvalidState is returned for a transition the lifecycle does
	// not permit (e.g. IN before OUT).
	ErrInvalidState = errors.New("invalid state for action")
	// ErrUnknownAction is returned for guard actions other than OUT/IN.
	ErrUnknownAction = errors.New("unknown action")
)
