package engine

import (
	"time"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// The conflict policy is a pair of pure predicates over a snapshot of
// the active table.  Callers pass normalized roll numbers and validated
// date ranges (proposedOut <= proposedIn); malformed inputs are a
// caller bug, not a policy concern.

// HasOverlap reports whether any non-DONE pass for the roll number has
// a date range intersecting [proposedOut, proposedIn].  Intervals are
// closed on both ends: ranges that merely touch at a boundary day
// conflict.  Category is irrelevant here: a LOCAL and an OUTSTATION
// pass for the same student still collide on dates.  Rows whose stored
// dates do not parse are skipped; they cannot be meaningfully compared.
func HasOverlap(active []model.GatePass, roll string, proposedOut, proposedIn time.Time) bool {
	roll = model.NormalizeRoll(roll)
	for _, p := range active {
		if model.NormalizeRoll(p.RollNumber) != roll || p.Status == model.StatusDone {
			continue
		}
		existingOut, err := model.ParseDate(p.OutDate)
		if err != nil {
			continue
		}
		existingIn, err := model.ParseDate(p.InDate)
		if err != nil {
			continue
		}
		if !proposedOut.After(existingIn) && !existingOut.After(proposedIn) {
			return true
		}
	}
	return false
}

// HasActiveOfCategory reports whether the student already holds a
// non-DONE pass of the given category.  One active LOCAL and one active
// OUTSTATION pass may coexist (subject to HasOverlap); two of the same
// category may not.
func HasActiveOfCategory(active []model.GatePass, roll string, cat model.Category) bool {
	roll = model.NormalizeRoll(roll)
	for _, p := range active {
		if model.NormalizeRoll(p.RollNumber) != roll || p.Status == model.StatusDone {
			continue
		}
		if p.Category == cat {
			return true
		}
	}
	return false
}
