package engine

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

// Views are the read-only projections over the pass tables.  They carry
// no invariants beyond reflecting the snapshot read from the store.
type Views struct {
	st  store.RecordStore
	loc *time.Location
	now func() time.Time
}

// NewViews returns Views evaluating "today" in the given location.
func NewViews(st store.RecordStore, loc *time.Location) *Views {
	if loc == nil {
		loc = time.Local
	}
	return &Views{st: st, loc: loc, now: time.Now}
}

// ActiveByRoll returns the student's in-flight passes.  Rows with a
// blank status (legacy drafts) and DONE rows are excluded, matching
// what the student dashboard has always shown.
func (v *Views) ActiveByRoll(ctx context.Context, roll string) ([]model.GatePass, error) {
	passes, err := v.list(ctx, store.TableActive)
	if err != nil {
		return nil, err
	}
	want := model.NormalizeRoll(roll)
	out := make([]model.GatePass, 0)
	for _, p := range passes {
		if model.NormalizeRoll(p.RollNumber) == want && p.Status.Active() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ArchivedByRoll returns the student's completed passes.
func (v *Views) ArchivedByRoll(ctx context.Context, roll string) ([]model.GatePass, error) {
	passes, err := v.list(ctx, store.TableArchive)
	if err != nil {
		return nil, err
	}
	want := model.NormalizeRoll(roll)
	out := make([]model.GatePass, 0)
	for _, p := range passes {
		if model.NormalizeRoll(p.RollNumber) == want && p.Status == model.StatusDone {
			out = append(out, p)
		}
	}
	return out, nil
}

// Overdue returns the active passes of the category whose in date has
// passed without the student checking back in (in time still blank).
// Rows with unparsable in dates are skipped rather than guessed at.
func (v *Views) Overdue(ctx context.Context, cat model.Category) ([]model.GatePass, error) {
	passes, err := v.list(ctx, store.TableActive)
	if err != nil {
		return nil, err
	}
	today, _ := model.ParseDate(v.now().In(v.loc).Format(model.DateLayout))
	out := make([]model.GatePass, 0)
	for _, p := range passes {
		if p.Category != cat || p.InTime != "" || !p.Status.Active() {
			continue
		}
		in, err := model.ParseDate(p.InDate)
		if err != nil {
			continue
		}
		if in.Before(today) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GuardScan picks the single most relevant active pass for a roll
// number at the gate.  When several rows are active, the one with the
// earliest out date wins; rows with unparsable out dates sort last.
// The boolean is false when the student has no active pass.
func (v *Views) GuardScan(ctx context.Context, roll string) (model.GatePass, bool, error) {
	passes, err := v.list(ctx, store.TableActive)
	if err != nil {
		return model.GatePass{}, false, err
	}
	want := model.NormalizeRoll(roll)
	matches := make([]model.GatePass, 0)
	for _, p := range passes {
		if model.NormalizeRoll(p.RollNumber) == want && p.Status != model.StatusDone {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return model.GatePass{}, false, nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return guardSortKey(matches[i]).Before(guardSortKey(matches[j]))
	})
	return matches[0], true, nil
}

func guardSortKey(p model.GatePass) time.Time {
	t, err := model.ParseDate(p.OutDate)
	if err != nil {
		// unparsable out dates sort last
		return time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func (v *Views) list(ctx context.Context, table store.Table) ([]model.GatePass, error) {
	rows, err := v.st.ListAll(ctx, table)
	if err != nil {
		return nil, err
	}
	passes := make([]model.GatePass, len(rows))
	for i, r := range rows {
		passes[i] = model.PassFromRow(r)
	}
	return passes, nil
}
