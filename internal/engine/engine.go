package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

// Engine orchestrates every mutation of the active and archive tables.
//
// The record store has no transactions, so any read-compute-write
// sequence can race against a concurrent operation for the same
// student (two creates both passing the overlap check against a stale
// snapshot, for example).  The engine narrows that window with an
// in-process mutex keyed by normalized roll number: operations for the
// same student serialize, different students stay fully concurrent.
// This removes the self-race within one process; races across multiple
// processes sharing the store remain possible and are reconciled by
// Reconcile rather than papered over.
type Engine struct {
	st  store.RecordStore
	loc *time.Location
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// idMu serializes the id scan and the append in Create across ALL
	// students.  Ids are unique over both tables, so two creates for
	// different roll numbers must not read the same snapshot and hand
	// out the same id; the per-roll locks cannot provide that.
	idMu sync.Mutex
}

// New returns an Engine writing timestamps in the given location.
func New(st store.RecordStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		st:    st,
		loc:   loc,
		now:   time.Now,
		locks: map[string]*sync.Mutex{},
	}
}

// lockRoll acquires the per-student mutex and returns its unlock func.
func (e *Engine) lockRoll(roll string) func() {
	key := model.NormalizeRoll(roll)
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Draft carries the client-supplied fields of a new gate pass.  The
// engine assigns the id and the initial status itself.
type Draft struct {
	RollNumber string
	Name       string
	Batch      string
	Category   model.Category
	OutDate    string
	InDate     string
	Locality   string
	City       string
	State      string
	Reason     string
	Phone      string
	AltPhone   string
	Documents  string
}

func (d Draft) validate() error {
	required := []string{d.RollNumber, d.Name, d.Batch, d.OutDate, d.InDate}
	if d.Category == model.CategoryOutstation {
		required = append(required, d.Locality, d.City, d.State, d.Reason, d.Phone, d.AltPhone)
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	return nil
}

// Create validates the draft, applies the conflict policy against a
// fresh snapshot of the active table, assigns the next request id and
// appends the pass in the awaiting-out state.  On success exactly one
// new active row exists satisfying both invariants relative to the
// snapshot; concurrent creates from other processes can still slip
// past the check (see the type comment).
func (e *Engine) Create(ctx context.Context, d Draft) (int64, error) {
	if err := d.validate(); err != nil {
		return 0, err
	}
	out, err := model.ParseDate(d.OutDate)
	if err != nil {
		return 0, ErrInvalidDate
	}
	in, err := model.ParseDate(d.InDate)
	if err != nil {
		return 0, ErrInvalidDate
	}
	if out.After(in) {
		return 0, ErrDateOrder
	}

	unlock := e.lockRoll(d.RollNumber)
	defer unlock()

	// Lock order is always roll lock then idMu; no other path takes both.
	e.idMu.Lock()
	defer e.idMu.Unlock()

	active, err := e.listPasses(ctx, store.TableActive)
	if err != nil {
		return 0, err
	}
	if HasOverlap(active, d.RollNumber, out, in) {
		return 0, ErrOverlap
	}
	if HasActiveOfCategory(active, d.RollNumber, d.Category) {
		return 0, ErrDuplicateActive
	}

	archived, err := e.listPasses(ctx, store.TableArchive)
	if err != nil {
		return 0, err
	}
	// Ids are unique across both tables and never reused: archived
	// passes keep their id, so the maximum spans active and archive.
	id := int64(0)
	for _, p := range active {
		if p.RequestID > id {
			id = p.RequestID
		}
	}
	for _, p := range archived {
		if p.RequestID > id {
			id = p.RequestID
		}
	}
	id++

	pass := model.GatePass{
		RequestID:  id,
		RollNumber: strings.TrimSpace(d.RollNumber),
		Name:       d.Name,
		Batch:      d.Batch,
		Category:   d.Category,
		OutDate:    strings.TrimSpace(d.OutDate),
		InDate:     strings.TrimSpace(d.InDate),
		Locality:   d.Locality,
		City:       d.City,
		State:      d.State,
		Reason:     d.Reason,
		Phone:      d.Phone,
		AltPhone:   d.AltPhone,
		Documents:  d.Documents,
		Status:     model.StatusAwaitingOut,
	}
	if err := e.st.Append(ctx, store.TableActive, pass.Row()); err != nil {
		return 0, err
	}
	return id, nil
}

// Lookup returns the active (non-archived) pass with the given id.
// Handlers use it to resolve the owning roll number before running the
// authorization check.
func (e *Engine) Lookup(ctx context.Context, id int64) (model.GatePass, error) {
	active, err := e.listPasses(ctx, store.TableActive)
	if err != nil {
		return model.GatePass{}, err
	}
	for _, p := range active {
		if p.RequestID == id {
			return p, nil
		}
	}
	return model.GatePass{}, ErrNotFound
}

// ExtendInDate overwrites only the in date of an active pass.
func (e *Engine) ExtendInDate(ctx context.Context, id int64, newInDate string) error {
	if _, err := model.ParseDate(newInDate); err != nil {
		return ErrInvalidDate
	}
	pass, err := e.Lookup(ctx, id)
	if err != nil {
		return err
	}
	unlock := e.lockRoll(pass.RollNumber)
	defer unlock()

	err = e.st.UpdateCell(ctx, store.TableActive, id, model.FieldInDate, strings.TrimSpace(newInDate))
	if err == store.ErrRowNotFound {
		return ErrNotFound
	}
	return err
}

// Extension is the full field set applied when a local pass turns into
// a multi-day stay: the new in date plus the outstation-only fields.
type Extension struct {
	InDate    string
	Locality  string
	City      string
	State     string
	Reason    string
	Phone     string
	AltPhone  string
	Documents string
}

func (x Extension) validate() error {
	for _, v := range []string{x.InDate, x.Locality, x.City, x.State, x.Reason, x.Phone, x.AltPhone} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	return nil
}

// Extend marks the pass extended and overwrites the in date together
// with the outstation field set.  The pass must still be active.
func (e *Engine) Extend(ctx context.Context, id int64, x Extension) error {
	if err := x.validate(); err != nil {
		return err
	}
	if _, err := model.ParseDate(x.InDate); err != nil {
		return ErrInvalidDate
	}
	pass, err := e.Lookup(ctx, id)
	if err != nil {
		return err
	}
	unlock := e.lockRoll(pass.RollNumber)
	defer unlock()

	cells := map[string]string{
		model.FieldStatus:   model.StatusExtended.Wire(),
		model.FieldInDate:   strings.TrimSpace(x.InDate),
		model.FieldLocality: x.Locality,
		model.FieldCity:     x.City,
		model.FieldState:    x.State,
		model.FieldReason:   x.Reason,
		model.FieldPhone:    x.Phone,
		model.FieldAltPhone: x.AltPhone,
	}
	if strings.TrimSpace(x.Documents) != "" {
		cells[model.FieldDocuments] = x.Documents
	}
	for field, value := range cells {
		if err := e.st.UpdateCell(ctx, store.TableActive, id, field, value); err != nil {
			if err == store.ErrRowNotFound {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// Action is a guard gate action.
type Action string

const (
	ActionOut Action = "OUT"
	ActionIn  Action = "IN"
)

// ParseAction normalizes a wire action string.
func ParseAction(s string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT":
		return ActionOut, nil
	case "IN":
		return ActionIn, nil
	}
	return "", ErrUnknownAction
}

// Transition applies a guard action to the unique non-DONE pass
// matching both id and roll number (matching both defends against id
// spoofing across students).  OUT stamps the out time and moves the
// pass to the currently-out state; IN stamps the in time, rewrites the
// in date to the actual return day, marks the pass DONE, appends it to
// the archive and deletes it from the active table.  The archive
// append and active delete are two separate store calls; a crash in
// between leaves the id in both tables until Reconcile removes the
// stale active row.
func (e *Engine) Transition(ctx context.Context, id int64, roll string, action Action) (model.GatePass, error) {
	unlock := e.lockRoll(roll)
	defer unlock()

	active, err := e.listPasses(ctx, store.TableActive)
	if err != nil {
		return model.GatePass{}, err
	}
	want := model.NormalizeRoll(roll)
	var pass model.GatePass
	found := false
	for _, p := range active {
		if p.RequestID == id && model.NormalizeRoll(p.RollNumber) == want && p.Status != model.StatusDone {
			pass = p
			found = true
			break
		}
	}
	if !found {
		return model.GatePass{}, ErrNotFound
	}

	now := e.now().In(e.loc)
	switch action {
	case ActionOut:
		// Only a pass that has not left the gate yet can go out.  An
		// extended pass with no out time covers a student who extended
		// before leaving.
		if pass.OutTime != "" || (pass.Status != model.StatusAwaitingOut && pass.Status != model.StatusExtended) {
			return model.GatePass{}, ErrInvalidState
		}
		pass.OutTime = now.Format(model.TimeLayout)
		pass.Status = model.StatusOut
		for field, value := range map[string]string{
			model.FieldOutTime: pass.OutTime,
			model.FieldStatus:  pass.Status.Wire(),
		} {
			if err := e.st.UpdateCell(ctx, store.TableActive, id, field, value); err != nil {
				return model.GatePass{}, err
			}
		}
		return pass, nil

	case ActionIn:
		// IN requires the student to actually be out.
		if pass.OutTime == "" || (pass.Status != model.StatusOut && pass.Status != model.StatusExtended) {
			return model.GatePass{}, ErrInvalidState
		}
		pass.InTime = now.Format(model.TimeLayout)
		pass.InDate = now.Format(model.DateLayout) // actual return day, may differ from requested
		pass.Status = model.StatusDone
		// The completed row goes into the archive first and only then
		// leaves the active table; the active copy is never edited.  A
		// crash between the two calls leaves the id in both tables,
		// which is exactly the state Reconcile repairs (archive wins).
		if err := e.st.Append(ctx, store.TableArchive, pass.Row()); err != nil {
			return model.GatePass{}, err
		}
		if err := e.st.DeleteRow(ctx, store.TableActive, id); err != nil {
			return model.GatePass{}, err
		}
		return pass, nil
	}
	return model.GatePass{}, ErrUnknownAction
}

// Delete removes a non-archived pass regardless of its status.  The
// caller is expected to have resolved and authorized the owning roll
// number via Lookup first.
func (e *Engine) Delete(ctx context.Context, id int64) error {
	pass, err := e.Lookup(ctx, id)
	if err != nil {
		return err
	}
	unlock := e.lockRoll(pass.RollNumber)
	defer unlock()

	err = e.st.DeleteRow(ctx, store.TableActive, id)
	if err == store.ErrRowNotFound {
		return ErrNotFound
	}
	return err
}

// Reconcile repairs the known partial-failure window of the IN
// transition: a crash between the archive append and the active delete
// leaves the same id in both tables.  The archive copy is
// authoritative; the stale active row is deleted.  Returns the ids it
// removed.
func (e *Engine) Reconcile(ctx context.Context) ([]int64, error) {
	archived, err := e.listPasses(ctx, store.TableArchive)
	if err != nil {
		return nil, err
	}
	inArchive := make(map[int64]struct{}, len(archived))
	for _, p := range archived {
		inArchive[p.RequestID] = struct{}{}
	}
	active, err := e.listPasses(ctx, store.TableActive)
	if err != nil {
		return nil, err
	}
	var removed []int64
	for _, p := range active {
		if _, dup := inArchive[p.RequestID]; !dup {
			continue
		}
		if err := e.st.DeleteRow(ctx, store.TableActive, p.RequestID); err != nil && err != store.ErrRowNotFound {
			return removed, err
		}
		removed = append(removed, p.RequestID)
	}
	return removed, nil
}

func (e *Engine) listPasses(ctx context.Context, table store.Table) ([]model.GatePass, error) {
	rows, err := e.st.ListAll(ctx, table)
	if err != nil {
		return nil, err
	}
	passes := make([]model.GatePass, len(rows))
	for i, r := range rows {
		passes[i] = model.PassFromRow(r)
	}
	return passes, nil
}
