package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

// fixed wall clock for deterministic timestamps
var testClock = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	eng := New(st, time.UTC)
	eng.now = func() time.Time { return testClock }
	return eng, st
}

func localDraft(roll string) Draft {
	return Draft{
		RollNumber: roll,
		Name:       "Asha Verma",
		Batch:      "2021",
		Category:   model.CategoryLocal,
		OutDate:    "10/03/2025",
		InDate:     "10/03/2025",
		Phone:      "9876543210",
	}
}

func outstationDraft(roll string) Draft {
	return Draft{
		RollNumber: roll,
		Name:       "Asha Verma",
		Batch:      "2021",
		Category:   model.CategoryOutstation,
		OutDate:    "12/03/2025",
		InDate:     "14/03/2025",
		Locality:   "Gachibowli",
		City:       "Hyderabad",
		State:      "Telangana",
		Reason:     "family function",
		Phone:      "9876543210",
		AltPhone:   "9876500000",
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id1, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)

	id2, err := eng.Create(ctx, outstationDraft("BT21CS001"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), id2)

	pass, err := eng.Lookup(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAwaitingOut, pass.Status)
	assert.Empty(t, pass.OutTime)
}

func TestCreateValidation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"missing name", func(d *Draft) { d.Name = "" }, ErrMissingFields},
		{"missing roll", func(d *Draft) { d.RollNumber = "  " }, ErrMissingFields},
		{"bad out date", func(d *Draft) { d.OutDate = "2025-03-10" }, ErrInvalidDate},
		{"bad in date", func(d *Draft) { d.InDate = "31/02/2025" }, ErrInvalidDate},
		{"out after in", func(d *Draft) { d.OutDate = "11/03/2025"; d.InDate = "10/03/2025" }, ErrDateOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := localDraft("BT21CS001")
			tc.mutate(&d)
			_, err := eng.Create(ctx, d)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateOutstationRequiresTravelFields(t *testing.T) {
	eng, _ := newTestEngine(t)
	d := outstationDraft("BT21CS001")
	d.AltPhone = ""
	_, err := eng.Create(context.Background(), d)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreateRejectsOverlapAndDuplicates(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)

	// Same day again, any category: the ranges touch so it overlaps.
	d := outstationDraft("BT21CS001")
	d.OutDate = "10/03/2025"
	d.InDate = "11/03/2025"
	_, err = eng.Create(ctx, d)
	assert.ErrorIs(t, err, ErrOverlap)

	// Disjoint range but a second LOCAL pass: duplicate category.
	d2 := localDraft("BT21CS001")
	d2.OutDate = "20/03/2025"
	d2.InDate = "20/03/2025"
	_, err = eng.Create(ctx, d2)
	assert.ErrorIs(t, err, ErrDuplicateActive)

	// Another student is unaffected.
	_, err = eng.Create(ctx, localDraft("BT21CS002"))
	assert.NoError(t, err)
}

func TestTransitionOutThenIn(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, outstationDraft("BT21CS001"))
	require.NoError(t, err)

	// IN before OUT is not a valid movement.
	_, err = eng.Transition(ctx, id, "BT21CS001", ActionIn)
	assert.ErrorIs(t, err, ErrInvalidState)

	pass, err := eng.Transition(ctx, id, "BT21CS001", ActionOut)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOut, pass.Status)
	assert.Equal(t, "2025-03-10 09:30:00", pass.OutTime)

	// A second OUT must fail.
	_, err = eng.Transition(ctx, id, "BT21CS001", ActionOut)
	assert.ErrorIs(t, err, ErrInvalidState)

	pass, err = eng.Transition(ctx, id, "BT21CS001", ActionIn)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, pass.Status)
	assert.Equal(t, "2025-03-10 09:30:00", pass.InTime)
	// The in date is rewritten to the actual return day.
	assert.Equal(t, "10/03/2025", pass.InDate)

	// The row moved from the active table to the archive.
	_, err = eng.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	rows, err := st.ListAll(ctx, store.TableArchive)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DONE", rows[0][model.FieldStatus])
}

func TestTransitionRequiresMatchingRoll(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)

	_, err = eng.Transition(ctx, id, "BT21CS002", ActionOut)
	assert.ErrorIs(t, err, ErrNotFound)

	// Roll matching is case-insensitive.
	_, err = eng.Transition(ctx, id, "bt21cs001", ActionOut)
	assert.NoError(t, err)
}

func TestTransitionOutAfterExtension(t *testing.T) {
	// A student may extend a pass before ever leaving; the extended pass
	// can still go OUT.
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)
	require.NoError(t, eng.Extend(ctx, id, Extension{
		InDate:   "12/03/2025",
		Locality: "Gachibowli",
		City:     "Hyderabad",
		State:    "Telangana",
		Reason:   "family function",
		Phone:    "9876543210",
		AltPhone: "9876500000",
	}))

	pass, err := eng.Transition(ctx, id, "BT21CS001", ActionOut)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOut, pass.Status)
}

func TestIDsSpanArchive(t *testing.T) {
	// Archived passes keep their ids, so a new pass never reuses one.
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)
	_, err = eng.Transition(ctx, id, "BT21CS001", ActionOut)
	require.NoError(t, err)
	_, err = eng.Transition(ctx, id, "BT21CS001", ActionIn)
	require.NoError(t, err)

	id2, err := eng.Create(ctx, outstationDraft("BT21CS001"))
	require.NoError(t, err)
	assert.Equal(t, id+1, id2)
}

func TestExtendInDate(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, outstationDraft("BT21CS001"))
	require.NoError(t, err)

	assert.ErrorIs(t, eng.ExtendInDate(ctx, id, "14-03-2025"), ErrInvalidDate)
	assert.ErrorIs(t, eng.ExtendInDate(ctx, 99, "15/03/2025"), ErrNotFound)

	require.NoError(t, eng.ExtendInDate(ctx, id, "16/03/2025"))
	pass, err := eng.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "16/03/2025", pass.InDate)
	// Only the in date changes; the status is untouched.
	assert.Equal(t, model.StatusAwaitingOut, pass.Status)
}

func TestExtendMarksExtended(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)

	assert.ErrorIs(t, eng.Extend(ctx, id, Extension{InDate: "12/03/2025"}), ErrMissingFields)

	ext := Extension{
		InDate:   "12/03/2025",
		Locality: "Gachibowli",
		City:     "Hyderabad",
		State:    "Telangana",
		Reason:   "family function",
		Phone:    "9876543210",
		AltPhone: "9876500000",
	}
	require.NoError(t, eng.Extend(ctx, id, ext))

	pass, err := eng.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExtended, pass.Status)
	assert.Equal(t, "12/03/2025", pass.InDate)
	assert.Equal(t, "Hyderabad", pass.City)
}

func TestDelete(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)

	assert.ErrorIs(t, eng.Delete(ctx, 99), ErrNotFound)
	require.NoError(t, eng.Delete(ctx, id))
	_, err = eng.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileDropsHalfArchivedRows(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)
	pass, err := eng.Lookup(ctx, id)
	require.NoError(t, err)

	// Simulate a crash between archive append and active delete: the
	// same id sits in both tables.
	pass.Status = model.StatusDone
	require.NoError(t, st.Append(ctx, store.TableArchive, pass.Row()))

	removed, err := eng.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, removed)

	_, err = eng.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	// A second run finds nothing to do.
	removed, err = eng.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestCreateConcurrentDistinctStudents(t *testing.T) {
	// Creates for different roll numbers run concurrently; every one
	// must still get its own id.
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	const n = 16
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := eng.Create(ctx, localDraft(fmt.Sprintf("BT21CS%03d", i)))
			assert.NoError(t, err)
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "request id %d handed out twice", id)
		seen[id] = true
	}
	require.Len(t, seen, n)
	for want := int64(1); want <= n; want++ {
		assert.True(t, seen[want], "missing id %d", want)
	}
}

// flakyStore fails a fixed number of DeleteRow calls to simulate the
// backend dropping out between the archive append and the active delete.
type flakyStore struct {
	store.RecordStore
	failDeletes int
}

func (f *flakyStore) DeleteRow(ctx context.Context, table store.Table, id int64) error {
	if f.failDeletes > 0 {
		f.failDeletes--
		return errors.New("connection reset")
	}
	return f.RecordStore.DeleteRow(ctx, table, id)
}

func TestTransitionInterruptedBeforeDelete(t *testing.T) {
	// When IN archives the pass but the active delete fails, the active
	// copy must be left untouched (not marked DONE) so the next
	// Reconcile can find and remove it against the archive.
	mem := store.NewMemoryStore()
	flaky := &flakyStore{RecordStore: mem, failDeletes: 1}
	eng := New(flaky, time.UTC)
	eng.now = func() time.Time { return testClock }
	ctx := context.Background()

	id, err := eng.Create(ctx, localDraft("BT21CS001"))
	require.NoError(t, err)
	_, err = eng.Transition(ctx, id, "BT21CS001", ActionOut)
	require.NoError(t, err)

	_, err = eng.Transition(ctx, id, "BT21CS001", ActionIn)
	require.Error(t, err)

	// The archive copy landed; the active row still reads as out.
	archived, err := mem.ListAll(ctx, store.TableArchive)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "DONE", archived[0][model.FieldStatus])

	pass, err := eng.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOut, pass.Status)
	assert.Empty(t, pass.InTime)

	removed, err := eng.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, removed)
	_, err = eng.Lookup(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" out ")
	require.NoError(t, err)
	assert.Equal(t, ActionOut, a)
	a, err = ParseAction("IN")
	require.NoError(t, err)
	assert.Equal(t, ActionIn, a)
	_, err = ParseAction("SIDEWAYS")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
