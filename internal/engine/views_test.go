package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

func newTestViews(t *testing.T) (*Views, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	v := NewViews(st, time.UTC)
	v.now = func() time.Time { return testClock }
	return v, st
}

func seedPass(t *testing.T, st *store.MemoryStore, table store.Table, p model.GatePass) {
	t.Helper()
	require.NoError(t, st.Append(context.Background(), table, p.Row()))
}

func TestActiveByRollFiltersStatus(t *testing.T) {
	v, st := newTestViews(t)
	ctx := context.Background()

	seedPass(t, st, store.TableActive, model.GatePass{RequestID: 1, RollNumber: "BT21CS001", Status: model.StatusAwaitingOut})
	seedPass(t, st, store.TableActive, model.GatePass{RequestID: 2, RollNumber: "BT21CS001", Status: model.StatusOut})
	// Legacy rows with a blank status and completed rows never show on
	// the dashboard.
	seedPass(t, st, store.TableActive, model.GatePass{RequestID: 3, RollNumber: "BT21CS001", Status: model.StatusNone})
	seedPass(t, st, store.TableActive, model.GatePass{RequestID: 4, RollNumber: "BT21CS001", Status: model.StatusDone})
	seedPass(t, st, store.TableActive, model.GatePass{RequestID: 5, RollNumber: "BT21CS002", Status: model.StatusOut})

	passes, err := v.ActiveByRoll(ctx, "bt21cs001")
	require.NoError(t, err)
	ids := make([]int64, 0, len(passes))
	for _, p := range passes {
		ids = append(ids, p.RequestID)
	}
	assert.ElementsMatch(t, []int64{1, 2}, ids)
}

func TestArchivedByRoll(t *testing.T) {
	v, st := newTestViews(t)
	ctx := context.Background()

	seedPass(t, st, store.TableArchive, model.GatePass{RequestID: 1, RollNumber: "BT21CS001", Status: model.StatusDone})
	seedPass(t, st, store.TableArchive, model.GatePass{RequestID: 2, RollNumber: "BT21CS002", Status: model.StatusDone})

	passes, err := v.ArchivedByRoll(ctx, "BT21CS001")
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, int64(1), passes[0].RequestID)
}

func TestOverdue(t *testing.T) {
	v, st := newTestViews(t)
	ctx := context.Background()

	// testClock is 10/03/2025; only in dates strictly before today count.
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", Category: model.CategoryLocal,
		InDate: "09/03/2025", Status: model.StatusOut, OutTime: "2025-03-09 08:00:00",
	})
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 2, RollNumber: "BT21CS002", Category: model.CategoryLocal,
		InDate: "10/03/2025", Status: model.StatusOut, OutTime: "2025-03-10 08:00:00",
	})
	// Already back in: not overdue even with a past in date.
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 3, RollNumber: "BT21CS003", Category: model.CategoryLocal,
		InDate: "08/03/2025", Status: model.StatusOut, InTime: "2025-03-08 19:00:00",
	})
	// Wrong category.
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 4, RollNumber: "BT21CS004", Category: model.CategoryOutstation,
		InDate: "08/03/2025", Status: model.StatusOut,
	})
	// Unparsable in date rows are skipped.
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 5, RollNumber: "BT21CS005", Category: model.CategoryLocal,
		InDate: "soon", Status: model.StatusOut,
	})

	passes, err := v.Overdue(ctx, model.CategoryLocal)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, int64(1), passes[0].RequestID)

	passes, err = v.Overdue(ctx, model.CategoryOutstation)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, int64(4), passes[0].RequestID)
}

func TestGuardScanPicksEarliestOutDate(t *testing.T) {
	v, st := newTestViews(t)
	ctx := context.Background()

	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", OutDate: "12/03/2025", Status: model.StatusAwaitingOut,
	})
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 2, RollNumber: "BT21CS001", OutDate: "10/03/2025", Status: model.StatusAwaitingOut,
	})
	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 3, RollNumber: "BT21CS001", OutDate: "garbled", Status: model.StatusAwaitingOut,
	})

	pass, found, err := v.GuardScan(ctx, "BT21CS001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), pass.RequestID)
}

func TestGuardScanNoActivePass(t *testing.T) {
	v, st := newTestViews(t)
	ctx := context.Background()

	seedPass(t, st, store.TableActive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", OutDate: "10/03/2025", Status: model.StatusDone,
	})

	_, found, err := v.GuardScan(ctx, "BT21CS001")
	require.NoError(t, err)
	assert.False(t, found)
}
