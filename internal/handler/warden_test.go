package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-gate-pass/internal/auth"
	"github.com/iliyamo/hostel-gate-pass/internal/engine"
	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

func newWardenEnv(t *testing.T) (*WardenHandler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.Append(context.Background(), store.TableDirectory, store.Row{
		model.FieldLegacyRoll:  "19CS001",
		model.FieldCurrentRoll: "BT21CS001",
		model.FieldFullName:    "Asha Verma",
		model.FieldDirBatch:    "2021",
		model.FieldToken:       "tok-asha",
	}))
	h := NewWardenHandler(engine.NewViews(st, time.UTC), auth.NewVerifier(st))
	return h, st
}

func TestGetLocalOverdue(t *testing.T) {
	h, st := newWardenEnv(t)
	ctx := context.Background()

	// Out since 2025 and never returned: overdue by any clock.
	require.NoError(t, st.Append(ctx, store.TableActive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", Name: "Asha Verma", Batch: "2021",
		Category: model.CategoryLocal, OutDate: "09/03/2025", InDate: "09/03/2025",
		Phone: "9876543210", Status: model.StatusOut, OutTime: "2025-03-09 08:00:00",
	}.Row()))
	// Due far in the future: not overdue.
	require.NoError(t, st.Append(ctx, store.TableActive, model.GatePass{
		RequestID: 2, RollNumber: "BT21CS002", Category: model.CategoryLocal,
		OutDate: "01/01/2099", InDate: "01/01/2099", Status: model.StatusOut,
	}.Row()))

	rec := guardCall(t, h.GetLocal, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"RequestID":1`)
	assert.Contains(t, rec.Body.String(), `"Phone Number":"9876543210"`)
	assert.NotContains(t, rec.Body.String(), `"RequestID":2`)
}

func TestGetOutstationOverdue(t *testing.T) {
	h, st := newWardenEnv(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, store.TableActive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", Name: "Asha Verma", Batch: "2021",
		Category: model.CategoryOutstation, OutDate: "05/03/2025", InDate: "09/03/2025",
		Locality: "Gachibowli", City: "Hyderabad", State: "Telangana",
		Reason: "family function", Phone: "9876543210", AltPhone: "9876500000",
		Status: model.StatusOut, OutTime: "2025-03-05 08:00:00",
	}.Row()))

	rec := guardCall(t, h.GetOutstation, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"City":"Hyderabad"`)
	assert.Contains(t, rec.Body.String(), `"Alt. Phone Number":"9876500000"`)
}

func TestGetRollNumberwise(t *testing.T) {
	h, st := newWardenEnv(t)
	ctx := context.Background()

	require.NoError(t, st.Append(ctx, store.TableArchive, model.GatePass{
		RequestID: 1, RollNumber: "BT21CS001", Category: model.CategoryLocal,
		OutDate: "09/03/2025", InDate: "09/03/2025", Phone: "9876543210",
		Status: model.StatusDone, OutTime: "2025-03-09 08:00:00", InTime: "2025-03-09 19:00:00",
	}.Row()))
	require.NoError(t, st.Append(ctx, store.TableArchive, model.GatePass{
		RequestID: 2, RollNumber: "BT21CS001", Category: model.CategoryOutstation,
		OutDate: "12/03/2025", InDate: "14/03/2025", Locality: "Gachibowli",
		City: "Hyderabad", State: "Telangana", Reason: "family function",
		Phone: "9876543210", AltPhone: "9876500000",
		Status: model.StatusDone, OutTime: "2025-03-12 08:00:00", InTime: "2025-03-14 19:00:00",
	}.Row()))

	rec := guardCall(t, h.GetRollNumberwise, `{"rollNumber": "bt21cs001"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"Name":"Asha Verma"`)
	assert.Contains(t, body, `"RequestID":1`)
	// The outstation row carries the travel fields.
	assert.Contains(t, body, `"City":"Hyderabad"`)

	rec = guardCall(t, h.GetRollNumberwise, `{"rollNumber": "BT21CS999"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = guardCall(t, h.GetRollNumberwise, `{"rollNumber": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Roll Number is required.")
}
