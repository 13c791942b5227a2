package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
	"github.com/iliyamo/hostel-gate-pass/internal/utils"
)

func newStaffEnv(t *testing.T) *StaffHandler {
	t.Helper()
	st := store.NewMemoryStore()
	hash, err := utils.HashPassword("gatekeeper", 4) // min cost keeps the test fast
	require.NoError(t, err)
	require.NoError(t, st.Append(context.Background(), store.TableStaff, store.Row{
		model.FieldStaffUsername: "guard1",
		model.FieldStaffHash:     hash,
		model.FieldStaffRole:     model.RoleGuard,
	}))
	return NewStaffHandler(st, "test-secret", 60)
}

func TestStaffLogin(t *testing.T) {
	h := newStaffEnv(t)

	rec := guardCall(t, h.Login, `{"username": "guard1", "password": "gatekeeper"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token   string `json:"token"`
		Expires string `json:"expires"`
		Role    string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.RoleGuard, resp.Role)
	assert.NotEmpty(t, resp.Expires)

	// The issued token round-trips through the verifier the middleware uses.
	user, role, err := utils.ParseStaffToken("test-secret", resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "guard1", user)
	assert.Equal(t, model.RoleGuard, role)
}

func TestStaffLoginRejectsBadCredentials(t *testing.T) {
	h := newStaffEnv(t)

	rec := guardCall(t, h.Login, `{"username": "guard1", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = guardCall(t, h.Login, `{"username": "nobody", "password": "gatekeeper"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = guardCall(t, h.Login, `{"username": "", "password": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
