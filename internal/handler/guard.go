package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-gate-pass/internal/engine"
	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/queue"
)

// GuardHandler serves the gate terminal: look up the pass a student is
// traveling on and flip it OUT/IN.  Roll numbers typed at the gate go
// through the O→0 rewrite before lookup.  Publish is called after a
// successful transition; a nil Publish disables events.
type GuardHandler struct {
	Engine  *engine.Engine
	Views   *engine.Views
	Publish func(ctx context.Context, ev queue.GateMovementEvent) error
}

// NewGuardHandler constructs a GuardHandler.
func NewGuardHandler(eng *engine.Engine, views *engine.Views, publish func(ctx context.Context, ev queue.GateMovementEvent) error) *GuardHandler {
	if eng == nil || views == nil {
		panic("nil dependency passed to NewGuardHandler")
	}
	return &GuardHandler{Engine: eng, Views: views, Publish: publish}
}

// GetStudent handles POST /get_student: the guard scans or types a
// roll number and gets the single most relevant active pass: when
// several are active, the earliest out date wins.
func (h *GuardHandler) GetStudent(c echo.Context) error {
	var body struct {
		RollNumber string `json:"roll_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	roll := model.NormalizeGuardRoll(body.RollNumber)
	if roll == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	pass, found, err := h.Views.GuardScan(ctx, roll)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Student not found or all requests are completed"})
	}

	resp := echo.Map{
		"request_id":  pass.RequestID,
		"name":        pass.Name,
		"roll_number": roll,
		"L/O":         string(pass.Category),
		"status":      pass.Status.Wire(),
		// out is possible until the student has left; in once they have
		"out_enabled": pass.OutTime == "" && (pass.Status == model.StatusAwaitingOut || pass.Status == model.StatusExtended),
		"in_enabled":  pass.OutTime != "" && (pass.Status == model.StatusOut || pass.Status == model.StatusExtended),
	}
	switch pass.Category {
	case model.CategoryLocal:
		resp["location"] = "Local"
	case model.CategoryOutstation:
		resp["location"] = "OutStation"
		resp["city"] = pass.City
		resp["state"] = pass.State
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles POST /update_status: the guard marks the
// student OUT or IN.  IN archives the pass.
func (h *GuardHandler) UpdateStatus(c echo.Context) error {
	var body struct {
		RequestID  int64  `json:"request_id"`
		RollNumber string `json:"roll_number"`
		Action     string `json:"action"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	roll := model.NormalizeGuardRoll(body.RollNumber)
	if body.RequestID == 0 || roll == "" || body.Action == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}
	action, err := engine.ParseAction(body.Action)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unknown action"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	pass, err := h.Engine.Transition(ctx, body.RequestID, roll, action)
	if err != nil {
		switch err {
		case engine.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Student not found"})
		case engine.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Action not allowed in current state"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}

	if h.Publish != nil {
		ev := queue.GateMovementEvent{
			RequestID:  pass.RequestID,
			RollNumber: pass.RollNumber,
			Name:       pass.Name,
			Category:   string(pass.Category),
			Action:     string(action),
			Status:     pass.Status.Wire(),
			OccurredAt: pass.OutTime,
		}
		if action == engine.ActionIn {
			ev.OccurredAt = pass.InTime
		}
		// best effort; the student is already through the gate
		_ = h.Publish(ctx, ev)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
