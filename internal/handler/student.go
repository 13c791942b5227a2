package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-gate-pass/internal/auth"
	"github.com/iliyamo/hostel-gate-pass/internal/engine"
	"github.com/iliyamo/hostel-gate-pass/internal/middleware"
	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// StudentHandler bundles the dependencies for the student-facing
// endpoints.  Every endpoint resolves the caller's bearer token against
// the directory and checks it authorizes the roll number the request
// acts on (taken from the validated body for mutations, from the path
// for reads) before touching the engine.
type StudentHandler struct {
	Engine *engine.Engine
	Views  *engine.Views
	Auth   *auth.Verifier
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(eng *engine.Engine, views *engine.Views, verifier *auth.Verifier) *StudentHandler {
	if eng == nil || views == nil || verifier == nil {
		panic("nil dependency passed to NewStudentHandler")
	}
	return &StudentHandler{Engine: eng, Views: views, Auth: verifier}
}

// passView is the wire shape of a gate pass on the student endpoints.
// The JSON keys are the historical column headers.
type passView struct {
	RequestID int64  `json:"request_id"`
	Category  string `json:"L/O"`
	OutDate   string `json:"OutDate"`
	InDate    string `json:"InDate"`
	Locality  string `json:"Locality/Area"`
	City      string `json:"City"`
	State     string `json:"State"`
	Reason    string `json:"Reason"`
	Phone     string `json:"Phone Number"`
	AltPhone  string `json:"Alt. Phone Number"`
	Documents string `json:"Documents"`
	Status    string `json:"Status"`
	OutTime   string `json:"OutTime"`
	InTime    string `json:"InTime"`
}

func toPassView(p model.GatePass) passView {
	return passView{
		RequestID: p.RequestID,
		Category:  string(p.Category),
		OutDate:   p.OutDate,
		InDate:    p.InDate,
		Locality:  p.Locality,
		City:      p.City,
		State:     p.State,
		Reason:    p.Reason,
		Phone:     p.Phone,
		AltPhone:  p.AltPhone,
		Documents: p.Documents,
		Status:    p.Status.Wire(),
		OutTime:   p.OutTime,
		InTime:    p.InTime,
	}
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// authErrJSON maps verifier errors onto the 401/403 responses.  A nil
// return means the error was not an auth error.
func authErrJSON(c echo.Context, err error) error {
	switch err {
	case nil:
		return nil
	case auth.ErrMissingToken:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	case auth.ErrTokenUnknown:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token not recognized"})
	case auth.ErrRollMismatch:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "token does not match roll number"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// GetRequests handles GET /requests/:roll_number: the student's
// in-flight passes.
func (h *StudentHandler) GetRequests(c echo.Context) error {
	roll := c.Param("roll_number")
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), roll); err != nil {
		return authErrJSON(c, err)
	}
	passes, err := h.Views.ActiveByRoll(ctx, roll)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]passView, 0, len(passes))
	for _, p := range passes {
		out = append(out, toPassView(p))
	}
	return c.JSON(http.StatusOK, out)
}

// GetPastRequests handles GET /past_requests/:roll_number: the
// student's archived passes.
func (h *StudentHandler) GetPastRequests(c echo.Context) error {
	roll := c.Param("roll_number")
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), roll); err != nil {
		return authErrJSON(c, err)
	}
	passes, err := h.Views.ArchivedByRoll(ctx, roll)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]passView, 0, len(passes))
	for _, p := range passes {
		out = append(out, toPassView(p))
	}
	return c.JSON(http.StatusOK, out)
}

// StudentDetails handles GET /student_details/:roll_number: directory
// lookup by the legacy roll number.
func (h *StudentHandler) StudentDetails(c echo.Context) error {
	roll := c.Param("roll_number")
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), roll); err != nil {
		return authErrJSON(c, err)
	}
	entry, err := h.Auth.LookupLegacy(ctx, roll)
	if err != nil {
		if err == auth.ErrStudentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"RollNumber": model.NormalizeRoll(entry.CurrentRoll),
		"Name":       entry.Name,
		"Batch":      entry.Batch,
	})
}

// newRequestBody carries the create payload.  Status/OutTime/InTime are
// accepted for compatibility but ignored: the engine owns the initial
// state and the guard owns the timestamps.
type newRequestBody struct {
	RollNumber string `json:"RollNumber"`
	Name       string `json:"Name"`
	Batch      string `json:"Batch"`
	Category   string `json:"L/O"`
	OutDate    string `json:"OutDate"`
	InDate     string `json:"InDate"`
	Locality   string `json:"Locality/Area"`
	City       string `json:"City"`
	State      string `json:"State"`
	Reason     string `json:"Reason"`
	Phone      string `json:"Phone Number"`
	AltPhone   string `json:"Alt. Phone Number"`
	Documents  string `json:"Documents"`
	Status     string `json:"Status"`
	OutTime    string `json:"OutTime"`
	InTime     string `json:"InTime"`
}

func (b newRequestBody) draft(cat model.Category) engine.Draft {
	return engine.Draft{
		RollNumber: b.RollNumber,
		Name:       b.Name,
		Batch:      b.Batch,
		Category:   cat,
		OutDate:    b.OutDate,
		InDate:     b.InDate,
		Locality:   b.Locality,
		City:       b.City,
		State:      b.State,
		Reason:     b.Reason,
		Phone:      b.Phone,
		AltPhone:   b.AltPhone,
		Documents:  b.Documents,
	}
}

// NewRequestLocal handles POST /new_request_local.
func (h *StudentHandler) NewRequestLocal(c echo.Context) error {
	return h.create(c, model.CategoryLocal)
}

// NewRequestOutstation handles POST /new_request_outstation.
func (h *StudentHandler) NewRequestOutstation(c echo.Context) error {
	return h.create(c, model.CategoryOutstation)
}

func (h *StudentHandler) create(c echo.Context, cat model.Category) error {
	var body newRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), body.RollNumber); err != nil {
		return authErrJSON(c, err)
	}
	id, err := h.Engine.Create(ctx, body.draft(cat))
	if err != nil {
		switch err {
		case engine.ErrMissingFields:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Please fill in all required fields"})
		case engine.ErrInvalidDate:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid date format. Use DD/MM/YYYY"})
		case engine.ErrDateOrder:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Out date must be on or before In date"})
		case engine.ErrOverlap:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Overlapping request exists"})
		case engine.ErrDuplicateActive:
			msg := "You already have an active Single day outing request"
			if cat == model.CategoryOutstation {
				msg = "You already have an active Multiple days outing request"
			}
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": msg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Request submitted successfully",
		"RequestID": id,
	})
}

// DeleteRequest handles DELETE /delete_request/:id.  The owning roll
// number is looked up from the row itself and checked against the
// caller's token before anything is removed.
func (h *StudentHandler) DeleteRequest(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	pass, err := h.Engine.Lookup(ctx, id)
	if err != nil {
		if err == engine.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Request ID not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "An error occurred while deleting the request"})
	}
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), pass.RollNumber); err != nil {
		return authErrJSON(c, err)
	}
	if err := h.Engine.Delete(ctx, id); err != nil {
		if err == engine.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Request ID not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "An error occurred while deleting the request"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Request deleted successfully"})
}

// UpdateInDateMultiple handles POST /update_in_date_multiple: extends
// only the in date of an existing outstation pass.
func (h *StudentHandler) UpdateInDateMultiple(c echo.Context) error {
	var body struct {
		RequestID int64  `json:"request_id"`
		InDate    string `json:"in_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if body.RequestID == 0 || body.InDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required fields"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	pass, err := h.Engine.Lookup(ctx, body.RequestID)
	if err != nil {
		if err == engine.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), pass.RollNumber); err != nil {
		return authErrJSON(c, err)
	}
	if err := h.Engine.ExtendInDate(ctx, body.RequestID, body.InDate); err != nil {
		switch err {
		case engine.ErrInvalidDate:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid date format. Expected dd/MM/yyyy"})
		case engine.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "In Date updated successfully"})
}

// CheckInDateSingle handles POST /check_in_date_single: pre-flight for
// converting a single-day pass into a multi-day stay: an existing
// active outstation pass blocks the conversion.
func (h *StudentHandler) CheckInDateSingle(c echo.Context) error {
	var body struct {
		RollNumber string `json:"roll_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request body"})
	}
	if body.RollNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "RollNumber is missing"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), body.RollNumber); err != nil {
		return authErrJSON(c, err)
	}
	passes, err := h.Views.ActiveByRoll(ctx, body.RollNumber)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	for _, p := range passes {
		if p.Category == model.CategoryOutstation {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"message": "You already have an active Multiple days outing request. Delete the Multiple days outing request and try again.",
			})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "No active multiple days outing request found"})
}

// UpdateInDateSingle handles POST /update_in_date_single: applies the
// full extension: new in date plus the outstation field set, and marks
// the pass extended.
func (h *StudentHandler) UpdateInDateSingle(c echo.Context) error {
	var body struct {
		RequestID int64  `json:"request_id"`
		InDate    string `json:"in_date"`
		Locality  string `json:"locality"`
		City      string `json:"city"`
		State     string `json:"state"`
		Reason    string `json:"reason"`
		Phone     string `json:"phone_number"`
		AltPhone  string `json:"alternate_phone"`
		Documents string `json:"documents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid request body"})
	}
	if body.RequestID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Please fill in all required fields"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	pass, err := h.Engine.Lookup(ctx, body.RequestID)
	if err != nil {
		if err == engine.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	if err := h.Auth.Verify(ctx, middleware.TokenFrom(c), pass.RollNumber); err != nil {
		return authErrJSON(c, err)
	}
	ext := engine.Extension{
		InDate:    body.InDate,
		Locality:  body.Locality,
		City:      body.City,
		State:     body.State,
		Reason:    body.Reason,
		Phone:     body.Phone,
		AltPhone:  body.AltPhone,
		Documents: body.Documents,
	}
	if err := h.Engine.Extend(ctx, body.RequestID, ext); err != nil {
		switch err {
		case engine.ErrMissingFields:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Please fill in all required fields"})
		case engine.ErrInvalidDate:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid date format. Expected dd/MM/yyyy"})
		case engine.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Request updated successfully"})
}
