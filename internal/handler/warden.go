package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-gate-pass/internal/auth"
	"github.com/iliyamo/hostel-gate-pass/internal/engine"
	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// WardenHandler serves the warden console: overdue lists and the
// per-student history report.
type WardenHandler struct {
	Views *engine.Views
	Auth  *auth.Verifier
}

// NewWardenHandler constructs a WardenHandler.
func NewWardenHandler(views *engine.Views, verifier *auth.Verifier) *WardenHandler {
	if views == nil || verifier == nil {
		panic("nil dependency passed to NewWardenHandler")
	}
	return &WardenHandler{Views: views, Auth: verifier}
}

// GetLocal handles POST /get_local: LOCAL passes whose in date has
// passed without the student returning.
func (h *WardenHandler) GetLocal(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	passes, err := h.Views.Overdue(ctx, model.CategoryLocal)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(passes))
	for _, p := range passes {
		out = append(out, echo.Map{
			"RequestID":    p.RequestID,
			"RollNumber":   p.RollNumber,
			"Name":         p.Name,
			"Batch":        p.Batch,
			"L/O":          string(p.Category),
			"OutDate":      p.OutDate,
			"InDate":       p.InDate,
			"Phone Number": p.Phone,
			"OutTime":      p.OutTime,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": out})
}

// GetOutstation handles POST /get_outstation: overdue OUTSTATION
// passes with the full field set.
func (h *WardenHandler) GetOutstation(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	passes, err := h.Views.Overdue(ctx, model.CategoryOutstation)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(passes))
	for _, p := range passes {
		out = append(out, echo.Map{
			"RequestID":         p.RequestID,
			"RollNumber":        p.RollNumber,
			"Name":              p.Name,
			"Batch":             p.Batch,
			"L/O":               string(p.Category),
			"OutDate":           p.OutDate,
			"InDate":            p.InDate,
			"Locality/Area":     p.Locality,
			"City":              p.City,
			"State":             p.State,
			"Reason":            p.Reason,
			"Phone Number":      p.Phone,
			"Alt. Phone Number": p.AltPhone,
			"Documents":         p.Documents,
			"OutTime":           p.OutTime,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": out})
}

// GetRollNumberwise handles POST /get_rollnumberwise: directory
// details plus the archived history for one student.  LOCAL rows keep
// the short field set, OUTSTATION rows the full one.
func (h *WardenHandler) GetRollNumberwise(c echo.Context) error {
	var body struct {
		RollNumber string `json:"rollNumber"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
	}
	if body.RollNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Roll Number is required."})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Auth.LookupCurrent(ctx, body.RollNumber)
	if err != nil {
		if err == auth.ErrStudentNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "No record found for the entered Roll Number."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	passes, err := h.Views.ArchivedByRoll(ctx, entry.CurrentRoll)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	history := make([]echo.Map, 0, len(passes))
	for _, p := range passes {
		switch p.Category {
		case model.CategoryLocal:
			history = append(history, echo.Map{
				"RequestID":    p.RequestID,
				"L/O":          string(p.Category),
				"OutDate":      p.OutDate,
				"InDate":       p.InDate,
				"Phone Number": p.Phone,
				"OutTime":      p.OutTime,
				"InTime":       p.InTime,
				"Status":       p.Status.Wire(),
			})
		case model.CategoryOutstation:
			history = append(history, echo.Map{
				"RequestID":         p.RequestID,
				"L/O":               string(p.Category),
				"OutDate":           p.OutDate,
				"InDate":            p.InDate,
				"Locality/Area":     p.Locality,
				"City":              p.City,
				"State":             p.State,
				"Reason":            p.Reason,
				"Phone Number":      p.Phone,
				"Alt. Phone Number": p.AltPhone,
				"Documents":         p.Documents,
				"OutTime":           p.OutTime,
				"InTime":            p.InTime,
				"Status":            p.Status.Wire(),
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"personalDetails": echo.Map{
			"RollNumber": entry.CurrentRoll,
			"Name":       entry.Name,
			"Batch":      entry.Batch,
		},
		"requests": history,
	})
}
