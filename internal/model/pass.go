// Package model defines the domain types for gate passes along with the
// explicit pass state machine and the legacy wire encoding used by the
// record store and the existing clients.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Category distinguishes the two kinds of outing a student can request.
// The single-letter values are the wire encoding expected by clients in
// the "L/O" field.
type Category string

const (
	// CategoryLocal is a single-day outing ("L" on the wire).
	CategoryLocal Category = "L"
	// CategoryOutstation is a multi-day outing with the extended field
	// set ("O" on the wire).
	CategoryOutstation Category = "O"
)

// ParseCategory normalizes a wire value into a Category.  Unknown values
// come back as an empty Category so callers can reject them.
func ParseCategory(s string) Category {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return CategoryLocal
	case "O":
		return CategoryOutstation
	}
	return Category("")
}

// Status is the explicit lifecycle state of a gate pass.  The historical
// store encodes these as overloaded strings: "OUT" marks a pass that is
// waiting for the guard to let the student out, "IN" marks a student who
// is currently outside and expected back, "O" marks an extended
// outstation pass and "DONE" a completed, archived pass.  Status keeps
// the semantics explicit in code while Wire()/ParseStatus preserve the
// stored encoding for compatibility.
type Status int

const (
	// StatusNone covers legacy rows with a blank status column.  Such
	// rows never appear in active views and cannot transition.
	StatusNone Status = iota
	// StatusAwaitingOut: created, student has not left yet.
	StatusAwaitingOut
	// StatusOut: student is outside; the next guard action is IN.
	StatusOut
	// StatusExtended: an outstation extension was applied while the
	// pass was in flight; still awaiting the final IN.
	StatusExtended
	// StatusDone: returned and archived.
	StatusDone
)

// ParseStatus maps a stored status cell onto the explicit state.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT":
		return StatusAwaitingOut
	case "IN":
		return StatusOut
	case "O":
		return StatusExtended
	case "DONE":
		return StatusDone
	}
	return StatusNone
}

// Wire returns the legacy store encoding for the state.
func (s Status) Wire() string {
	switch s {
	case StatusAwaitingOut:
		return "OUT"
	case StatusOut:
		return "IN"
	case StatusExtended:
		return "O"
	case StatusDone:
		return "DONE"
	}
	return ""
}

// Active reports whether the pass still occupies the student's quota,
// i.e. it has a real state and is not completed.
func (s Status) Active() bool {
	return s != StatusNone && s != StatusDone
}

// Wire formats shared with the original clients.  Dates are day-precision
// DD/MM/YYYY strings and timestamps are wall-clock local time.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "2006-01-02 15:04:05"
)

// ParseDate parses a DD/MM/YYYY wire date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// Field names used to address gate pass cells in the record store.  The
// unusual names ("L/O", "Alt. Phone Number") are the historical column
// headers and double as JSON keys on several endpoints.
const (
	FieldRequestID  = "RequestID"
	FieldRollNumber = "RollNumber"
	FieldName       = "Name"
	FieldBatch      = "Batch"
	FieldCategory   = "L/O"
	FieldOutDate    = "OutDate"
	FieldInDate     = "InDate"
	FieldLocality   = "Locality/Area"
	FieldCity       = "City"
	FieldState      = "State"
	FieldReason     = "Reason"
	FieldPhone      = "Phone Number"
	FieldAltPhone   = "Alt. Phone Number"
	FieldDocuments  = "Documents"
	FieldStatus     = "Status"
	FieldOutTime    = "OutTime"
	FieldInTime     = "InTime"
)

// PassFields lists every gate pass field in storage order.
var PassFields = []string{
	FieldRequestID, FieldRollNumber, FieldName, FieldBatch, FieldCategory,
	FieldOutDate, FieldInDate, FieldLocality, FieldCity, FieldState,
	FieldReason, FieldPhone, FieldAltPhone, FieldDocuments, FieldStatus,
	FieldOutTime, FieldInTime,
}

// GatePass is one row of the active or archive table.
type GatePass struct {
	RequestID  int64
	RollNumber string
	Name       string
	Batch      string
	Category   Category
	OutDate    string // DD/MM/YYYY
	InDate     string // DD/MM/YYYY
	Locality   string
	City       string
	State      string
	Reason     string
	Phone      string
	AltPhone   string
	Documents  string
	Status     Status
	OutTime    string // YYYY-MM-DD HH:MM:SS, stamped on gate-out
	InTime     string // YYYY-MM-DD HH:MM:SS, stamped on return
}

// PassFromRow decodes a stored row into a GatePass.  Unknown status
// values and unparsable ids degrade to zero values rather than failing;
// the store predates this service and contains hand-edited rows.
func PassFromRow(row map[string]string) GatePass {
	id, _ := strconv.ParseInt(strings.TrimSpace(row[FieldRequestID]), 10, 64)
	return GatePass{
		RequestID:  id,
		RollNumber: strings.TrimSpace(row[FieldRollNumber]),
		Name:       row[FieldName],
		Batch:      row[FieldBatch],
		Category:   ParseCategory(row[FieldCategory]),
		OutDate:    strings.TrimSpace(row[FieldOutDate]),
		InDate:     strings.TrimSpace(row[FieldInDate]),
		Locality:   row[FieldLocality],
		City:       row[FieldCity],
		State:      row[FieldState],
		Reason:     row[FieldReason],
		Phone:      row[FieldPhone],
		AltPhone:   row[FieldAltPhone],
		Documents:  row[FieldDocuments],
		Status:     ParseStatus(row[FieldStatus]),
		OutTime:    strings.TrimSpace(row[FieldOutTime]),
		InTime:     strings.TrimSpace(row[FieldInTime]),
	}
}

// Row encodes the pass back into its storage representation.
func (p GatePass) Row() map[string]string {
	return map[string]string{
		FieldRequestID:  strconv.FormatInt(p.RequestID, 10),
		FieldRollNumber: p.RollNumber,
		FieldName:       p.Name,
		FieldBatch:      p.Batch,
		FieldCategory:   string(p.Category),
		FieldOutDate:    p.OutDate,
		FieldInDate:     p.InDate,
		FieldLocality:   p.Locality,
		FieldCity:       p.City,
		FieldState:      p.State,
		FieldReason:     p.Reason,
		FieldPhone:      p.Phone,
		FieldAltPhone:   p.AltPhone,
		FieldDocuments:  p.Documents,
		FieldStatus:     p.Status.Wire(),
		FieldOutTime:    p.OutTime,
		FieldInTime:     p.InTime,
	}
}

// NormalizeRoll canonicalizes a roll number for comparisons: trimmed and
// upper-cased.  Every comparison in the engine goes through this.
func NormalizeRoll(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeGuardRoll additionally rewrites the letter O to the digit 0.
// Gate terminals frequently mistype the two; the rewrite is a data-entry
// workaround and is deliberately confined to guard-facing lookups, since
// it is ambiguous for roll numbers that legitimately contain both.
func NormalizeGuardRoll(s string) string {
	return strings.ReplaceAll(NormalizeRoll(s), "O", "0")
}
