// Package store abstracts the shared record tables behind a minimal
// row-oriented interface.  The backing store offers no transactions and
// no row locks; every operation is an independent request/response call.
// Callers that need read-compute-write sequences to be safe against
// their own concurrent requests must serialize above this layer (the
// engine keeps a per-roll-number mutex for exactly that reason).
package store

import (
	"context"
	"errors"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// Table identifies one of the shared record tables.
type Table string

const (
	// TableActive holds in-progress gate passes.
	TableActive Table = "active_passes"
	// TableArchive holds completed (DONE) gate passes.
	TableArchive Table = "archived_passes"
	// TableDirectory maps roll numbers to identity and bearer tokens.
	TableDirectory Table = "directory"
	// TableStaff holds guard/warden credentials.
	TableStaff Table = "staff"
)

// Row is one record keyed by logical field name.  Using field names
// instead of column indices keeps the physical layout swappable.
type Row = map[string]string

// Sentinel errors shared by store adapters.  Handlers translate these
// into HTTP responses; everything else is an adapter failure surfaced
// as a 500.
var (
	// ErrUnknownTable is returned for a table this store does not manage.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownField is returned when a cell update names a field that
	// is not part of the table's schema.
	ErrUnknownField = errors.New("unknown field")
	// ErrRowNotFound is returned when no row carries the requested id.
	ErrRowNotFound = errors.New("row not found")
	// ErrTableImmutable is returned for cell updates or deletes against
	// tables without a numeric row key (directory, staff).
	ErrTableImmutable = errors.New("table has no row key")
)

// RecordStore is the full adapter contract.  ListAll returns a snapshot
// of every row; Append adds one row; UpdateCell overwrites a single
// field of the row identified by rowID; DeleteRow removes it.  rowID is
// the value of the table's key field (RequestID for the pass tables).
// There is no atomicity across calls.
type RecordStore interface {
	ListAll(ctx context.Context, table Table) ([]Row, error)
	Append(ctx context.Context, table Table, row Row) error
	UpdateCell(ctx context.Context, table Table, rowID int64, field, value string) error
	DeleteRow(ctx context.Context, table Table, rowID int64) error
}

// schema describes the fields of each table and, where present, the
// field acting as the numeric row key.
type tableSchema struct {
	fields   []string
	keyField string // empty for read-mostly tables without a row key
}

var schemas = map[Table]tableSchema{
	TableActive:    {fields: model.PassFields, keyField: model.FieldRequestID},
	TableArchive:   {fields: model.PassFields, keyField: model.FieldRequestID},
	TableDirectory: {fields: model.DirectoryFields},
	TableStaff:     {fields: model.StaffFields},
}

func schemaFor(table Table) (tableSchema, error) {
	s, ok := schemas[table]
	if !ok {
		return tableSchema{}, ErrUnknownTable
	}
	return s, nil
}

func (s tableSchema) hasField(field string) bool {
	for _, f := range s.fields {
		if f == field {
			return true
		}
	}
	return false
}
