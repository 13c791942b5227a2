package store

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore is an in-process RecordStore used by tests and local
// development.  A single mutex guards the tables; rows are cloned on
// the way in and out so callers never share map storage with the store.
// It deliberately implements only the four adapter operations (no
// transactions) so code exercised against it sees the same contract
// as the real backend.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[Table][]Row
}

// NewMemoryStore returns an empty MemoryStore covering the standard tables.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: map[Table][]Row{
		TableActive:    {},
		TableArchive:   {},
		TableDirectory: {},
		TableStaff:     {},
	}}
}

func cloneRow(r Row) Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// ListAll returns a snapshot of the table.
func (s *MemoryStore) ListAll(_ context.Context, table Table) ([]Row, error) {
	if _, err := schemaFor(table); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

// Append adds a row to the end of the table.
func (s *MemoryStore) Append(_ context.Context, table Table, row Row) error {
	if _, err := schemaFor(table); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], cloneRow(row))
	return nil
}

// UpdateCell overwrites one field of the row keyed by rowID.
func (s *MemoryStore) UpdateCell(_ context.Context, table Table, rowID int64, field, value string) error {
	schema, err := schemaFor(table)
	if err != nil {
		return err
	}
	if schema.keyField == "" {
		return ErrTableImmutable
	}
	if !schema.hasField(field) {
		return ErrUnknownField
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.tables[table] {
		if rowKey(r, schema.keyField) == rowID {
			r[field] = value
			return nil
		}
	}
	return ErrRowNotFound
}

// DeleteRow removes the row keyed by rowID.
func (s *MemoryStore) DeleteRow(_ context.Context, table Table, rowID int64) error {
	schema, err := schemaFor(table)
	if err != nil {
		return err
	}
	if schema.keyField == "" {
		return ErrTableImmutable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[table]
	for i, r := range rows {
		if rowKey(r, schema.keyField) == rowID {
			s.tables[table] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrRowNotFound
}

func rowKey(r Row, keyField string) int64 {
	id, _ := strconv.ParseInt(strings.TrimSpace(r[keyField]), 10, 64)
	return id
}
