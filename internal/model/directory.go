package model

import "strings"

// Directory field names.  The directory table predates the roll number
// scheme change, so every student carries both the old and the new roll
// number; the bearer token authorizes either.
const (
	FieldLegacyRoll  = "Old Roll Number"
	FieldCurrentRoll = "Roll Number (New Roll Number)"
	FieldFullName    = "Full Name"
	FieldDirBatch    = "Batch"
	FieldToken       = "Token"
)

// DirectoryFields lists the directory columns in storage order.
var DirectoryFields = []string{
	FieldLegacyRoll, FieldCurrentRoll, FieldFullName, FieldDirBatch, FieldToken,
}

// DirectoryEntry maps a student's roll numbers to identity metadata and
// the opaque bearer token that authorizes student-facing operations.
type DirectoryEntry struct {
	LegacyRoll  string
	CurrentRoll string
	Name        string
	Batch       string
	Token       string
}

// DirectoryFromRow decodes a stored directory row.
func DirectoryFromRow(row map[string]string) DirectoryEntry {
	return DirectoryEntry{
		LegacyRoll:  strings.TrimSpace(row[FieldLegacyRoll]),
		CurrentRoll: strings.TrimSpace(row[FieldCurrentRoll]),
		Name:        row[FieldFullName],
		Batch:       row[FieldDirBatch],
		Token:       strings.TrimSpace(row[FieldToken]),
	}
}

// Matches reports whether the claimed roll number belongs to this entry.
// Either the legacy or the current roll number qualifies; comparison is
// case-insensitive.
func (d DirectoryEntry) Matches(roll string) bool {
	n := NormalizeRoll(roll)
	return n != "" && (NormalizeRoll(d.LegacyRoll) == n || NormalizeRoll(d.CurrentRoll) == n)
}
