// Package auth resolves student bearer tokens against the directory
// table.  Tokens are static per-student credentials held in the
// directory; the verifier only confirms that the token exists and that
// the roll number the request claims to act for belongs to the same
// student.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/hostel-gate-pass/internal/model"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

// Sentinel errors mapped by handlers to 401/403.
var (
	// ErrMissingToken: no bearer token on the request.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrTokenUnknown: the token is not in the directory.
	ErrTokenUnknown = errors.New("token not recognized")
	// ErrRollMismatch: the token belongs to a different student than
	// the roll number the request is acting on.
	ErrRollMismatch = errors.New("roll number mismatch")
	// ErrStudentNotFound: no directory entry for the roll number.
	ErrStudentNotFound = errors.New("student not found")
)

// Verifier checks tokens and looks up directory entries.
type Verifier struct {
	st store.RecordStore
}

// NewVerifier returns a Verifier reading the given store's directory.
func NewVerifier(st store.RecordStore) *Verifier { return &Verifier{st: st} }

// Verify confirms that token authorizes acting as claimedRoll.  The
// claimed roll must come from the validated request body (or the path
// of a read), never from a separately supplied identity; otherwise a
// caller could prove identity for one roll number and mutate another.
// Either the student's legacy or current roll number matches.
func (v *Verifier) Verify(ctx context.Context, token, claimedRoll string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}
	rows, err := v.st.ListAll(ctx, store.TableDirectory)
	if err != nil {
		return err
	}
	for _, r := range rows {
		entry := model.DirectoryFromRow(r)
		if entry.Token == "" || entry.Token != token {
			continue
		}
		if entry.Matches(claimedRoll) {
			return nil
		}
		return ErrRollMismatch
	}
	return ErrTokenUnknown
}

// LookupLegacy finds the directory entry whose old roll number matches.
func (v *Verifier) LookupLegacy(ctx context.Context, legacyRoll string) (model.DirectoryEntry, error) {
	return v.lookup(ctx, legacyRoll, func(e model.DirectoryEntry) string { return e.LegacyRoll })
}

// LookupCurrent finds the directory entry whose current roll number matches.
func (v *Verifier) LookupCurrent(ctx context.Context, roll string) (model.DirectoryEntry, error) {
	return v.lookup(ctx, roll, func(e model.DirectoryEntry) string { return e.CurrentRoll })
}

func (v *Verifier) lookup(ctx context.Context, roll string, key func(model.DirectoryEntry) string) (model.DirectoryEntry, error) {
	want := model.NormalizeRoll(roll)
	if want == "" {
		return model.DirectoryEntry{}, ErrStudentNotFound
	}
	rows, err := v.st.ListAll(ctx, store.TableDirectory)
	if err != nil {
		return model.DirectoryEntry{}, err
	}
	for _, r := range rows {
		entry := model.DirectoryFromRow(r)
		if model.NormalizeRoll(key(entry)) == want {
			return entry, nil
		}
	}
	return model.DirectoryEntry{}, ErrStudentNotFound
}
