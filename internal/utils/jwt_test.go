package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffTokenRoundTrip(t *testing.T) {
	tok, err := NewStaffToken("secret", "warden1", "WARDEN", 30)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), tok.Exp, 5*time.Second)

	user, role, err := ParseStaffToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "warden1", user)
	assert.Equal(t, "WARDEN", role)
}

func TestParseStaffTokenRejectsBadInput(t *testing.T) {
	tok, err := NewStaffToken("secret", "warden1", "WARDEN", 30)
	require.NoError(t, err)

	_, _, err = ParseStaffToken("other-secret", tok.Token)
	assert.ErrorIs(t, err, ErrBadToken)

	_, _, err = ParseStaffToken("secret", "not.a.jwt")
	assert.ErrorIs(t, err, ErrBadToken)

	expired, err := NewStaffToken("secret", "warden1", "WARDEN", -1)
	require.NoError(t, err)
	_, _, err = ParseStaffToken("secret", expired.Token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("gatekeeper", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "gatekeeper"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "gatekeeper"))
}
