package utils // helper functions for staff session tokens and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffToken is a signed HS256 JWT for a guard or warden session along
// with its expiry.  The token carries the username as subject and the
// staff role as a claim; handlers and middleware read both.
type StaffToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewStaffToken builds and signs a staff session token.  ttlMin is the
// session lifetime in minutes.
func NewStaffToken(secret, username, role string, ttlMin int) (StaffToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return StaffToken{}, err
	}
	return StaffToken{Token: signed, Exp: exp}, nil
}

// ErrBadToken is returned by ParseStaffToken for any token that fails
// validation.
var ErrBadToken = errors.New("invalid staff token")

// ParseStaffToken validates a staff JWT and returns its username and
// role claims.
func ParseStaffToken(secret, raw string) (username, role string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", "", ErrBadToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrBadToken
	}
	username, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if username == "" || role == "" {
		return "", "", ErrBadToken
	}
	return username, role, nil
}
