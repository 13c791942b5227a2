// Package middleware contains reusable HTTP middleware: student bearer
// extraction, staff JWT validation, role enforcement, Redis rate
// limiting and response caching.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// tokenKey is the context key under which the raw student bearer token
// is stored for handlers.
const tokenKey = "gate_token"

// StudentToken requires an `Authorization: Bearer <token>` header and
// stores the raw token in the request context.  It deliberately does
// not resolve the token to a student here: the roll number a request
// acts on comes from its validated body (or path), so handlers run the
// directory check themselves once they know which roll number that is.
func StudentToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			c.Set(tokenKey, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			return next(c)
		}
	}
}

// TokenFrom returns the bearer token stored by StudentToken, or "".
func TokenFrom(c echo.Context) string {
	tok, _ := c.Get(tokenKey).(string)
	return tok
}
