package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-gate-pass/internal/utils"
)

// Context keys for the authenticated staff member.
const (
	staffUserKey = "staff_user"
	staffRoleKey = "staff_role"
)

// StaffJWT returns middleware that validates a staff Bearer JWT and
// injects the username and role into the request context.  Guard and
// warden endpoints sit behind this; they carry no student identity and
// therefore never use the directory tokens.
func StaffJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			username, role, err := utils.ParseStaffToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(staffUserKey, username)
			c.Set(staffRoleKey, strings.ToUpper(role))
			return next(c)
		}
	}
}

// RequireStaffRole enforces that the authenticated staff member holds
// one of the given roles.  It assumes StaffJWT ran earlier in the chain.
func RequireStaffRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[strings.ToUpper(r)] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(staffRoleKey).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// StaffUserFrom returns the username stored by StaffJWT, or "".
func StaffUserFrom(c echo.Context) string {
	u, _ := c.Get(staffUserKey).(string)
	return u
}
