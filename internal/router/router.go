package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hostel-gate-pass/internal/config"
	"github.com/iliyamo/hostel-gate-pass/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hostel-gate-pass/internal/middleware" // import middleware for token checks and rate limiting
	"github.com/iliyamo/hostel-gate-pass/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterStaffAuth registers the staff login endpoint.  Login is
// unauthenticated but rate limited so credential guessing stays slow.
func RegisterStaffAuth(e *echo.Echo, s *handler.StaffHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	e.POST("/staff/login", s.Login, middleware.NewTokenBucket(rl, rdb))
}

// RegisterStudent registers all student-facing routes.  Every route in
// this group requires a bearer token, which the handlers verify against
// the directory for the specific roll number being acted on.
func RegisterStudent(e *echo.Echo, s *handler.StudentHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("")
	// Require the Authorization header up front; ownership of the roll
	// number is checked per handler against the request body or path.
	g.Use(middleware.StudentToken())
	g.Use(middleware.NewTokenBucket(rl, rdb))

	// Dashboard reads.
	g.GET("/requests/:roll_number", s.GetRequests)
	g.GET("/past_requests/:roll_number", s.GetPastRequests)
	g.GET("/student_details/:roll_number", s.StudentDetails)

	// Pass lifecycle operations.
	g.POST("/new_request_local", s.NewRequestLocal)
	g.POST("/new_request_outstation", s.NewRequestOutstation)
	g.DELETE("/delete_request/:id", s.DeleteRequest)

	// Extensions.  The "single" flow first probes for a blocking
	// outstation pass, then converts the local pass in place.
	g.POST("/update_in_date_multiple", s.UpdateInDateMultiple)
	g.POST("/check_in_date_single", s.CheckInDateSingle)
	g.POST("/update_in_date_single", s.UpdateInDateSingle)
}

// RegisterGuard registers the gate terminal routes.  Both guards and
// wardens can work the gate.
func RegisterGuard(e *echo.Echo, g *handler.GuardHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client) {
	grp := e.Group("")
	grp.Use(middleware.StaffJWT(jwtSecret))
	grp.Use(middleware.RequireStaffRole(model.RoleGuard, model.RoleWarden))
	grp.Use(middleware.NewTokenBucket(rl, rdb))

	grp.POST("/get_student", g.GetStudent)
	grp.POST("/update_status", g.UpdateStatus)
}

// RegisterWarden registers the warden console routes.  The overdue
// reports are expensive full-table scans, so responses are cached in
// Redis for a short TTL.
func RegisterWarden(e *echo.Echo, w *handler.WardenHandler, jwtSecret string, rl config.RateLimitConfig, cache config.CacheConfig, rdb *redis.Client) {
	grp := e.Group("")
	grp.Use(middleware.StaffJWT(jwtSecret))
	grp.Use(middleware.RequireStaffRole(model.RoleWarden))
	grp.Use(middleware.NewTokenBucket(rl, rdb))

	cached := middleware.NewRedisCache(cache, rdb)
	grp.POST("/get_local", w.GetLocal, cached)
	grp.POST("/get_outstation", w.GetOutstation, cached)
	// The per-student report takes the roll number in the body, so it
	// stays uncached rather than keying on a body hash.
	grp.POST("/get_rollnumberwise", w.GetRollNumberwise)
}
