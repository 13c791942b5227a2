package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/hostel-gate-pass/internal/auth"
	"github.com/iliyamo/hostel-gate-pass/internal/config"
	"github.com/iliyamo/hostel-gate-pass/internal/engine"
	"github.com/iliyamo/hostel-gate-pass/internal/handler"
	"github.com/iliyamo/hostel-gate-pass/internal/queue"
	"github.com/iliyamo/hostel-gate-pass/internal/router"
	queue_publisher "github.com/iliyamo/hostel-gate-pass/internal/service"
	"github.com/iliyamo/hostel-gate-pass/internal/store"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := store.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	st := store.NewMySQLStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}

	eng := engine.New(st, cfg.Location)
	// Clean up rows left half-archived by a crash mid-checkin.  The
	// archive copy is authoritative, so duplicates are dropped from the
	// active table.
	if removed, err := eng.Reconcile(ctx); err != nil {
		log.Fatalf("reconcile failed: %v", err)
	} else if len(removed) > 0 {
		log.Printf("reconcile removed %d duplicate active rows: %v", len(removed), removed)
	}

	views := engine.NewViews(st, cfg.Location)
	verifier := auth.NewVerifier(st)

	rdb := config.NewRedisClient() // nil when Redis is not configured
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	studentH := handler.NewStudentHandler(eng, views, verifier)
	guardH := handler.NewGuardHandler(eng, views, queue_publisher.PublishGateMovement)
	wardenH := handler.NewWardenHandler(views, verifier)
	staffH := handler.NewStaffHandler(st, cfg.JWTSecret, cfg.StaffTTLMin)

	// Consume gate movement events into the audit log.  The consumer
	// reconnects on its own; a missing broker only disables auditing.
	go func() {
		if err := queue.StartGateConsumer(); err != nil {
			log.Printf("gate consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	router.RegisterRoutes(e)
	router.RegisterStaffAuth(e, staffH, rlCfg, rdb)
	router.RegisterStudent(e, studentH, rlCfg, rdb)
	router.RegisterGuard(e, guardH, cfg.JWTSecret, rlCfg, rdb)
	router.RegisterWarden(e, wardenH, cfg.JWTSecret, rlCfg, cacheCfg, rdb)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
