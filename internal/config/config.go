package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Timestamps on gate passes are written in
// the institution's wall-clock time, so the timezone is configuration
// rather than an assumption.
type Config struct {
	Env         string         // application environment (e.g. "dev", "prod")
	Port        string         // HTTP port to listen on
	DBUser      string         // database username
	DBPass      string         // database password (optional)
	DBHost      string         // database host address
	DBPort      string         // database port number
	DBName      string         // database name
	JWTSecret   string         // secret used to sign staff JWTs
	StaffTTLMin int            // staff session token time-to-live in minutes
	BcryptCost  int            // bcrypt cost for staff password hashing
	TZName      string         // institution timezone name
	Location    *time.Location // loaded from TZName
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.  Required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env file")
	}
	cfg := Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"), // empty allowed
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		StaffTTLMin: mustInt("STAFF_TOKEN_TTL_MIN"),
		BcryptCost:  mustInt("BCRYPT_COST"),
		TZName:      getenvDefault("TZ_NAME", "Asia/Kolkata"),
	}
	loc, err := time.LoadLocation(cfg.TZName)
	if err != nil {
		log.Fatalf("invalid TZ_NAME %q: %v", cfg.TZName, err)
	}
	cfg.Location = loc
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
