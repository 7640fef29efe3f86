// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Signing secrets are read once at startup and
// passed explicitly to the token issuer; nothing reads them at request time.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional
	DBHost string
	DBPort string
	DBName string

	AccessSecret   string // signs access tokens
	RefreshSecret  string // signs refresh tokens (independent secret material)
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int

	CookieSecure bool // Secure flag on auth cookies; disable only for local dev
}

// Load reads configuration from environment variables. Missing required
// values and invalid secret material are configuration errors and fatal
// here, at startup, so they can never surface at request time.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AccessSecret:   must("ACCESS_TOKEN_SECRET"),
		RefreshSecret:  must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		CookieSecure:   envBool("COOKIE_SECURE", true),
	}

	if len(cfg.AccessSecret) < 32 || len(cfg.RefreshSecret) < 32 {
		log.Fatalf("token secrets must be at least 32 bytes")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		log.Fatalf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.AccessTTLMin <= 0 || cfg.RefreshTTLDays <= 0 {
		log.Fatalf("token TTLs must be positive")
	}
	return cfg
}

// AccessTTL returns the access token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
