// Package config assembles runtime settings from defaults, an optional .env
// file and the process environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds runtime settings for the server.
type Config struct {
	Port             string
	DatabaseDSN      string
	StorageDriver    string
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	WSTicketSecret   string
	WSTicketTTL      time.Duration
	LogLevel         string
	LogDev           bool
	CORSAllowOrigins string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = "3000"
	c.StorageDriver = StorageDriverPostgres
	c.SessionTTL = 120 * time.Minute
	c.SweepInterval = 5 * time.Minute
	c.WSTicketSecret = "change-me-ws-ticket-secret"
	c.WSTicketTTL = time.Minute
	c.LogLevel = "info"
	c.CORSAllowOrigins = "*"
}

// Load reads .env (best effort) and overlays the environment on top of the
// defaults. The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, envLoaded, err
	}
	return cfg, envLoaded, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	c.DatabaseDSN = databaseDSN()
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		if v != StorageDriverPostgres && v != StorageDriverMemory {
			return fmt.Errorf("STORAGE_DRIVER: unsupported driver %q", v)
		}
		c.StorageDriver = v
	}
	if v := os.Getenv("WS_TICKET_SECRET"); v != "" {
		c.WSTicketSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	c.LogDev = os.Getenv("LOG_DEV") == "1"
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.CORSAllowOrigins = v
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &c.SessionTTL},
		{"SESSION_SWEEP_INTERVAL", &c.SweepInterval},
		{"WS_TICKET_TTL", &c.WSTicketTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		if parsed <= 0 {
			return fmt.Errorf("%s: must be positive, got %s", d.key, v)
		}
		*d.dst = parsed
	}
	return nil
}

func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}
