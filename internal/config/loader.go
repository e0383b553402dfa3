package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the calendar service.
type Config struct {
	HTTPPort      int
	SQLitePath    string
	SessionSecret string
	SessionTTL    time.Duration
	MeRateLimit   int
	MeRateWindow  time.Duration
	LogLevel      string
}

// Load parses configuration values from the current process environment.
// A .env file in the working directory is read first when present; real
// environment variables win over file entries.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting every missing or malformed entry at once.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:     8080,
		SQLitePath:   "calendar.db",
		SessionTTL:   7 * 24 * time.Hour,
		MeRateLimit:  60,
		MeRateWindow: time.Minute,
		LogLevel:     "info",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("CALENDAR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "CALENDAR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := strings.TrimSpace(os.Getenv("CALENDAR_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if secret := strings.TrimSpace(os.Getenv("CALENDAR_SESSION_SECRET")); secret == "" {
		missing = append(missing, "CALENDAR_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("CALENDAR_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "CALENDAR_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("CALENDAR_ME_RATE_LIMIT")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "CALENDAR_ME_RATE_LIMIT")
		} else {
			cfg.MeRateLimit = limit
		}
	}

	if windowValue := strings.TrimSpace(os.Getenv("CALENDAR_ME_RATE_WINDOW")); windowValue != "" {
		window, err := time.ParseDuration(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "CALENDAR_ME_RATE_WINDOW")
		} else {
			cfg.MeRateWindow = window
		}
	}

	if level := strings.TrimSpace(strings.ToLower(os.Getenv("CALENDAR_LOG_LEVEL"))); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "CALENDAR_LOG_LEVEL")
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
