package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the OrgaService backend.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	SessionTTL time.Duration
	// AdminEmail and AdminPassword seed the first administrator account on an
	// empty database. Both must be set together.
	AdminEmail    string
	AdminPassword string
	// BufferMinutes is the mandatory pause kept after each booked interval
	// when computing availability.
	BufferMinutes int
	// ReserveWithinBatch makes project generation treat its own earlier
	// proposals as booked within one run.
	ReserveWithinBatch bool
	// LoginRatePerMinute bounds login attempts per client address.
	LoginRatePerMinute int
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and reporting localized error messages for bad entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:orgaservice.db",
		SessionTTL:         24 * time.Hour,
		BufferMinutes:      15,
		LoginRatePerMinute: 10,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ORGA_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ORGA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ORGA_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ORGA_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ORGA_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.AdminEmail = strings.TrimSpace(strings.ToLower(os.Getenv("ORGA_ADMIN_EMAIL")))
	cfg.AdminPassword = os.Getenv("ORGA_ADMIN_PASSWORD")
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		missing = append(missing, "ORGA_ADMIN_PASSWORD")
	}
	if cfg.AdminPassword != "" && cfg.AdminEmail == "" {
		missing = append(missing, "ORGA_ADMIN_EMAIL")
	}

	if bufferValue := strings.TrimSpace(os.Getenv("ORGA_BUFFER_MINUTES")); bufferValue != "" {
		buffer, err := strconv.Atoi(bufferValue)
		if err != nil || buffer < 0 {
			invalid = append(invalid, "ORGA_BUFFER_MINUTES")
		} else {
			cfg.BufferMinutes = buffer
		}
	}

	if reserveValue := strings.TrimSpace(os.Getenv("ORGA_RESERVE_WITHIN_BATCH")); reserveValue != "" {
		reserve, err := strconv.ParseBool(reserveValue)
		if err != nil {
			invalid = append(invalid, "ORGA_RESERVE_WITHIN_BATCH")
		} else {
			cfg.ReserveWithinBatch = reserve
		}
	}

	if rateValue := strings.TrimSpace(os.Getenv("ORGA_LOGIN_RATE_PER_MINUTE")); rateValue != "" {
		rate, err := strconv.Atoi(rateValue)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "ORGA_LOGIN_RATE_PER_MINUTE")
		} else {
			cfg.LoginRatePerMinute = rate
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variables d'environnement requises manquantes : %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs de variables d'environnement invalides : %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
