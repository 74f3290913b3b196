package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port           string
	AllowedOrigins []string

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// PostgreSQL
	DatabaseURL string

	// List cache
	RedisURL  string
	CacheTTL  time.Duration
	CacheSize int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets ledger export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Entry store
	UndoWindow time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/paytrack.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		RedisURL:  getEnv("REDIS_URL", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", 0),
		CacheSize: getEnvInt("CACHE_SIZE", 16),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "paytrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entry_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),

		UndoWindow: getEnvDuration("UNDO_WINDOW", 5*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if msg := checkScheme("database", c.DatabaseURL, "postgres", "postgresql"); msg != "" {
			errors = append(errors, msg)
		}
	}

	if c.RedisURL != "" {
		if msg := checkScheme("Redis", c.RedisURL, "redis", "rediss"); msg != "" {
			errors = append(errors, msg)
		}
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	// Exchange and queue only matter once AMQP is configured
	if c.AMQPURL != "" {
		if msg := checkScheme("AMQP", c.AMQPURL, "amqp", "amqps"); msg != "" {
			errors = append(errors, msg)
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is provided")
	}

	if c.UndoWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be at least 1 second", c.UndoWindow))
	} else if c.UndoWindow > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid undo window %v: must be at most 5 minutes", c.UndoWindow))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func checkScheme(name, raw string, schemes ...string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid %s URL '%s': %v", name, raw, err)
	}
	for _, s := range schemes {
		if parsed.Scheme == s {
			return ""
		}
	}
	return fmt.Sprintf("invalid %s URL scheme '%s': must be one of %v", name, parsed.Scheme, schemes)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
