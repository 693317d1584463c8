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
	// Backend API
	APIBaseURL     string
	RequestTimeout time.Duration

	// Session
	SessionFile string
	SessionTTL  time.Duration

	// Query cache
	CacheTTL     time.Duration
	CacheMaxSize int

	// Import upload bounds (enforced before any network call)
	UploadMinBytes int64
	UploadMaxBytes int64

	// Local activity ledger
	LedgerDBPath string

	// AMQP activity events (optional; empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets import source (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Worker
	LedgerPollInterval time.Duration
	LedgerCleanupAge   time.Duration
}

func Load() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".expenser")

	cfg := &Config{
		APIBaseURL:     getEnv("EXPENSER_API_URL", "http://localhost:8080/cxf"),
		RequestTimeout: getEnvDuration("EXPENSER_REQUEST_TIMEOUT", 30*time.Second),

		SessionFile: getEnv("EXPENSER_SESSION_FILE", filepath.Join(dataDir, "session.json")),
		SessionTTL:  getEnvDuration("EXPENSER_SESSION_TTL", 24*time.Hour),

		CacheTTL:     getEnvDuration("EXPENSER_CACHE_TTL", 5*time.Minute),
		CacheMaxSize: getEnvInt("EXPENSER_CACHE_MAX_SIZE", 64),

		UploadMinBytes: getEnvInt64("EXPENSER_UPLOAD_MIN_BYTES", 1<<10),
		UploadMaxBytes: getEnvInt64("EXPENSER_UPLOAD_MAX_BYTES", 10<<20),

		LedgerDBPath: getEnv("EXPENSER_LEDGER_DB_PATH", filepath.Join(dataDir, "ledger.db")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expenser"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "activity_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		LedgerPollInterval: getEnvDuration("LEDGER_POLL_INTERVAL", 10*time.Second),
		LedgerCleanupAge:   getEnvDuration("LEDGER_CLEANUP_AGE", 90*24*time.Hour),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}

	if c.SessionFile == "" {
		errors = append(errors, "session file path cannot be empty")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheMaxSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache max size %d: must be at least 1", c.CacheMaxSize))
	}

	if c.UploadMinBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid upload minimum %d: must be at least 1 byte", c.UploadMinBytes))
	}
	if c.UploadMaxBytes <= c.UploadMinBytes {
		errors = append(errors, fmt.Sprintf("invalid upload maximum %d: must be greater than minimum %d", c.UploadMaxBytes, c.UploadMinBytes))
	}

	if c.LedgerDBPath == "" {
		errors = append(errors, "ledger database path cannot be empty")
	} else {
		dir := filepath.Dir(c.LedgerDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create ledger database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google sheet name cannot be empty when a spreadsheet ID is provided")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets import source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.LedgerPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid ledger poll interval %v: must be at least 1 second", c.LedgerPollInterval))
	}
	if c.LedgerCleanupAge < time.Hour {
		errors = append(errors, fmt.Sprintf("invalid ledger cleanup age %v: must be at least 1 hour", c.LedgerCleanupAge))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
