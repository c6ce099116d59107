package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// Messaging transport
	BotAPIBaseURL string
	BotToken      string
	PollTimeout   time.Duration

	// Ledger backend
	DataBackend  string
	DataDir      string
	SQLiteDBPath string

	// Currency rate service
	CurrencyAPIURL  string
	CurrencyAPIKey  string
	CurrencyTimeout time.Duration
	RateCacheTTL    time.Duration

	// Conversation sessions
	SessionTimeout time.Duration
	SweepInterval  time.Duration

	// Expense categories offered by the category keyboard
	Categories []string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (worker)
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

func Load() *Config {
	cfg := &Config{
		BotAPIBaseURL: getEnv("BOT_API_URL", "https://api.telegram.org"),
		BotToken:      getEnv("BOT_TOKEN", ""),
		PollTimeout:   getEnvDuration("POLL_TIMEOUT", 30*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "json"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledgerbot.db"),

		CurrencyAPIURL:  getEnv("CURRENCY_API_URL", "https://v6.exchangerate-api.com/v6"),
		CurrencyAPIKey:  getEnv("CURRENCY_API_KEY", ""),
		CurrencyTimeout: getEnvDuration("CURRENCY_TIMEOUT", 10*time.Second),
		RateCacheTTL:    getEnvDuration("RATE_CACHE_TTL", 15*time.Minute),

		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 2*time.Minute),
		SweepInterval:  getEnvDuration("SESSION_SWEEP_INTERVAL", 30*time.Second),

		Categories: getEnvList("CATEGORIES", []string{
			"Food", "Groceries", "Utilities", "Transport", "Shopping", "Miscellaneous",
		}),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Expenses"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"json", "sqlite"}
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

	switch c.DataBackend {
	case "json":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using json backend")
		} else if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
			if err := os.MkdirAll(c.DataDir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create data directory '%s': %v", c.DataDir, err))
			}
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.BotAPIBaseURL == "" {
		errors = append(errors, "bot API base URL cannot be empty")
	} else if parsed, err := url.Parse(c.BotAPIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid bot API URL '%s': %v", c.BotAPIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid bot API URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.CurrencyAPIURL == "" {
		errors = append(errors, "currency API URL cannot be empty")
	}

	if c.CurrencyTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid currency timeout %v: must be at least 1 second", c.CurrencyTimeout))
	}

	if c.SessionTimeout < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid session timeout %v: must be at least 10 seconds", c.SessionTimeout))
	}
	if c.SweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at least 1 second", c.SweepInterval))
	}

	if len(c.Categories) == 0 {
		errors = append(errors, "at least one expense category is required")
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
