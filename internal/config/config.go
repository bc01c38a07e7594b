package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Backend selection
	DataBackend string

	// Reporting
	ReferenceCurrency string
	BudgetGranularity string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Rates worker
	RatesBaseURL  string
	RatesSymbols  []string
	RatesInterval time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bilancio.db"),
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),

		ReferenceCurrency: strings.ToUpper(getEnv("REFERENCE_CURRENCY", "EUR")),
		BudgetGranularity: getEnv("BUDGET_GRANULARITY", "monthly"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bilancio"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "snapshot_exports"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Snapshots"),

		RatesBaseURL:  getEnv("RATES_BASE_URL", "https://api.frankfurter.app"),
		RatesSymbols:  splitList(getEnv("RATES_SYMBOLS", "")),
		RatesInterval: getEnvDuration("RATES_INTERVAL", 6*time.Hour),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
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

	if !core.ValidCurrency(c.ReferenceCurrency) {
		errors = append(errors, fmt.Sprintf("invalid reference currency '%s': must be a 3-letter uppercase code", c.ReferenceCurrency))
	}

	if g, err := core.ParseGranularity(c.BudgetGranularity); err != nil {
		errors = append(errors, fmt.Sprintf("invalid budget granularity '%s'", c.BudgetGranularity))
	} else if g == core.Daily {
		// Daily budgets have no monthly equivalent.
		errors = append(errors, "invalid budget granularity 'daily': use monthly, quarterly, or yearly")
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

	for _, symbol := range c.RatesSymbols {
		if !core.ValidCurrency(symbol) {
			errors = append(errors, fmt.Sprintf("invalid rates symbol '%s': must be a 3-letter uppercase code", symbol))
		}
	}

	if c.RatesInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates interval %v: must be at least 1 minute", c.RatesInterval))
	} else if c.RatesInterval > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rates interval %v: must be at most 7 days", c.RatesInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParsedBudgetGranularity returns the budget granularity as a typed
// value. Call Validate first; parse failures fall back to monthly.
func (c *Config) ParsedBudgetGranularity() core.Granularity {
	g, err := core.ParseGranularity(c.BudgetGranularity)
	if err != nil {
		return core.Monthly
	}
	return g
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

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
