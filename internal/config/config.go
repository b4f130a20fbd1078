package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port    string
	BaseURL string

	// Organization shown on receipts
	OrgName    string
	Treasurers []string

	// Backend selection
	DataBackend string

	// REST backend (Supabase/PostgREST-style)
	RESTBaseURL string
	RESTAPIKey  string

	// SQLite backend
	SQLiteDBPath string

	// Google Sheets backend
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleEventsSheet        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP mirror propagation
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror worker target
	MirrorBackend string
}

func Load() *Config {
	cfg := &Config{
		Port:    getEnv("PORT", "8081"),
		BaseURL: getEnv("BASE_URL", "http://localhost:8081"),

		OrgName:    getEnv("ORG_NAME", "Kas Komunitas"),
		Treasurers: getEnvList("TREASURERS", []string{"Admin"}),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		RESTBaseURL: getEnv("REST_BASE_URL", ""),
		RESTAPIKey:  getEnv("REST_API_KEY", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kasku.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transaksi"),
		GoogleEventsSheet:        getEnv("GOOGLE_EVENTS_SHEET", "Kegiatan"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "kasku"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		MirrorBackend: getEnv("MIRROR_BACKEND", "sqlite"),
	}

	return cfg
}

var validBackends = []string{"memory", "rest", "sqlite", "sheets"}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid base URL '%s': must be absolute", c.BaseURL))
	}

	if err := c.validateBackend(c.DataBackend); err != nil {
		errs = append(errs, err.Error())
	}
	if c.MirrorBackend != "" {
		if err := c.validateBackend(c.MirrorBackend); err != nil {
			errs = append(errs, fmt.Sprintf("mirror: %s", err))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func (c *Config) validateBackend(backend string) error {
	ok := false
	for _, b := range validBackends {
		if backend == b {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid data backend '%s': must be one of %v", backend, validBackends)
	}

	switch backend {
	case "rest":
		if c.RESTBaseURL == "" {
			return fmt.Errorf("REST base URL is required when using rest backend")
		}
		if u, err := url.Parse(c.RESTBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid REST base URL '%s'", c.RESTBaseURL)
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path cannot be empty when using sqlite backend")
		}
		if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("cannot create SQLite database directory '%s': %v", dir, err)
				}
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required when using sheets backend")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			return fmt.Errorf("service account credentials are required for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				return fmt.Errorf("service account file does not exist: %s", c.GoogleServiceAccountFile)
			}
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
