package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const minJWTSecretLength = 16

// Backends accepted by DATA_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendSQLite, BackendMemory}

type Config struct {
	// HTTP Server
	Port            string
	RateLimitRPM    int
	TrustedProxies  []string
	ShutdownTimeout time.Duration

	// Auth
	JWTSecret string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP (optional for the server, required for the worker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8081"),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", 60),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		JWTSecret: os.Getenv("JWT_SECRET"),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the settings the API server needs and reports every
// problem at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.JWTSecret) < minJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}

	if c.RateLimitRPM < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid trusted proxy CIDR '%s'", cidr))
		}
	}

	if c.ShutdownTimeout < time.Second {
		problems = append(problems, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	problems = append(problems, c.storageProblems()...)
	problems = append(problems, c.amqpProblems()...)
	return combine(problems)
}

// ValidateWorker checks the settings the sheets export worker needs. A
// missing spreadsheet id is allowed and means a dry run.
func (c *Config) ValidateWorker() error {
	var problems []string
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the worker")
	}
	problems = append(problems, c.amqpProblems()...)
	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		problems = append(problems, "Google Sheet name is required when a spreadsheet is configured")
	}
	return combine(problems)
}

// ValidateStorage checks only the storage settings, for admin tooling.
func (c *Config) ValidateStorage() error {
	return combine(c.storageProblems())
}

func (c *Config) storageProblems() []string {
	var problems []string
	if !slices.Contains(validBackends, c.DataBackend) {
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}
	return problems
}

func (c *Config) amqpProblems() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var problems []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return problems
}

func combine(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
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

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
