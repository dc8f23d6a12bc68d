package app

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"25s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	SheetsSpreadsheetID       string        `envconfig:"SHEETS_SPREADSHEET_ID"`
	SheetsServiceAccountEmail string        `envconfig:"SHEETS_SERVICE_ACCOUNT_EMAIL"`
	SheetsPrivateKey          string        `envconfig:"SHEETS_PRIVATE_KEY"`
	SheetsAPIURL              string        `envconfig:"SHEETS_API_URL" default:"https://sheets.googleapis.com"`
	SheetsTokenURL            string        `envconfig:"SHEETS_TOKEN_URL" default:"https://oauth2.googleapis.com/token"`
	SheetsTimeout             time.Duration `envconfig:"SHEETS_TIMEOUT" default:"10s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`

	// CacheTTL bounds how long edits made directly in the spreadsheet stay
	// hidden behind cached summaries. Zero disables the cache.
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`

	// PGDSN enables the relational backup mirror when set.
	PGDSN string `envconfig:"PG_DSN"`

	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaAuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"stockboard.audit"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@stockboard.local"`

	SMSAPIURL string `envconfig:"SMS_API_URL"`
	SMSAPIKey string `envconfig:"SMS_API_KEY"`
	SMSSender string `envconfig:"SMS_SENDER" default:"STOCKBOARD"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	DiagnosticsAllowWrites bool `envconfig:"DIAGNOSTICS_ALLOW_WRITES" default:"false"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SheetsSpreadsheetID != "" {
		if strings.TrimSpace(c.SheetsServiceAccountEmail) == "" || strings.TrimSpace(c.SheetsPrivateKey) == "" {
			return errors.New("spreadsheet credentials must be provided with SHEETS_SPREADSHEET_ID")
		}
	}
	if c.IsProduction() && c.SheetsSpreadsheetID == "" {
		return errors.New("SHEETS_SPREADSHEET_ID is required in production")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// SheetsConfigured reports whether a real spreadsheet backend is configured.
func (c *Config) SheetsConfigured() bool {
	return c != nil && c.SheetsSpreadsheetID != ""
}

// BackupEnabled reports whether the relational mirror is configured.
func (c *Config) BackupEnabled() bool {
	return c != nil && strings.TrimSpace(c.PGDSN) != ""
}
