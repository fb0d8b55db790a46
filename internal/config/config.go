package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Session   SessionConfig
	WhatsApp  WhatsAppConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds options of the local operator API.
type ServerConfig struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string
}

// BackendConfig points at the cooperative REST backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig controls where the operator session is kept and how forced
// logouts behave.
type SessionConfig struct {
	File              string
	ForcedLogoutDelay time.Duration
	HelperSameDayOnly bool
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken        string
	PhoneNumberID      string
	BaseURL            string
	APIVersion         string
	StatementRecipient string
	DefaultCountryCode string
	SendReceipts       bool
}

// Enabled reports whether outbound WhatsApp messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether report export to Google Sheets is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Location resolves the configured timezone.
func (c ReportingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether report snapshots are archived.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	backendTimeout, err := getDurationWithDefault("BACKEND_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	logoutDelay, err := getDurationWithDefault("FORCED_LOGOUT_DELAY", 3*time.Second)
	if err != nil {
		return nil, err
	}
	helperSameDay, err := getBoolWithDefault("HELPER_SAME_DAY_ONLY", true)
	if err != nil {
		return nil, err
	}
	sendReceipts, err := getBoolWithDefault("WHATSAPP_SEND_RECEIPTS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			LogLevel:       getenvWithDefault("LOG_LEVEL", "info"),
			AllowedOrigins: allowedOrigins(),
		},
		Backend: BackendConfig{
			BaseURL: getenvWithDefault("BACKEND_BASE_URL", "http://localhost:5000/api"),
			Timeout: backendTimeout,
		},
		Session: SessionConfig{
			File:              getenvWithDefault("SESSION_FILE", ".milkcenter-session.json"),
			ForcedLogoutDelay: logoutDelay,
			HelperSameDayOnly: helperSameDay,
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:        os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:      os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:            getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:         getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			StatementRecipient: os.Getenv("STATEMENT_RECIPIENT"),
			DefaultCountryCode: getenvWithDefault("WHATSAPP_COUNTRY_CODE", "91"),
			SendReceipts:       sendReceipts,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * 5"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "milkcenter"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must be provided")
	}

	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}

	if c.Session.File == "" {
		return errors.New("SESSION_FILE must be provided")
	}

	if c.Session.ForcedLogoutDelay < 0 {
		return errors.New("FORCED_LOGOUT_DELAY must not be negative")
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided with GOOGLE_SHEETS_CREDENTIALS_PATH")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if _, err := c.Reporting.Location(); err != nil {
		return err
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided with MONGODB_URI")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// allowedOrigins keeps the dev-server defaults only while the variable is
// unset; an explicitly empty value turns CORS off.
func allowedOrigins() []string {
	value, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS")
	if !ok {
		value = "http://localhost:3000,http://localhost:5173"
	}
	return splitList(value)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getBoolWithDefault(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}
