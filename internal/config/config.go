package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort string
	AppName    string
	AppEnv     string
	AppURL     string
	Debug      bool

	// Database
	DatabaseType string
	DatabaseURL  string
	DatabasePath string
	DBHost       string
	DBName       string
	DBUser       string
	DBPassword   string

	// Sessions
	SessionSecret   string
	SessionDuration time.Duration

	// Google Calendar
	GoogleCredentialsPath   string
	GoogleCalendarID        string
	CalendarTimezone        string
	CalendarReminderMinutes int

	// Credit reminders (Amazon SES)
	LowCreditThreshold int
	AWSRegion          string
	SESFromEmail       string
	SESFromName        string

	// Override the embedded assets when set, for editing templates live
	StaticFilesPath string
	TemplatesPath   string
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists. Variables that are already set
// take precedence over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	return &Config{
		ServerPort: getEnv("PORT", "8080"),
		AppName:    getEnv("APP_NAME", "PadelManager"),
		AppEnv:     getEnv("APP_ENV", "production"),
		AppURL:     getEnv("APP_URL", "http://localhost:8080"),
		Debug:      getEnvBool("APP_DEBUG", false),

		DatabaseType: getEnv("DATABASE_TYPE", "mysql"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DatabasePath: getEnv("DB_PATH", "./padelmanager.db"),
		DBHost:       getEnv("DB_HOST", ""),
		DBName:       getEnv("DB_NAME", ""),
		DBUser:       getEnv("DB_USER", ""),
		DBPassword:   getEnv("DB_PASS", ""),

		SessionSecret:   getEnv("SESSION_SECRET", "change-this-to-a-random-secret-in-production"),
		SessionDuration: time.Duration(getEnvInt("SESSION_DURATION_HOURS", 24)) * time.Hour,

		GoogleCredentialsPath:   getEnv("GOOGLE_CREDENTIALS_PATH", ""),
		GoogleCalendarID:        getEnv("GOOGLE_CALENDAR_ID", ""),
		CalendarTimezone:        getEnv("CALENDAR_TIMEZONE", "Europe/Amsterdam"),
		CalendarReminderMinutes: getEnvInt("CALENDAR_REMINDER_MINUTES", 30),

		LowCreditThreshold: getEnvInt("LOW_CREDIT_THRESHOLD", 2),
		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		SESFromName:        getEnv("SES_FROM_NAME", "PadelManager"),

		StaticFilesPath: getEnv("STATIC_PATH", ""),
		TemplatesPath:   getEnv("TEMPLATES_PATH", ""),
	}
}

// IsDevelopment reports whether error pages may include debug detail
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Debugf logs a formatted message only when APP_DEBUG is enabled
func (c *Config) Debugf(format string, v ...interface{}) {
	if c.Debug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// CalendarEnabled reports whether any Google Calendar setting is present.
// A partial configuration still counts as enabled so that startup fails on it.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleCredentialsPath != "" || c.GoogleCalendarID != ""
}

// Location resolves the calendar time zone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.CalendarTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_TIMEZONE %q: %w", c.CalendarTimezone, err)
	}
	return loc, nil
}

// Validate checks that the database settings are usable for the selected type
func (c *Config) Validate() error {
	var missing []string
	switch strings.ToLower(c.DatabaseType) {
	case "mysql":
		if c.DatabaseURL != "" {
			break
		}
		if c.DBHost == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
	case "postgres", "postgresql":
		if c.DatabaseURL == "" && (c.DBHost == "" || c.DBName == "" || c.DBUser == "") {
			missing = append(missing, "DATABASE_URL or DB_HOST/DB_NAME/DB_USER")
		}
	case "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			missing = append(missing, "DB_PATH")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE: %s", c.DatabaseType)
	}

	if len(missing) > 0 {
		return fmt.Errorf("database configuration is incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
