package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port    string
	AppEnv  string
	AppName string

	DBDriver   string // json, sqlite, postgres, mysql
	DBPath     string // JSON document path (json driver)
	DBName     string // database name, or file name for sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string

	JWTKey         string
	TokenTTL       time.Duration
	PasswordScheme string // bcrypt or plain
	SaltRound      int

	DefaultValidityDays int
	ReminderDays        int

	CatalogURL string
	CatalogTTL time.Duration

	SendgridAPIKey  string
	EmailSender     string
	EmailSenderName string

	RollbarToken string

	LogLevel  string
	LogFormat string // text or json

	CORSOrigins string

	AdminEmail    string
	AdminPassword string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from the given env files (".env" when none is given)
// and the process environment.
func LoadConfig(envFiles ...string) *Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			slog.Warn("env file not loaded, using system environment variables", "file", f)
		}
	}

	AppConfig = &Config{
		Port:    getEnv("PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppName: getEnv("APP_NAME", "PharmaCoach"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "json")),
		DBPath:     getEnv("DB_PATH", "data/db.json"),
		DBName:     getEnv("DB_NAME", "pharmacoach.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "pharmacoach"),
		DBPassword: getEnv("DB_PASSWORD", ""),

		JWTKey:         getEnv("JWT_SECRET_KEY", "defaultSecret"),
		TokenTTL:       getEnvDuration("TOKEN_TTL", 24*time.Hour),
		PasswordScheme: strings.ToLower(getEnv("PASSWORD_SCHEME", "bcrypt")),
		SaltRound:      getEnvInt("SALT_ROUND", 10),

		DefaultValidityDays: getEnvInt("DEFAULT_VALIDITY_DAYS", 365),
		ReminderDays:        getEnvInt("REMINDER_DAYS", 2),

		CatalogURL: getEnv("CATALOG_URL", ""),
		CatalogTTL: getEnvDuration("CATALOG_TTL", 10*time.Minute),

		SendgridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		EmailSender:     getEnv("EMAIL_SENDER", "noreply@localhost"),
		EmailSenderName: getEnv("EMAIL_SENDER_NAME", "PharmaCoach"),

		RollbarToken: getEnv("ROLLBAR_TOKEN", ""),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "debug")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		slog.Warn("using default JWT_SECRET_KEY, update it in your environment")
	}
	if AppConfig.PasswordScheme == "plain" {
		slog.Warn("PASSWORD_SCHEME=plain stores passwords unhashed")
	}

	return AppConfig
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		slog.Error("converting environment variable to int", "key", key, "err", err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Error("converting environment variable to duration", "key", key, "err", err)
		return defaultValue
	}
	return d
}
