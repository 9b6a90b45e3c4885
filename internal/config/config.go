package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spendlog/backend/internal/logger"
	"github.com/spendlog/backend/pkg/currency"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	RunMigrations  bool

	// CORS
	AllowedOrigins []string

	// Display currency for exported reports
	Currency string

	// Occurrences
	OccurrenceDeletePolicy string // "tombstone" or "regenerate"
	SweepEnabled           bool
	SweepSchedule          string        // Cron expression (e.g., "0 2 * * *" for daily at 02:00)
	SweepTimeout           time.Duration // Timeout for a complete sweep
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is loaded first without overriding
// variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/spendlog?sslmode=disable"),
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
		RunMigrations:  getBoolEnv("RUN_MIGRATIONS", true),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		Currency: getCurrencyEnv("CURRENCY"),

		// Occurrences
		OccurrenceDeletePolicy: getEnv("OCCURRENCE_DELETE_POLICY", "tombstone"),
		SweepEnabled:           getBoolEnv("OCCURRENCE_SWEEP_ENABLED", false),
		SweepSchedule:          getEnv("OCCURRENCE_SWEEP_SCHEDULE", "0 2 * * *"), // Default: daily at 02:00
		SweepTimeout:           getDurationEnv("OCCURRENCE_SWEEP_TIMEOUT", 2*time.Minute),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getCurrencyEnv returns the upper-cased code in key, or the default
// currency when the code is not one the reports can format.
func getCurrencyEnv(key string) string {
	code := strings.ToUpper(strings.TrimSpace(os.Getenv(key)))
	if code == "" {
		return string(currency.DefaultCurrency)
	}
	if !currency.IsValid(code) {
		logger.Warn("Unsupported currency, falling back to default",
			"currency", code,
			"default", string(currency.DefaultCurrency),
		)
		return string(currency.DefaultCurrency)
	}
	return code
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
