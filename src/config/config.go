package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/username/ledgerview/backend/src/processors"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port           string
	DatabasePath   string
	MigrationsPath string
	LogLevel       string

	// Security settings
	JWTSecret         string
	CSRFAuthKey       []byte
	AccessTokenExpiry time.Duration
	AllowedOrigins    []string

	// Bank aggregator
	BankAPIBaseURL      string
	BankAPIClientID     string
	BankAPIClientSecret string
	BankAPITimeout      time.Duration
	BankAPIRPS          float64

	// Statements
	TrailingPeriods int
	Ratios          processors.AllocationRatios

	// Report archive; empty disables uploads.
	ReportArchiveBucket string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		// common when running from /backend
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./ledgerview.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		JWTSecret:         getRequiredEnv("JWT_SECRET"),
		CSRFAuthKey:       []byte(getRequiredEnv("CSRF_AUTH_KEY")),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),

		BankAPIBaseURL:      strings.TrimRight(getEnv("BANK_API_BASE_URL", "http://localhost:9090"), "/"),
		BankAPIClientID:     getEnv("BANK_API_CLIENT_ID", ""),
		BankAPIClientSecret: getEnv("BANK_API_CLIENT_SECRET", ""),
		BankAPITimeout:      getEnvAsDuration("BANK_API_TIMEOUT", 15*time.Second),
		BankAPIRPS:          getEnvAsFloat("BANK_API_RPS", 5),

		TrailingPeriods: getEnvAsInt("TRAILING_PERIODS", processors.DefaultTrailingPeriods),
		Ratios:          loadRatios(),

		ReportArchiveBucket: getEnv("REPORT_ARCHIVE_BUCKET", ""),
	}

	if Cfg.BankAPIClientID == "" || Cfg.BankAPIClientSecret == "" {
		log.Println("WARNING: BANK_API_CLIENT_ID / BANK_API_CLIENT_SECRET not set. Bank data calls will fail.")
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, BankAPI=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.BankAPIBaseURL)
}

// loadRatios starts from the default allocation ratios and applies RATIO_* overrides.
func loadRatios() processors.AllocationRatios {
	r := processors.DefaultRatios()
	overrides := map[string]*decimal.Decimal{
		"RATIO_INVENTORY":         &r.Inventory,
		"RATIO_PPE":               &r.PPE,
		"RATIO_RIGHT_OF_USE":      &r.RightOfUse,
		"RATIO_INTANGIBLES":       &r.Intangibles,
		"RATIO_OWNERS_CAPITAL":    &r.OwnersCapital,
		"RATIO_LONG_TERM_LOANS":   &r.LongTermLoans,
		"RATIO_NON_CURRENT_LEASE": &r.NonCurrentLease,
		"RATIO_SHORT_TERM_LOANS":  &r.ShortTermLoans,
		"RATIO_CURRENT_LEASE":     &r.CurrentLease,
		"RATIO_VAT":               &r.VATRate,
	}
	for key, field := range overrides {
		*field = getEnvAsDecimal(key, *field)
	}
	return r
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid positive number for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsDecimal reads a ratio such as "0.15". Negative or malformed values keep the fallback.
func getEnvAsDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil || value.IsNegative() {
		log.Printf("Invalid ratio for %s ('%s'), using default: %s", key, valueStr, fallback.String())
		return fallback
	}
	return value
}

// getEnvAsList parses a comma-separated variable, dropping empty entries.
func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
