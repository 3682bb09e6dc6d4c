package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Sheets holds the backing spreadsheet configuration
	Sheets SheetsConfig

	// Auth holds the management-page authentication configuration
	Auth AuthConfig

	// Tracker holds the departure lifecycle parameters
	Tracker TrackerConfig

	// Cache holds the per-table read cache TTLs
	Cache CacheConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// SheetsConfig holds the Google Sheets store configuration
type SheetsConfig struct {
	Mode            string // "dev" uses the in-memory store, "production" requires credentials
	SpreadsheetID   string
	CredentialsJSON string // service account key, raw JSON
}

// AuthConfig holds management authentication configuration
type AuthConfig struct {
	// PasswordHash is the bcrypt hash of the management password.
	PasswordHash       string
	JWTSecret          string
	JWTRefreshSecret   string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// TrackerConfig holds the departure lifecycle parameters
type TrackerConfig struct {
	Timezone              string // IANA zone name for localizing naive sheet timestamps
	DefaultDepartureHours int
	MaxExtensionHours     int
	DueSoonWindow         time.Duration
	AlertInterval         time.Duration
	AppBaseURL            string // public URL encoded into the QR links
	QRBaseURL             string
}

// CacheConfig holds per-table cache TTLs
type CacheConfig struct {
	PersonnelTTL  time.Duration
	DeparturesTTL time.Duration
	ExtensionsTTL time.Duration
	GroupsTTL     time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Sheets: SheetsConfig{
			Mode:            getEnv("SHEETS_MODE", "dev"), // "dev" or "production"
			SpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
			CredentialsJSON: getEnv("SHEETS_CREDENTIALS_JSON", ""),
		},
		Auth: AuthConfig{
			PasswordHash:       getEnv("MANAGEMENT_PASSWORD_HASH", ""),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTRefreshSecret:   getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Tracker: TrackerConfig{
			Timezone:              getEnv("LOCAL_TIMEZONE", "Africa/Lagos"),
			DefaultDepartureHours: getEnvAsInt("DEFAULT_DEPARTURE_HOURS", 3),
			MaxExtensionHours:     getEnvAsInt("MAX_EXTENSION_HOURS", 24),
			DueSoonWindow:         time.Duration(getEnvAsInt("DUE_SOON_MINUTES", 30)) * time.Minute,
			AlertInterval:         time.Duration(getEnvAsInt("ALERT_INTERVAL_MINUTES", 10)) * time.Minute,
			AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:8080"),
			QRBaseURL:             getEnv("QR_BASE_URL", "https://api.qrserver.com/v1/create-qr-code/?size=150x150&data="),
		},
		Cache: CacheConfig{
			PersonnelTTL:  time.Duration(getEnvAsInt("PERSONNEL_CACHE_TTL", 60)) * time.Second,
			DeparturesTTL: time.Duration(getEnvAsInt("DEPARTURES_CACHE_TTL", 30)) * time.Second,
			ExtensionsTTL: time.Duration(getEnvAsInt("EXTENSIONS_CACHE_TTL", 60)) * time.Second,
			GroupsTTL:     time.Duration(getEnvAsInt("GROUPS_CACHE_TTL", 60)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Auth.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.Auth.PasswordHash == "" {
		return fmt.Errorf("MANAGEMENT_PASSWORD_HASH is required")
	}

	// Validate store configuration only in production mode
	if c.Sheets.Mode == "production" {
		if c.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("SHEETS_SPREADSHEET_ID is required in production mode")
		}
		if c.Sheets.CredentialsJSON == "" {
			return fmt.Errorf("SHEETS_CREDENTIALS_JSON is required in production mode")
		}
	}

	if c.Tracker.MaxExtensionHours <= 0 {
		return fmt.Errorf("MAX_EXTENSION_HOURS must be positive")
	}

	if _, err := time.LoadLocation(c.Tracker.Timezone); err != nil {
		return fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", c.Tracker.Timezone, err)
	}

	return nil
}

// Location returns the configured local timezone. Validate has already
// checked the zone name, so a failed load here is a programming error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Tracker.Timezone)
	if err != nil {
		panic(fmt.Sprintf("timezone %q: %v", c.Tracker.Timezone, err))
	}
	return loc
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice gets an environment variable as a comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
