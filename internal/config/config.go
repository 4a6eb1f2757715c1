package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	NAVFeed   NAVFeedConfig
	Scheduler SchedulerConfig
	FernetKey *fernet.Key
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// NAVFeedConfig holds NAV feed configuration
type NAVFeedConfig struct {
	BaseURL string
}

// SchedulerConfig holds the cron expressions for background jobs.
// RefreshSpec pulls fresh NAVs; RecomputeSpec runs the incremental valuation
// pass afterwards.
type SchedulerConfig struct {
	RefreshSpec   string
	RecomputeSpec string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/folio_tracker.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost"), ","),
		},
		NAVFeed: NAVFeedConfig{
			BaseURL: getEnv("NAV_FEED_URL", ""),
		},
		Scheduler: SchedulerConfig{
			// Weekdays after the AMCs publish end-of-day NAVs (IST evening).
			RefreshSpec:   getEnv("NAV_REFRESH_CRON", "30 21 * * 1-5"),
			RecomputeSpec: getEnv("RECOMPUTE_CRON", "0 22 * * 1-5"),
		},
	}

	// PAN encryption key. Generate with: fernet key generator or any 32-byte
	// base64url value.
	keyStr := getEnv("FERNET_KEY", "")
	if keyStr == "" {
		return nil, fmt.Errorf("FERNET_KEY is required")
	}
	key, err := fernet.DecodeKey(keyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FERNET_KEY: %w", err)
	}
	config.FernetKey = key

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
