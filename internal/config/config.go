package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Storage
	DataDir      string
	SQLitePath   string
	DatabaseURL  string // Optional: selects Postgres for decisions
	MappingsPath string
	SchemaPath   string
	BudgetsPath  string
	ArchiveDir   string

	// Users allowed to upload statements. Empty accepts any user.
	Users []string

	RateLimit RateLimitConfig

	// BodyLimit caps request bodies on write endpoints, e.g. "2M"
	BodyLimit string

	// S3 statement archive
	S3 S3Config
}

// RateLimitConfig holds per-client request limits for write endpoints
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string // Empty = keep statements on local disk
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Enabled reports whether statements are archived to S3
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// UsePostgres reports whether decisions are stored in Postgres rather than SQLite
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	perMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}
	burst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		Env:          getEnv("ENV", "development"),
		DataDir:      dataDir,
		SQLitePath:   getEnv("SQLITE_PATH", filepath.Join(dataDir, "tally.db")),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MappingsPath: getEnv("MAPPINGS_PATH", filepath.Join(dataDir, "mappings.csv")),
		SchemaPath:   getEnv("SCHEMA_PATH", filepath.Join(dataDir, "categories.yaml")),
		BudgetsPath:  getEnv("BUDGETS_PATH", filepath.Join(dataDir, "budgets.yaml")),
		ArchiveDir:   getEnv("ARCHIVE_DIR", filepath.Join(dataDir, "statements")),
		Users:        splitList(getEnv("USERS", "")),
		BodyLimit:    getEnv("BODY_LIMIT", "2M"),
		RateLimit: RateLimitConfig{
			PerMinute: perMinute,
			Burst:     burst,
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.SchemaPath == "" {
		return fmt.Errorf("SCHEMA_PATH is required")
	}
	if c.MappingsPath == "" {
		return fmt.Errorf("MAPPINGS_PATH is required")
	}
	if !c.UsePostgres() && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when DATABASE_URL is not set")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// splitList splits a comma-separated list, dropping blank entries
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
