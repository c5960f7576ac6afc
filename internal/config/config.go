package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Search    SearchConfig    `yaml:"search"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Host                   string   `yaml:"host"`
	Port                   int      `yaml:"port"`
	AllowOrigins           []string `yaml:"allow_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// StorageConfig selects and configures the property store backend
type StorageConfig struct {
	// Type is one of json, mysql, sqlite or postgres
	Type          string         `yaml:"type"`
	JSONPath      string         `yaml:"json_path"`
	StrictPersist bool           `yaml:"strict_persist"`
	SQLitePath    string         `yaml:"sqlite_path"`
	MySQL         MySQLConfig    `yaml:"mysql"`
	Postgres      PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// UploadsConfig contains image upload settings
type UploadsConfig struct {
	// Backend is local or minio
	Backend      string      `yaml:"backend"`
	Dir          string      `yaml:"dir"`
	Field        string      `yaml:"field"`
	MaxFileBytes int64       `yaml:"max_file_bytes"`
	AllowedTypes []string    `yaml:"allowed_types"`
	SniffContent bool        `yaml:"sniff_content"`
	MinIO        MinIOConfig `yaml:"minio"`
}

// MinIOConfig contains S3-compatible object storage settings
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// RateLimitConfig contains rate limiting settings for property creation
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// CleanupConfig contains orphan upload sweep settings
type CleanupConfig struct {
	Enabled          bool   `yaml:"enabled"`
	DailyRunTime     string `yaml:"daily_run_time"`
	MinAgeHours      int    `yaml:"min_age_hours"`
	MaxDeletionCount int    `yaml:"max_deletion_count"`
	DryRun           bool   `yaml:"dry_run"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   5000,
			AllowOrigins:           []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			Type:       "json",
			JSONPath:   "properties.json",
			SQLitePath: "properties.db",
			Postgres: PostgresConfig{
				SSLMode: "disable",
			},
		},
		Uploads: UploadsConfig{
			Backend:      "local",
			Dir:          "uploads",
			Field:        "image",
			MaxFileBytes: 5 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Index: "properties",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
			RequestsPerDay:    5000,
		},
		Cleanup: CleanupConfig{
			Enabled:          false,
			DailyRunTime:     "03:00",
			MinAgeHours:      24,
			MaxDeletionCount: 1000,
			DryRun:           false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Variables that are already set win; a missing file is ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with environment variables when set
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	c.Server.Host = getEnvOrDefault("HOST", c.Server.Host)
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Storage.Type = getEnvOrDefault("STORAGE_TYPE", c.Storage.Type)

	// DB_* apply to whichever SQL backend is selected
	switch c.Storage.Type {
	case "mysql":
		applyDBEnv(&c.Storage.MySQL.Host, &c.Storage.MySQL.Port, &c.Storage.MySQL.User,
			&c.Storage.MySQL.Password, &c.Storage.MySQL.Database)
	case "postgres":
		applyDBEnv(&c.Storage.Postgres.Host, &c.Storage.Postgres.Port, &c.Storage.Postgres.User,
			&c.Storage.Postgres.Password, &c.Storage.Postgres.Database)
	}

	c.Search.Meilisearch.Host = getEnvOrDefault("MEILISEARCH_HOST", c.Search.Meilisearch.Host)
	c.Search.Meilisearch.APIKey = getEnvOrDefault("MEILISEARCH_KEY", c.Search.Meilisearch.APIKey)

	c.Uploads.MinIO.Endpoint = getEnvOrDefault("S3_ENDPOINT", c.Uploads.MinIO.Endpoint)
	c.Uploads.MinIO.AccessKey = getEnvOrDefault("S3_ACCESS_KEY", c.Uploads.MinIO.AccessKey)
	c.Uploads.MinIO.SecretKey = getEnvOrDefault("S3_SECRET_KEY", c.Uploads.MinIO.SecretKey)
	c.Uploads.MinIO.Bucket = getEnvOrDefault("S3_BUCKET", c.Uploads.MinIO.Bucket)
	return nil
}

func applyDBEnv(host *string, port *int, user, password, name *string) {
	*host = getEnvOrDefault("DB_HOST", *host)
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*port = p
		}
	}
	*user = getEnvOrDefault("DB_USER", *user)
	*password = getEnvOrDefault("DB_PASSWORD", *password)
	*name = getEnvOrDefault("DB_NAME", *name)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetShutdownTimeout returns the shutdown timeout as a duration
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// GetMinAge returns the minimum orphan age as a duration
func (c *CleanupConfig) GetMinAge() time.Duration {
	return time.Duration(c.MinAgeHours) * time.Hour
}
