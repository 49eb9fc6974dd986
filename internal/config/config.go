package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Storage   StorageConfig   `yaml:"storage"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Defects   DefectsConfig   `yaml:"defects"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"` // mysql, postgres or sqlite
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
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

// SQLiteConfig contains the SQLite file location
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// StorageConfig selects where uploaded photos and documents are kept
type StorageConfig struct {
	Type          string      `yaml:"type"` // local or minio
	LocalDir      string      `yaml:"local_dir"`
	MaxUploadMB   int         `yaml:"max_upload_mb"`
	UploadTimeout int         `yaml:"upload_timeout_seconds"`
	Minio         MinioConfig `yaml:"minio"`
}

// MinioConfig contains S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CatalogConfig points at the static reference documents
type CatalogConfig struct {
	ElementsPath   string `yaml:"elements_path"`
	CategoriesPath string `yaml:"categories_path"`
}

// DefectsConfig contains defect selection behaviour
type DefectsConfig struct {
	// MaterialChangePolicy is "full" or "per-material"
	MaterialChangePolicy string `yaml:"material_change_policy"`
}

// SchedulerConfig contains the daily maintenance job settings
type SchedulerConfig struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
	Reindex         bool   `yaml:"reindex"`
	Cleanup         bool   `yaml:"cleanup"`
}

// CleanupConfig contains archived element retention settings
type CleanupConfig struct {
	RetentionDays    int  `yaml:"retention_days"`
	MaxDeletionCount int  `yaml:"max_deletion_count"`
	DryRun           bool `yaml:"dry_run"`
}

// RateLimitConfig contains rate limiting settings for upload routes
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
	RequestsPerDay    int  `yaml:"requests_per_day"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // text or json
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8084",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			SQLite: SQLiteConfig{
				Path: "facility.db",
			},
		},
		Search: SearchConfig{
			Enabled: false,
			Meilisearch: MeilisearchConfig{
				Index: "elements",
			},
		},
		Storage: StorageConfig{
			Type:          "local",
			LocalDir:      "uploads",
			MaxUploadMB:   25,
			UploadTimeout: 60,
		},
		Catalog: CatalogConfig{
			ElementsPath:   "data/elements.json",
			CategoriesPath: "data/categories.json",
		},
		Defects: DefectsConfig{
			MaterialChangePolicy: "per-material",
		},
		Scheduler: SchedulerConfig{
			DailyRunEnabled: false,
			DailyRunTime:    "02:00",
			Reindex:         true,
			Cleanup:         true,
		},
		Cleanup: CleanupConfig{
			RetentionDays:    90,
			MaxDeletionCount: 1000,
			DryRun:           false,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			RequestsPerHour:   1200,
			RequestsPerDay:    10000,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database type %q", c.Database.Type)
	}
	switch c.Storage.Type {
	case "", "local", "minio":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	switch c.Defects.MaterialChangePolicy {
	case "", "full", "per-material":
	default:
		return fmt.Errorf("unknown material change policy %q", c.Defects.MaterialChangePolicy)
	}
	return nil
}

// GetUploadTimeout returns the upload timeout as a duration
func (c *StorageConfig) GetUploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeout) * time.Second
}

// MaxUploadBytes returns the multipart memory limit in bytes
func (c *StorageConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
