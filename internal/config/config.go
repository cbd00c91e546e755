package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Settlement SettlementConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Tracing    TracingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	PoolMin     int
	PoolMax     int
	AutoMigrate bool
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// SettlementConfig controls the simulated ledger settlement.
type SettlementConfig struct {
	MinDelay     time.Duration
	MaxDelay     time.Duration
	Timeout      time.Duration
	ExplorerHost string
}

// StorageConfig controls where uploaded documents are written and how they are addressed.
type StorageConfig struct {
	Dir           string
	PublicBaseURL string
}

// RedisConfig configures the optional Redis-backed property lock.
// An empty Addr selects the in-process lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool
	Exporter    string
	ServiceName string
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "deedchain")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("SETTLEMENT_MIN_DELAY", "1s")
	v.SetDefault("SETTLEMENT_MAX_DELAY", "3s")
	v.SetDefault("SETTLEMENT_TIMEOUT", "30s")
	v.SetDefault("EXPLORER_HOST", "sepolia.etherscan.io")
	v.SetDefault("STORAGE_DIR", "./data/documents")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/documents")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOCK_TTL", "1m")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("TRACING_SERVICE_NAME", "deedchain-api")

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			PoolMin:     v.GetInt("DB_POOL_MIN"),
			PoolMax:     v.GetInt("DB_POOL_MAX"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
		Settlement: SettlementConfig{
			MinDelay:     v.GetDuration("SETTLEMENT_MIN_DELAY"),
			MaxDelay:     v.GetDuration("SETTLEMENT_MAX_DELAY"),
			Timeout:      v.GetDuration("SETTLEMENT_TIMEOUT"),
			ExplorerHost: v.GetString("EXPLORER_HOST"),
		},
		Storage: StorageConfig{
			Dir:           v.GetString("STORAGE_DIR"),
			PublicBaseURL: strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LockTTL:  v.GetDuration("LOCK_TTL"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			Exporter:    v.GetString("TRACING_EXPORTER"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	if c.Settlement.MinDelay < 0 {
		return fmt.Errorf("SETTLEMENT_MIN_DELAY must be non-negative")
	}
	if c.Settlement.MaxDelay < c.Settlement.MinDelay {
		return fmt.Errorf("SETTLEMENT_MAX_DELAY must be greater than or equal to SETTLEMENT_MIN_DELAY")
	}
	if c.Settlement.Timeout <= 0 {
		return fmt.Errorf("SETTLEMENT_TIMEOUT must be positive")
	}
	if c.Settlement.ExplorerHost == "" {
		return fmt.Errorf("EXPLORER_HOST is required")
	}

	if c.Storage.Dir == "" {
		return fmt.Errorf("STORAGE_DIR is required")
	}
	if c.Storage.PublicBaseURL == "" {
		return fmt.Errorf("STORAGE_PUBLIC_BASE_URL is required")
	}

	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive when REDIS_ADDR is set")
	}

	switch c.Tracing.Exporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be one of: stdout, none")
	}

	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
