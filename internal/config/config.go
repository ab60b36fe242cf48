package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Store backend names accepted in STORE.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Store selects the storage backend: memory, sqlite, postgres or
	// redis.
	Store       string
	SQLitePath  string
	DatabaseURL string
	RedisURL    string

	// CatalogFile points at the YAML room catalog and roster. Empty
	// means the built-in default catalog.
	CatalogFile string
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		Store:       getEnv("STORE", StoreMemory),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CatalogFile: os.Getenv("CATALOG_FILE"),
	}

	switch cfg.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE=redis")
		}
	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	// The in-memory backend loses everything on restart; refuse it in
	// production unless explicitly allowed.
	if cfg.Env == "production" && cfg.Store == StoreMemory && getEnv("ALLOW_MEMORY_STORE", "false") != "true" {
		return nil, fmt.Errorf("STORE=memory is not durable; set ALLOW_MEMORY_STORE=true to override")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
