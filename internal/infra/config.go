package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Server
	Port int `env:"PORT" envDefault:"3100"`

	// Storage
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"file"`
	StateDir         string `env:"STATE_DIR"`
	StorageNamespace string `env:"STORAGE_NAMESPACE" envDefault:"default"`

	// Database (postgres backend only)
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"steamfolio"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"steamfolio"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"steamfolio"`

	// Achievements
	CatalogPath      string `env:"CATALOG_PATH"`
	FeaturedProjects int    `env:"FEATURED_PROJECTS" envDefault:"0"`

	// GitHub
	GitHubUsername  string        `env:"GITHUB_USERNAME"`
	GitHubToken     string        `env:"GITHUB_TOKEN"`
	GitHubAPIBase   string        `env:"GITHUB_API_BASE" envDefault:"https://api.github.com"`
	GitHubCacheTTL  time.Duration `env:"GITHUB_CACHE_TTL" envDefault:"1h"`
	CareerStartYear int           `env:"CAREER_START_YEAR"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"portfolio.achievements"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Tracking rate limit, per client address
	TrackRateLimit  int           `env:"TRACK_RATE_LIMIT" envDefault:"120"`
	TrackRateWindow time.Duration `env:"TRACK_RATE_WINDOW" envDefault:"1m"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" && c.PGHost == "" {
			return fmt.Errorf("STORAGE_BACKEND=postgres requires DATABASE_URL or PGHOST")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, file or postgres)", c.StorageBackend)
	}
	if c.StorageNamespace == "" {
		return fmt.Errorf("STORAGE_NAMESPACE must not be empty")
	}
	if c.FeaturedProjects < 0 {
		return fmt.Errorf("FEATURED_PROJECTS must not be negative, got %d", c.FeaturedProjects)
	}
	if c.TrackRateLimit > 0 && c.TrackRateWindow <= 0 {
		return fmt.Errorf("TRACK_RATE_WINDOW must be positive when TRACK_RATE_LIMIT is set")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
