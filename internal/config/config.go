// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST"     envDefault:"localhost"`
	Port     string `env:"DB_PORT"     envDefault:"5432"`
	User     string `env:"DB_USER"     envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME"     envDefault:"ewm"`
	SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`

	MaxConns        int32         `env:"DB_MAX_CONNS"          envDefault:"20"`
	MinConns        int32         `env:"DB_MIN_CONNS"          envDefault:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME"  envDefault:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS"   envDefault:"5"`
}

// DSN builds a libpq-compatible connection string.
func (c Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Redis configures the optional view-count cache. An empty URL disables it.
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"500ms"`
	ViewCacheTTL time.Duration `env:"VIEW_CACHE_TTL"       envDefault:"10s"`
}

// StatsClient configures calls from the main service to the stats service.
type StatsClient struct {
	URL              string        `env:"STATS_URL"               envDefault:"http://localhost:9090"`
	Timeout          time.Duration `env:"STATS_TIMEOUT"           envDefault:"2s"`
	HitBuffer        int           `env:"HIT_BUFFER"              envDefault:"1024"`
	BreakerThreshold int           `env:"STATS_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"STATS_BREAKER_COOLDOWN"  envDefault:"30s"`
}

// Server is the main service configuration.
type Server struct {
	Port            string        `env:"PORT"             envDefault:"8080"`
	AppName         string        `env:"APP_NAME"         envDefault:"ewm-main-service"`
	Storage         string        `env:"STORAGE"          envDefault:"postgres"`
	OpTimeout       time.Duration `env:"OP_TIMEOUT"       envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`

	Database Database
	Redis    Redis
	Stats    StatsClient
}

// Stats is the stats service configuration.
type Stats struct {
	Port            string        `env:"PORT"             envDefault:"9090"`
	Storage         string        `env:"STORAGE"          envDefault:"postgres"`
	QueryTimeout    time.Duration `env:"QUERY_TIMEOUT"    envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`

	Database Database
}

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// LoadServer parses the main service configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, validateStorage(cfg.Storage)
}

// LoadStats parses the stats service configuration.
func LoadStats() (Stats, error) {
	var cfg Stats
	if err := env.Parse(&cfg); err != nil {
		return Stats{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, validateStorage(cfg.Storage)
}

func validateStorage(driver string) error {
	switch driver {
	case StoragePostgres, StorageMemory:
		return nil
	default:
		return fmt.Errorf("unsupported STORAGE %q", driver)
	}
}
