// Package config loads and validates the service configuration from the
// environment (populated from the .env file in main).
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds every recognized setting. Batch sizes and windows are design
// parameters with per-entity defaults; the connection strings and the device
// identity have no defaults and must be present.
type Config struct {
	SQLConnString   string `env:"SQL_CONNECTION_STRING" validate:"required"`
	MongoConnString string `env:"MONGO_CONNECTION_STRING" validate:"required"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"posdata"`
	DeviceID        string `env:"DEVICE_ID" validate:"required"`

	SyncIntervalSeconds int `env:"SYNC_INTERVAL_SECONDS" envDefault:"120" validate:"min=5"`
	DefaultWindowDays   int `env:"SYNC_DEFAULT_WINDOW_DAYS" envDefault:"30" validate:"min=1"`
	NarrowWindowDays    int `env:"SYNC_NARROW_WINDOW_DAYS" envDefault:"3" validate:"min=1"`
	MaxReplayDays       int `env:"SYNC_MAX_REPLAY_DAYS" envDefault:"365" validate:"min=1"`
	InterBatchDelayMs   int `env:"SYNC_INTER_BATCH_DELAY_MS" envDefault:"100" validate:"min=0"`

	BatchTransactions int `env:"SYNC_BATCH_TRANSACTIONS" envDefault:"100" validate:"min=1"`
	BatchProducts     int `env:"SYNC_BATCH_PRODUCTS" envDefault:"500" validate:"min=1"`
	BatchCustomers    int `env:"SYNC_BATCH_CUSTOMERS" envDefault:"500" validate:"min=1"`
	BatchExpenses     int `env:"SYNC_BATCH_EXPENSES" envDefault:"500" validate:"min=1"`
	BatchEmployees    int `env:"SYNC_BATCH_EMPLOYEES" envDefault:"200" validate:"min=1"`

	SocketTimeoutSeconds          int `env:"MONGO_SOCKET_TIMEOUT_SECONDS" envDefault:"600" validate:"min=1"`
	ServerSelectionTimeoutSeconds int `env:"MONGO_SERVER_SELECTION_TIMEOUT_SECONDS" envDefault:"30" validate:"min=1"`

	AutoSyncEnabled bool   `env:"AUTO_SYNC_ENABLED" envDefault:"false"`
	HTTPListenAddr  string `env:"HTTP_LISTEN_ADDR" envDefault:":8080"`
	JWTSecret       string `env:"JWT_SECRET"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func (c *Config) DefaultWindow() time.Duration {
	return time.Duration(c.DefaultWindowDays) * 24 * time.Hour
}

func (c *Config) NarrowWindow() time.Duration {
	return time.Duration(c.NarrowWindowDays) * 24 * time.Hour
}

func (c *Config) MaxReplay() time.Duration {
	return time.Duration(c.MaxReplayDays) * 24 * time.Hour
}

func (c *Config) InterBatchDelay() time.Duration {
	return time.Duration(c.InterBatchDelayMs) * time.Millisecond
}

func (c *Config) SocketTimeout() time.Duration {
	return time.Duration(c.SocketTimeoutSeconds) * time.Second
}

func (c *Config) ServerSelectionTimeout() time.Duration {
	return time.Duration(c.ServerSelectionTimeoutSeconds) * time.Second
}
