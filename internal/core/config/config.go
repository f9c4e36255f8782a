package config

import (
	"github.com/fundgrove/relevance/internal/cache"
	"github.com/fundgrove/relevance/internal/engine"
	"github.com/fundgrove/relevance/internal/gateway"
	redisbus "github.com/fundgrove/relevance/internal/infra/redis"
	"github.com/fundgrove/relevance/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Dataset  DatasetConfig   `yaml:"dataset"`
	Cache    cache.Config    `yaml:"cache"`
	Schedule engine.Schedule `yaml:"schedule"`
	Gateway  gateway.Config  `yaml:"gateway"`
	Redis    redisbus.Config `yaml:"redis"`
	Logging  LoggingConfig   `yaml:"logging"`
	Database postgres.Config `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatasetConfig locates the funding-program dataset used to seed the engine.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
