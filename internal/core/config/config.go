package config

import (
	"time"

	"github.com/minhct/snapflow/internal/flow/retry"
	"github.com/minhct/snapflow/internal/infra/cache"
	"github.com/minhct/snapflow/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Flow     FlowConfig      `yaml:"flow"`
	Cache    cache.Config    `yaml:"cache"`
	Logging  LoggingConfig   `yaml:"logging"`
	Database postgres.Config `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// FlowConfig holds the capture-flow settings.
type FlowConfig struct {
	Retry            retry.Policy   `yaml:"retry"`
	OperationTimeout time.Duration  `yaml:"operation_timeout"`
	ScanInterval     time.Duration  `yaml:"scan_interval"` // 0 = no periodic runs
	Capture          ProviderConfig `yaml:"capture"`
	Stream           ProviderConfig `yaml:"stream"`
	RetryableMarkers []string       `yaml:"retryable_markers"` // empty = defaults
}

// ProviderConfig holds settings for an external collaborator endpoint.
type ProviderConfig struct {
	Name      string        `yaml:"name"`
	URL       string        `yaml:"url"`
	Transport string        `yaml:"transport"` // http (default) or grpc
	Timeout   time.Duration `yaml:"timeout"`
}
