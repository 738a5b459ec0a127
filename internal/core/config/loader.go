package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/minhct/snapflow/internal/flow/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Flow.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flow.retry config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Flow.Retry.MaxAttempts == 0 {
		cfg.Flow.Retry.MaxAttempts = retry.Default.MaxAttempts
	}
	if cfg.Flow.Retry.InitialDelay == 0 {
		cfg.Flow.Retry.InitialDelay = retry.Default.InitialDelay
	}
	if cfg.Flow.Retry.MaxDelay == 0 {
		cfg.Flow.Retry.MaxDelay = retry.Default.MaxDelay
		if cfg.Flow.Retry.MaxDelay < cfg.Flow.Retry.InitialDelay {
			cfg.Flow.Retry.MaxDelay = cfg.Flow.Retry.InitialDelay
		}
	}
	if cfg.Flow.Retry.Multiplier == 0 {
		cfg.Flow.Retry.Multiplier = retry.Default.Multiplier
	}
	if cfg.Flow.OperationTimeout == 0 {
		cfg.Flow.OperationTimeout = 10 * time.Second
	}
	if cfg.Flow.Capture.Timeout == 0 {
		cfg.Flow.Capture.Timeout = 30 * time.Second
	}
	if cfg.Flow.Stream.Timeout == 0 {
		cfg.Flow.Stream.Timeout = 30 * time.Second
	}
	if cfg.Flow.Capture.Name == "" {
		cfg.Flow.Capture.Name = "capture"
	}
	if cfg.Flow.Stream.Name == "" {
		cfg.Flow.Stream.Name = "stream"
	}
}
