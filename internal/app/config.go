package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STATGRAPH_LOG_LEVEL.
const EnvPrefix = "STATGRAPH_"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SheetPath string `yaml:"sheet" env:"SHEET"` // hcl file or directory

	ServerAddr        string        `yaml:"server_addr" env:"SERVER_ADDR"`
	HealthcheckPort   int           `yaml:"healthcheck_port" env:"HEALTHCHECK_PORT"`
	TickInterval      time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval" env:"BROADCAST_INTERVAL"`

	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		ServerAddr:        ":8080",
		TickInterval:      100 * time.Millisecond,
		BroadcastInterval: 50 * time.Millisecond,
		LogFormat:         "text",
		LogLevel:          "info",
	}
}

// LoadConfig layers a YAML settings file (when path is non-empty) and then
// STATGRAPH_* environment variables over the defaults. The result is not
// validated; pass it through NewConfig once flags have been applied.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy ready for NewApp.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.SheetPath == "" {
		errs = append(errs, errors.New("SheetPath is a required configuration field and cannot be empty"))
	}
	if cfg.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval))
	}
	if cfg.BroadcastInterval <= 0 {
		errs = append(errs, fmt.Errorf("broadcast interval must be positive, got %s", cfg.BroadcastInterval))
	}
	if _, port, err := net.SplitHostPort(cfg.ServerAddr); err != nil {
		errs = append(errs, fmt.Errorf("invalid server address %q: %w", cfg.ServerAddr, err))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("server port %q is out of range", port))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort))
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, errors.New("invalid log-format: must be 'text' or 'json'"))
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
