/*
Copyright 2025 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the workflow service's configuration from a YAML
// file, overlaying environment variables, and validates the result
// before the service starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string `yaml:"port"`
	MetricsPort string `yaml:"metrics_port"`
}

// EngineConfig configures the workflow engine core: the admin principal
// (hex-encoded) and the engine's own self identity used when creating
// mailbox tasks.
type EngineConfig struct {
	AdminPrincipal string `yaml:"admin_principal"`
	SelfIdentity   string `yaml:"self_identity"`
	CreationFee    uint64 `yaml:"creation_fee"`
	ExecutionFee   uint64 `yaml:"execution_fee"`
}

// PersistenceConfig configures the Postgres snapshot store.
type PersistenceConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig configures the operator registry adapter.
type RedisConfig struct {
	Addr             string        `yaml:"addr"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// NATSConfig configures the task mailbox adapter.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level workflow-service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Engine      EngineConfig      `yaml:"engine"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Redis       RedisConfig       `yaml:"redis"`
	NATS        NATSConfig        `yaml:"nats"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads path, parses it as YAML, overlays environment variables,
// applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.MetricsPort == "" {
		cfg.Server.MetricsPort = "9090"
	}
	if cfg.Persistence.Host == "" {
		cfg.Persistence.Host = "localhost"
	}
	if cfg.Persistence.Port == 0 {
		cfg.Persistence.Port = 5432
	}
	if cfg.Persistence.Database == "" {
		cfg.Persistence.Database = "workflow_engine"
	}
	if cfg.Persistence.SSLMode == "" {
		cfg.Persistence.SSLMode = "disable"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.FailureThreshold == 0 {
		cfg.Redis.FailureThreshold = 0.5
	}
	if cfg.Redis.ResetTimeout == 0 {
		cfg.Redis.ResetTimeout = 30 * time.Second
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.NATS.RequestTimeout == 0 {
		cfg.NATS.RequestTimeout = 5 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// loadFromEnv overlays WORKFLOW_* environment variables onto cfg,
// leaving any field whose variable is unset untouched.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("WORKFLOW_SERVER_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("WORKFLOW_METRICS_PORT"); v != "" {
		cfg.Server.MetricsPort = v
	}
	if v := os.Getenv("WORKFLOW_ADMIN_PRINCIPAL"); v != "" {
		cfg.Engine.AdminPrincipal = v
	}
	if v := os.Getenv("WORKFLOW_SELF_IDENTITY"); v != "" {
		cfg.Engine.SelfIdentity = v
	}
	if v := os.Getenv("WORKFLOW_DB_HOST"); v != "" {
		cfg.Persistence.Host = v
	}
	if v := os.Getenv("WORKFLOW_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKFLOW_DB_PORT %q: %w", v, err)
		}
		cfg.Persistence.Port = port
	}
	if v := os.Getenv("WORKFLOW_DB_PASSWORD"); v != "" {
		cfg.Persistence.Password = v
	}
	if v := os.Getenv("WORKFLOW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WORKFLOW_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("WORKFLOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Engine.AdminPrincipal == "" {
		return fmt.Errorf("engine admin_principal is required")
	}
	if len(cfg.Engine.AdminPrincipal) != 40 {
		return fmt.Errorf("engine admin_principal must be a 40-character hex string")
	}
	if cfg.Persistence.Database == "" {
		return fmt.Errorf("persistence database is required")
	}
	if cfg.Redis.FailureThreshold <= 0 || cfg.Redis.FailureThreshold > 1 {
		return fmt.Errorf("redis failure_threshold must be between 0 and 1")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported logging level %q", cfg.Logging.Level)
	}
	return nil
}
