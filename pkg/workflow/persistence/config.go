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

// Package persistence mirrors the engine's workflow definitions and
// execution snapshots to Postgres and records fee transfers there; the
// engine's in-memory Registry/Store remain its runtime state.
package persistence

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the Postgres connection parameters for the workflow
// persistence layer.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns sane defaults for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		User:            "workflow_user",
		Database:        "workflow_engine",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// LoadFromEnv overlays environment variables onto c, leaving any unset or
// unparsable value at its current default.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("WORKFLOW_DB_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("WORKFLOW_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("WORKFLOW_DB_USER"); v != "" {
		c.User = v
	}
	if v := os.Getenv("WORKFLOW_DB_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("WORKFLOW_DB_NAME"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("WORKFLOW_DB_SSL_MODE"); v != "" {
		c.SSLMode = v
	}
}

// DSN builds the libpq-style connection string sqlx/pgx expect.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
