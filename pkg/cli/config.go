// Copyright 2025 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the wssync command line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultBatchSize is the directory page size used when neither the
	// config file nor a flag says otherwise.
	DefaultBatchSize = 100

	// DefaultBatchDelay is the pause between directory pages.
	DefaultBatchDelay = time.Second
)

// Config is the resolved wssync configuration.
type Config struct {
	CredentialsPath string
	AdminEmail      string
	Domain          string
	BatchSize       int64
	BatchDelay      time.Duration

	// Locations overrides the built-in org unit to location table when
	// non-empty.
	Locations map[string]string

	Server    ServerConfig
	Scheduler SchedulerConfig
	Database  DatabaseConfig
}

type ServerConfig struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
	Window   time.Duration
}

type DatabaseConfig struct {
	// DSN is a lib/pq connection string. Empty selects the in-memory
	// employee store.
	DSN string
}

// rawConfig is the TOML shape of the config file. Durations are strings in
// time.ParseDuration syntax.
type rawConfig struct {
	CredentialsPath string            `toml:"credentials_path"`
	AdminEmail      string            `toml:"admin_email"`
	Domain          string            `toml:"domain"`
	BatchSize       int64             `toml:"batch_size"`
	BatchDelay      string            `toml:"batch_delay"`
	Locations       map[string]string `toml:"locations"`

	Server struct {
		Listen string `toml:"listen"`
	} `toml:"server"`

	Scheduler struct {
		Enabled  bool   `toml:"enabled"`
		Interval string `toml:"interval"`
		Window   string `toml:"window"`
	} `toml:"scheduler"`

	Database struct {
		DSN string `toml:"dsn"`
	} `toml:"database"`
}

// LoadConfig reads and resolves the TOML config file at path. An empty path
// returns a config holding only defaults; flags are expected to fill in the
// rest.
func LoadConfig(path string) (*Config, error) {
	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	c := &Config{
		CredentialsPath: raw.CredentialsPath,
		AdminEmail:      raw.AdminEmail,
		Domain:          raw.Domain,
		BatchSize:       raw.BatchSize,
		BatchDelay:      DefaultBatchDelay,
		Locations:       raw.Locations,
		Server:          ServerConfig{Listen: raw.Server.Listen},
		Scheduler:       SchedulerConfig{Enabled: raw.Scheduler.Enabled},
		Database:        DatabaseConfig{DSN: raw.Database.DSN},
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}

	var err error
	if c.BatchDelay, err = parseDuration("batch_delay", raw.BatchDelay, DefaultBatchDelay); err != nil {
		return nil, err
	}
	if c.Scheduler.Interval, err = parseDuration("scheduler.interval", raw.Scheduler.Interval, 0); err != nil {
		return nil, err
	}
	if c.Scheduler.Window, err = parseDuration("scheduler.window", raw.Scheduler.Window, 0); err != nil {
		return nil, err
	}
	return c, nil
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
