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

package cli

import (
	"context"
	"fmt"

	"github.com/abcxyz/pkg/cli"
	"github.com/abcxyz/workspace-sync/pkg/googleworkspace"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

var _ cli.Command = (*CheckCommand)(nil)

// CheckCommand probes directory credentials and, when configured, the
// employee database, without touching any records.
type CheckCommand struct {
	cli.BaseCommand

	configPath string
}

func (c *CheckCommand) Desc() string {
	return `Check directory and database connectivity`
}

func (c *CheckCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Verify that the configured service account can authenticate against the
  directory and list users in the configured domain, and that the employee
  database (if configured) is reachable. Nothing is written.

      wssync check -config wssync.toml
`
}

func (c *CheckCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("COMMAND OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "config",
		Target:  &c.configPath,
		Aliases: []string{"c"},
		Example: "wssync.toml",
		Usage:   `Path to the configuration file`,
	})

	return set
}

func (c *CheckCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if args = f.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if cfg.Domain == "" {
		return fmt.Errorf("domain must be configured")
	}

	service, err := googleworkspace.NewService(ctx, cfg.directoryConfig())
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context.
	}
	directory := googleworkspace.NewDirectory(service)

	// A single-user listing proves both the credentials and the admin
	// delegation without pulling the whole domain.
	page, err := directory.ListUsers(ctx, cfg.Domain, usersync.ListUsersOptions{MaxResults: 1})
	if err != nil {
		return fmt.Errorf("directory check failed: %w", err)
	}
	c.Outf("directory: ok (%d user visible in %s)", len(page.Users), cfg.Domain)

	if cfg.Database.DSN == "" {
		c.Outf("database: skipped (not configured)")
		return nil
	}
	// newStore pings the database and initializes the schema.
	if _, _, cleanup, err := newStore(ctx, cfg); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	} else if cleanup != nil {
		defer func() {
			_ = cleanup()
		}()
	}
	c.Outf("database: ok")
	return nil
}
