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
	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
	"github.com/abcxyz/workspace-sync/pkg/googleworkspace"
	"github.com/abcxyz/workspace-sync/pkg/scheduler"
	"github.com/abcxyz/workspace-sync/pkg/server"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

var _ cli.Command = (*ServerCommand)(nil)

// ServerCommand serves the HTTP API and, when configured, the background
// sync scheduler.
type ServerCommand struct {
	cli.BaseCommand

	configPath string
	listen     string
}

func (c *ServerCommand) Desc() string {
	return `Serve the sync HTTP API and background scheduler`
}

func (c *ServerCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Serve the sync trigger and directory webhook over HTTP. When the
  scheduler is enabled in the config file, incremental passes also run in
  the background on the configured interval.

      wssync server -config wssync.toml
`
}

func (c *ServerCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("COMMAND OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "config",
		Target:  &c.configPath,
		Aliases: []string{"c"},
		Example: "wssync.toml",
		Usage:   `Path to the configuration file`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "listen",
		Target:  &c.listen,
		Example: ":8080",
		Usage:   `HTTP listen address. Defaults to the configured value.`,
	})

	return set
}

func (c *ServerCommand) Run(ctx context.Context, args []string) error {
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
	listen := cfg.Server.Listen
	if c.listen != "" {
		listen = c.listen
	}
	if cfg.Domain == "" {
		return fmt.Errorf("domain must be configured for server mode")
	}

	service, err := googleworkspace.NewService(ctx, cfg.directoryConfig())
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context.
	}
	directory := googleworkspace.NewDirectory(service)

	store, target, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer func() {
			_ = cleanup()
		}()
	}
	differ := usersync.NewDifferencer(store, usersync.NewStaticLocationMapper(cfg.Locations))

	newSyncer := func(batchSize int64) v1alpha1.UserSyncer {
		if batchSize <= 0 {
			batchSize = cfg.BatchSize
		}
		return usersync.NewRunner(&usersync.RunnerParams{
			Name:         "wssync",
			SourceSystem: "googleworkspace",
			TargetSystem: target,
			Directory:    directory,
			Differ:       differ,
			BatchSize:    batchSize,
			BatchDelay:   cfg.BatchDelay,
		})
	}

	srv, err := server.NewServer(&server.Params{
		Addr:      listen,
		Domain:    cfg.Domain,
		NewSyncer: newSyncer,
		Differ:    differ,
		Deleter:   store,
	})
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context.
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(&scheduler.Params{
			Syncer:   newSyncer(cfg.BatchSize),
			Domain:   cfg.Domain,
			Interval: cfg.Scheduler.Interval,
			Window:   cfg.Scheduler.Window,
		})
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		go func() {
			if err := sched.Start(ctx); err != nil && ctx.Err() == nil {
				logger := logging.FromContext(ctx)
				logger.ErrorContext(ctx, "scheduler stopped", "error", err)
			}
		}()
		defer sched.Stop()
	}

	return srv.Run(ctx) //nolint:wrapcheck // Already wrapped with context.
}
