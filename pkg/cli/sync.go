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
	"time"

	"github.com/abcxyz/pkg/cli"
	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
	"github.com/abcxyz/workspace-sync/pkg/employee"
	"github.com/abcxyz/workspace-sync/pkg/googleworkspace"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

var _ cli.Command = (*SyncCommand)(nil)

// SyncCommand runs one sync pass from the command line.
type SyncCommand struct {
	cli.BaseCommand

	configPath string
	all        bool
	emails     []string
	since      string
	batchSize  int64
	delay      time.Duration
	dryRun     bool
}

func (c *SyncCommand) Desc() string {
	return `Sync directory users into the employee store`
}

func (c *SyncCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] [DOMAIN]

  Sync users from the Google Workspace directory into the local employee
  store. Without -all, -emails, or -since, the pass covers users modified
  in the last 24 hours.

  Full sync of a domain:

      wssync sync -config wssync.toml -all example.com

  Sync two specific users:

      wssync sync -config wssync.toml -emails taro@example.com,ann@example.com

  Preview a full sync without writing:

      wssync sync -config wssync.toml -all -dry-run example.com
`
}

func (c *SyncCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("COMMAND OPTIONS")

	f.StringVar(&cli.StringVar{
		Name:    "config",
		Target:  &c.configPath,
		Aliases: []string{"c"},
		Example: "wssync.toml",
		Usage:   `Path to the configuration file`,
	})

	f.BoolVar(&cli.BoolVar{
		Name:   "all",
		Target: &c.all,
		Usage:  `Sync every user in the domain instead of recently modified ones`,
	})

	f.StringSliceVar(&cli.StringSliceVar{
		Name:    "emails",
		Target:  &c.emails,
		Example: "taro@example.com,ann@example.com",
		Usage:   `Sync only the given email addresses`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "since",
		Target:  &c.since,
		Example: "2025-01-15T00:00:00Z",
		Usage:   `Sync users modified at or after this RFC 3339 timestamp`,
	})

	f.Int64Var(&cli.Int64Var{
		Name:    "batch-size",
		Target:  &c.batchSize,
		Example: "100",
		Usage:   `Number of users to fetch per directory page. Defaults to the configured value.`,
	})

	f.DurationVar(&cli.DurationVar{
		Name:    "delay",
		Target:  &c.delay,
		Default: -1,
		Example: "1s",
		Usage:   `Pause between directory pages. Defaults to the configured value.`,
	})

	f.BoolVar(&cli.BoolVar{
		Name:   "dry-run",
		Target: &c.dryRun,
		Usage:  `Compute and report changes without writing to the employee store`,
	})

	return set
}

func (c *SyncCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	args = f.Args()
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %q", args[1:])
	}

	modes := 0
	for _, set := range []bool{c.all, len(c.emails) > 0, c.since != ""} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("-all, -emails, and -since are mutually exclusive")
	}

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	domain := cfg.Domain
	if len(args) == 1 {
		domain = args[0]
	}
	if domain == "" {
		return fmt.Errorf("no domain given and none configured")
	}
	batchSize := cfg.BatchSize
	if c.batchSize > 0 {
		batchSize = c.batchSize
	}
	delay := cfg.BatchDelay
	if c.delay >= 0 {
		delay = c.delay
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

	var engineStore usersync.EmployeeStore = store
	if c.dryRun {
		engineStore = employee.NewDryRunStore(store)
		target = "dry-run"
	}

	runner := usersync.NewRunner(&usersync.RunnerParams{
		Name:         "wssync",
		SourceSystem: "googleworkspace",
		TargetSystem: target,
		Directory:    directory,
		Differ:       usersync.NewDifferencer(engineStore, usersync.NewStaticLocationMapper(cfg.Locations)),
		BatchSize:    batchSize,
		BatchDelay:   delay,
	})

	switch {
	case c.all:
		report, err := runner.SyncAll(ctx, domain)
		if err != nil {
			return err //nolint:wrapcheck // SyncError already names the domain.
		}
		c.printReport(report)
	case len(c.emails) > 0:
		outcomes, report, err := runner.SyncEmails(ctx, domain, c.emails)
		if err != nil {
			return err //nolint:wrapcheck // SyncError already names the domain.
		}
		for _, email := range c.emails {
			c.Outf("%s: %s", email, outcomes[email])
		}
		c.printReport(report)
	default:
		since := time.Now().Add(-24 * time.Hour)
		if c.since != "" {
			since, err = time.Parse(time.RFC3339, c.since)
			if err != nil {
				return fmt.Errorf("invalid -since timestamp: %w", err)
			}
		}
		report, err := runner.SyncSince(ctx, domain, since)
		if err != nil {
			return err //nolint:wrapcheck // SyncError already names the domain.
		}
		c.printReport(report)
	}
	return nil
}

func (c *SyncCommand) printReport(report *v1alpha1.Report) {
	label := ""
	if c.dryRun {
		label = " (dry run)"
	}
	c.Outf("Sync completed%s: processed=%d created=%d updated=%d skipped=%d errors=%d duration=%s",
		label,
		report.TotalProcessed,
		report.Created,
		report.Updated,
		report.Skipped,
		report.Errors,
		report.Duration().Round(time.Millisecond),
	)
}
