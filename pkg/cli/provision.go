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
)

var _ cli.Command = (*ProvisionCommand)(nil)

// ProvisionCommand creates a new user in the directory. The next sync pass
// picks the account up and creates the matching employee record.
type ProvisionCommand struct {
	cli.BaseCommand

	configPath string
	email      string
	givenName  string
	familyName string
	orgUnit    string
}

func (c *ProvisionCommand) Desc() string {
	return `Create a new directory user`
}

func (c *ProvisionCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Create a user in the Google Workspace directory with a random initial
  password that must be changed at first login.

      wssync provision -config wssync.toml \
        -email taro@example.com \
        -given-name Taro \
        -family-name Yamada \
        -org-unit /営業
`
}

func (c *ProvisionCommand) Flags() *cli.FlagSet {
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
		Name:    "email",
		Target:  &c.email,
		Example: "taro@example.com",
		Usage:   `Primary email address for the new user`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "given-name",
		Target:  &c.givenName,
		Example: "Taro",
		Usage:   `Given name for the new user`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "family-name",
		Target:  &c.familyName,
		Example: "Yamada",
		Usage:   `Family name for the new user`,
	})

	f.StringVar(&cli.StringVar{
		Name:    "org-unit",
		Target:  &c.orgUnit,
		Example: "/営業",
		Usage:   `Org unit path for the new user. Defaults to the domain root.`,
	})

	return set
}

func (c *ProvisionCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if args = f.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if c.email == "" {
		return fmt.Errorf("email is required")
	}

	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	service, err := googleworkspace.NewService(ctx, cfg.directoryConfig())
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped with context.
	}

	directory := googleworkspace.NewDirectory(service)
	writer := googleworkspace.NewWriter(service, googleworkspace.WithReader(directory))
	user, err := writer.CreateUser(ctx, &googleworkspace.CreateUserRequest{
		PrimaryEmail: c.email,
		GivenName:    c.givenName,
		FamilyName:   c.familyName,
		OrgUnitPath:  c.orgUnit,
	})
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}

	c.Outf("created %s (id %s) in %s", user.PrimaryEmail, user.ID, user.OrgUnitPath)
	return nil
}
