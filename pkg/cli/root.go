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

	"github.com/abcxyz/pkg/cli"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func rootCmd() cli.Command {
	return &cli.RootCommand{
		Name:    "wssync",
		Version: version,
		Commands: map[string]cli.CommandFactory{
			"sync": func() cli.Command {
				return &SyncCommand{}
			},
			"server": func() cli.Command {
				return &ServerCommand{}
			},
			"check": func() cli.Command {
				return &CheckCommand{}
			},
			"provision": func() cli.Command {
				return &ProvisionCommand{}
			},
		},
	}
}

// Run executes the CLI with the given arguments.
func Run(ctx context.Context, args []string) error {
	return rootCmd().Run(ctx, args) //nolint:wrapcheck // Main prints the error as-is.
}
