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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/pkg/testutil"
)

func writeConfigFile(tb testing.TB, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "wssync.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    *Config
		exp     string
	}{
		{
			name: "full",
			content: `
credentials_path = "/etc/wssync/key.json"
admin_email = "admin@example.com"
domain = "example.com"
batch_size = 50
batch_delay = "500ms"

[locations]
"/一般" = "Head Office"

[server]
listen = ":9000"

[scheduler]
enabled = true
interval = "1h"
window = "2h"

[database]
dsn = "postgres://wssync@localhost/employees?sslmode=disable"
`,
			want: &Config{
				CredentialsPath: "/etc/wssync/key.json",
				AdminEmail:      "admin@example.com",
				Domain:          "example.com",
				BatchSize:       50,
				BatchDelay:      500 * time.Millisecond,
				Locations:       map[string]string{"/一般": "Head Office"},
				Server:          ServerConfig{Listen: ":9000"},
				Scheduler: SchedulerConfig{
					Enabled:  true,
					Interval: time.Hour,
					Window:   2 * time.Hour,
				},
				Database: DatabaseConfig{DSN: "postgres://wssync@localhost/employees?sslmode=disable"},
			},
		},
		{
			name:    "defaults",
			content: `domain = "example.com"`,
			want: &Config{
				Domain:     "example.com",
				BatchSize:  DefaultBatchSize,
				BatchDelay: DefaultBatchDelay,
				Server:     ServerConfig{Listen: ":8080"},
			},
		},
		{
			name:    "invalid_batch_delay",
			content: `batch_delay = "fast"`,
			exp:     "invalid batch_delay",
		},
		{
			name: "invalid_scheduler_interval",
			content: `
[scheduler]
interval = "hourly"
`,
			exp: "invalid scheduler.interval",
		},
		{
			name:    "invalid_toml",
			content: `domain = `,
			exp:     "failed to parse config file",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfigFile(t, tc.content)
			got, err := LoadConfig(path)
			if diff := testutil.DiffErrString(err, tc.exp); diff != "" {
				t.Fatal(diff)
			}
			if tc.exp != "" {
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("unexpected config (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	got, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &Config{
		BatchSize:  DefaultBatchSize,
		BatchDelay: DefaultBatchDelay,
		Server:     ServerConfig{Listen: ":8080"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected config (-want, +got):\n%s", diff)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if diff := testutil.DiffErrString(err, "failed to read config file"); diff != "" {
		t.Error(diff)
	}
}

func TestSyncCommand_FlagValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		exp  string
	}{
		{
			name: "exclusive_modes",
			args: []string{"-all", "-since", "2025-01-15T00:00:00Z", "example.com"},
			exp:  "mutually exclusive",
		},
		{
			name: "extra_arguments",
			args: []string{"example.com", "example.org"},
			exp:  "unexpected arguments",
		},
		{
			name: "missing_domain",
			args: []string{"-all"},
			exp:  "no domain given and none configured",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var cmd SyncCommand
			err := cmd.Run(context.Background(), tc.args)
			if diff := testutil.DiffErrString(err, tc.exp); diff != "" {
				t.Error(diff)
			}
		})
	}
}
