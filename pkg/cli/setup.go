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

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/pkg/employee"
	"github.com/abcxyz/workspace-sync/pkg/googleworkspace"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// employeeStore is the store surface the commands wire up: the sync engine
// contract plus the webhook-only deletion path.
type employeeStore interface {
	usersync.EmployeeStore
	DeleteByEmail(ctx context.Context, email string) error
}

func (c *Config) directoryConfig() *googleworkspace.Config {
	return &googleworkspace.Config{
		CredentialsPath: c.CredentialsPath,
		AdminEmail:      c.AdminEmail,
	}
}

// newStore builds the employee store from config. With no database
// configured the store is in-memory; useful for dry runs and smoke tests,
// useless for a real deployment, so it is logged loudly.
func newStore(ctx context.Context, cfg *Config) (store employeeStore, target string, cleanup func() error, err error) {
	if cfg.Database.DSN != "" {
		pg, err := employee.NewPostgresStore(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to open employee database: %w", err)
		}
		if err := pg.InitSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, "", nil, fmt.Errorf("failed to initialize employee schema: %w", err)
		}
		return pg, "postgres", pg.Close, nil
	}

	logger := logging.FromContext(ctx)
	logger.WarnContext(ctx, "no database configured, employee records are not persisted")
	return employee.NewMemoryStore(), "memory", nil, nil
}
