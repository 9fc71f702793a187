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

// Package googleworkspace adapts the Google Admin SDK Directory API to the
// reader and writer contracts of the sync engine. Authentication uses a
// service account with domain-wide delegation, impersonating a Workspace
// admin user.
package googleworkspace

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/option"
)

// Config holds the credentials needed to reach the Directory API.
type Config struct {
	// CredentialsPath is the filesystem path of a service account JSON key.
	CredentialsPath string

	// AdminEmail is the Workspace admin to impersonate. Domain-wide
	// delegation requires every Directory call to act as a real admin user.
	AdminEmail string
}

// Validate checks that the config is complete before any network call is
// attempted. Missing credentials fail the process at startup rather than
// surfacing as per-request auth errors mid-sync.
func (c *Config) Validate() error {
	var merr error
	if c.CredentialsPath == "" {
		merr = errors.Join(merr, fmt.Errorf("credentials path is required"))
	}
	if c.AdminEmail == "" {
		merr = errors.Join(merr, fmt.Errorf("admin email is required"))
	}
	return merr
}

// NewService creates an authenticated Admin SDK Directory service from the
// given config.
func NewService(ctx context.Context, c *Config) (*admin.Service, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid directory config: %w", err)
	}

	keyJSON, err := os.ReadFile(c.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSONWithParams(ctx, keyJSON, google.CredentialsParams{
		Scopes:  []string{admin.AdminDirectoryUserScope},
		Subject: c.AdminEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	service, err := admin.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create admin service: %w", err)
	}
	return service, nil
}
