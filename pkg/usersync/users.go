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

// Package usersync implements the incremental user synchronization engine:
// pagination over a remote directory, per-record diffing against the local
// employee store, idempotent upsert, and per-run statistics.
package usersync

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrEmployeeNotFound is returned by EmployeeStore lookups when no employee
// matches the given keys.
var ErrEmployeeNotFound = errors.New("employee not found")

// RemoteUser is a read-only projection of a user record in the remote
// directory. It is produced by a DirectoryReader and never mutated locally.
type RemoteUser struct {
	// ID is the directory's stable, opaque identifier for the user.
	ID string

	PrimaryEmail string
	GivenName    string
	FamilyName   string

	// OrgUnitPath is the hierarchical grouping path of the user in the
	// directory, e.g. "/営業".
	OrgUnitPath string

	Suspended bool

	// LastUpdated is the directory's last-modified timestamp for the record,
	// when the directory provides one. Zero otherwise.
	LastUpdated time.Time
}

// Employee is a local employee record owned by the host application.
type Employee struct {
	// ID is the store's internal identifier.
	ID int64

	// EmployeeID mirrors the directory's external ID once the record is
	// linked to a RemoteUser.
	EmployeeID string

	Name     string
	Email    string
	Location string

	// Projects is currently never populated by the sync path. It exists as an
	// extension point for attribute sources beyond the directory.
	Projects []string
}

// ListUsersOptions scope a directory listing request.
type ListUsersOptions struct {
	// MaxResults caps the page size. Zero means the directory default.
	MaxResults int64

	// PageToken continues a prior listing. Empty requests the first page.
	PageToken string

	// Query is a directory-side search expression.
	Query string

	// OrgUnitPath restricts the listing to one organizational unit.
	OrgUnitPath string

	// UpdatedMin restricts the listing to records modified at or after the
	// given time. Zero means no restriction.
	UpdatedMin time.Time
}

// UserPage is one page of a directory listing.
type UserPage struct {
	Users []*RemoteUser

	// NextPageToken continues the listing. Empty means the listing is done.
	NextPageToken string
}

// DirectoryReader provides paginated read access to a remote user directory.
type DirectoryReader interface {
	// ListUsers retrieves one page of users in the given domain.
	ListUsers(ctx context.Context, domain string, opts ListUsersOptions) (*UserPage, error)

	// GetUser retrieves the single user with the given email.
	GetUser(ctx context.Context, email string) (*RemoteUser, error)
}

// EmployeeStore is a keyed persistence layer for local employee records.
type EmployeeStore interface {
	// FindByEmailOrEmployeeID returns the employee whose email equals email
	// or whose employee ID equals employeeID. It returns ErrEmployeeNotFound
	// when neither key matches.
	FindByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (*Employee, error)

	// Create persists a new employee and returns it with its store identity.
	Create(ctx context.Context, employee *Employee) (*Employee, error)

	// Update persists changed fields of an existing employee.
	Update(ctx context.Context, employee *Employee) (*Employee, error)
}

// SyncError is a pass-level failure. It aborts the pass it occurred in; the
// partial report of that pass is discarded.
type SyncError struct {
	// Domain is the directory domain the failed pass was syncing.
	Domain string

	// Err is the underlying directory or configuration failure.
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync for domain %q failed: %v", e.Domain, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
