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

package usersync

import (
	"context"
	"errors"
	"strings"

	"github.com/abcxyz/pkg/logging"
)

// FallbackName is used when a directory record carries neither a given nor a
// family name.
const FallbackName = "Unknown User"

// Differencer classifies a single RemoteUser against the EmployeeStore and
// applies the appropriate store operation exactly once. Reconciliation is
// last-write-wins: a local edit made between two passes is overwritten by the
// next matching remote record whose tracked fields differ.
type Differencer struct {
	store     EmployeeStore
	locations LocationMapper
}

// NewDifferencer creates a Differencer. A nil locations mapper falls back to
// the default static table.
func NewDifferencer(store EmployeeStore, locations LocationMapper) *Differencer {
	if locations == nil {
		locations = NewStaticLocationMapper(nil)
	}
	return &Differencer{
		store:     store,
		locations: locations,
	}
}

// SyncUser runs one directory record through the pipeline. Store-layer
// failures are captured in the Result; SyncUser never returns an error that
// should abort the surrounding pass.
func (d *Differencer) SyncUser(ctx context.Context, user *RemoteUser) Result {
	logger := logging.FromContext(ctx)

	if user.PrimaryEmail == "" {
		return Result{Outcome: OutcomeSkipped, Reason: SkipNoEmail}
	}
	if user.ID == "" {
		logger.WarnContext(ctx, "directory user has no id, skipping",
			"email", RedactEmail(user.PrimaryEmail),
		)
		return Result{Outcome: OutcomeSkipped, Reason: SkipNoID}
	}

	candidate := d.candidate(user)

	existing, err := d.store.FindByEmailOrEmployeeID(ctx, candidate.Email, candidate.EmployeeID)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		logger.ErrorContext(ctx, "employee lookup failed",
			"email", RedactEmail(candidate.Email),
			"error", err,
		)
		return Result{Outcome: OutcomeErrored, Err: err}
	}

	if existing == nil {
		created, err := d.store.Create(ctx, candidate)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create employee",
				"email", RedactEmail(candidate.Email),
				"error", err,
			)
			return Result{Outcome: OutcomeErrored, Err: err}
		}
		logger.DebugContext(ctx, "employee created from directory",
			"employee_id", created.EmployeeID,
		)
		return Result{Outcome: OutcomeCreated, Employee: created}
	}

	if !hasChanges(existing, candidate) {
		return Result{Outcome: OutcomeSkipped, Reason: SkipNoChange, Employee: existing}
	}

	existing.EmployeeID = candidate.EmployeeID
	existing.Name = candidate.Name
	existing.Email = candidate.Email
	existing.Location = candidate.Location

	updated, err := d.store.Update(ctx, existing)
	if err != nil {
		logger.ErrorContext(ctx, "failed to update employee",
			"email", RedactEmail(candidate.Email),
			"error", err,
		)
		return Result{Outcome: OutcomeErrored, Err: err}
	}
	logger.DebugContext(ctx, "employee updated from directory",
		"employee_id", updated.EmployeeID,
	)
	return Result{Outcome: OutcomeUpdated, Employee: updated}
}

// candidate derives the local employee fields for a directory record.
func (d *Differencer) candidate(user *RemoteUser) *Employee {
	name := strings.TrimSpace(user.GivenName + " " + user.FamilyName)
	if name == "" {
		name = FallbackName
	}
	return &Employee{
		EmployeeID: user.ID,
		Name:       name,
		Email:      user.PrimaryEmail,
		Location:   d.locations.Location(user.OrgUnitPath),
		Projects:   []string{},
	}
}

// hasChanges reports whether any tracked field differs between the existing
// employee and the candidate derived from the directory.
func hasChanges(existing, candidate *Employee) bool {
	return existing.Name != candidate.Name ||
		existing.Email != candidate.Email ||
		existing.Location != candidate.Location ||
		existing.EmployeeID != candidate.EmployeeID
}

// RedactEmail masks the local part of an email for logging. Only the first
// character of the local part survives.
func RedactEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	return local[:1] + "***" + email[at:]
}
