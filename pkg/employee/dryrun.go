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

package employee

import (
	"context"

	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// Ensure we conform to the interface.
var _ usersync.EmployeeStore = (*DryRunStore)(nil)

// DryRunStore wraps an EmployeeStore so a sync pass produces real counters
// without writing. Reads pass through to the underlying store, with writes
// captured in a process-local overlay that later reads consult first.
type DryRunStore struct {
	underlying usersync.EmployeeStore
	overlay    *MemoryStore
}

// NewDryRunStore creates a DryRunStore over the given store.
func NewDryRunStore(underlying usersync.EmployeeStore) *DryRunStore {
	return &DryRunStore{
		underlying: underlying,
		overlay:    NewMemoryStore(),
	}
}

// FindByEmailOrEmployeeID consults the overlay first, then the underlying
// store.
func (s *DryRunStore) FindByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (*usersync.Employee, error) {
	if e, err := s.overlay.FindByEmailOrEmployeeID(ctx, email, employeeID); err == nil {
		return e, nil
	}
	return s.underlying.FindByEmailOrEmployeeID(ctx, email, employeeID) //nolint:wrapcheck // Want passthrough
}

// Create records the employee in the overlay only.
func (s *DryRunStore) Create(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	return s.overlay.Create(ctx, e) //nolint:wrapcheck // Want passthrough
}

// Update records the employee in the overlay only. Updates to employees that
// exist only in the underlying store are re-homed into the overlay.
func (s *DryRunStore) Update(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	if updated, err := s.overlay.Update(ctx, e); err == nil {
		return updated, nil
	}
	return s.overlay.Create(ctx, e) //nolint:wrapcheck // Want passthrough
}
