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

// Package employee provides EmployeeStore implementations backed by
// PostgreSQL and by process memory.
package employee

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// Ensure we conform to the interface.
var _ usersync.EmployeeStore = (*MemoryStore)(nil)

// MemoryStore is an in-process EmployeeStore. It backs tests and dry-run
// passes; nothing in it survives the process.
type MemoryStore struct {
	mutex     sync.RWMutex
	employees map[int64]*usersync.Employee
	nextID    int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		employees: make(map[int64]*usersync.Employee),
	}
}

// FindByEmailOrEmployeeID returns the employee matching either key, or
// usersync.ErrEmployeeNotFound. Email comparison is case-insensitive.
func (s *MemoryStore) FindByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (*usersync.Employee, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, e := range s.employees {
		if strings.EqualFold(e.Email, email) || (employeeID != "" && e.EmployeeID == employeeID) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, usersync.ErrEmployeeNotFound
}

// Create persists a new employee and assigns its internal ID.
func (s *MemoryStore) Create(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	cp := *e
	cp.ID = s.nextID
	s.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

// Update persists the given employee's fields.
func (s *MemoryStore) Update(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return nil, fmt.Errorf("employee %d: %w", e.ID, usersync.ErrEmployeeNotFound)
	}
	cp := *e
	s.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

// DeleteByEmail removes the employee with the given email. Deleting an
// unknown email is not an error; directory-delete events may arrive for
// users that were never synced.
func (s *MemoryStore) DeleteByEmail(ctx context.Context, email string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, e := range s.employees {
		if strings.EqualFold(e.Email, email) {
			delete(s.employees, id)
			return nil
		}
	}
	return nil
}

// Len returns the number of stored employees.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.employees)
}
