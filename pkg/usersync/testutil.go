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
	"fmt"
	"strings"
	"sync"
)

// testDirectory is a fake DirectoryReader serving a fixed sequence of pages.
type testDirectory struct {
	pages       []*UserPage
	users       map[string]*RemoteUser
	listErr     error
	getUserErrs map[string]error

	mutex     sync.Mutex
	listCalls []ListUsersOptions
}

func (td *testDirectory) ListUsers(ctx context.Context, domain string, opts ListUsersOptions) (*UserPage, error) {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	td.listCalls = append(td.listCalls, opts)
	if td.listErr != nil {
		return nil, td.listErr
	}
	if opts.PageToken == "" {
		if len(td.pages) == 0 {
			return &UserPage{}, nil
		}
		return td.pages[0], nil
	}
	for i, page := range td.pages {
		if page.NextPageToken == opts.PageToken {
			if i+1 < len(td.pages) {
				return td.pages[i+1], nil
			}
			return &UserPage{}, nil
		}
	}
	return nil, fmt.Errorf("unknown page token %q", opts.PageToken)
}

func (td *testDirectory) GetUser(ctx context.Context, email string) (*RemoteUser, error) {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	if err, ok := td.getUserErrs[email]; ok {
		return nil, err
	}
	user, ok := td.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s not found", email)
	}
	return user, nil
}

func (td *testDirectory) listCallCount() int {
	td.mutex.Lock()
	defer td.mutex.Unlock()
	return len(td.listCalls)
}

// testEmployeeStore is a fake in-memory EmployeeStore with injectable
// per-email failures.
type testEmployeeStore struct {
	createErrs map[string]error
	updateErrs map[string]error
	findErrs   map[string]error

	mutex     sync.Mutex
	employees map[int64]*Employee
	nextID    int64
}

func newTestEmployeeStore(seed ...*Employee) *testEmployeeStore {
	ts := &testEmployeeStore{
		employees: make(map[int64]*Employee),
	}
	for _, e := range seed {
		ts.nextID++
		cp := *e
		cp.ID = ts.nextID
		ts.employees[cp.ID] = &cp
	}
	return ts
}

func (ts *testEmployeeStore) FindByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (*Employee, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if err, ok := ts.findErrs[email]; ok {
		return nil, err
	}
	for _, e := range ts.employees {
		if strings.EqualFold(e.Email, email) || (employeeID != "" && e.EmployeeID == employeeID) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (ts *testEmployeeStore) Create(ctx context.Context, employee *Employee) (*Employee, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if err, ok := ts.createErrs[employee.Email]; ok {
		return nil, err
	}
	ts.nextID++
	cp := *employee
	cp.ID = ts.nextID
	ts.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (ts *testEmployeeStore) Update(ctx context.Context, employee *Employee) (*Employee, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if err, ok := ts.updateErrs[employee.Email]; ok {
		return nil, err
	}
	if _, ok := ts.employees[employee.ID]; !ok {
		return nil, fmt.Errorf("employee %d not found", employee.ID)
	}
	cp := *employee
	ts.employees[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (ts *testEmployeeStore) byEmail(email string) *Employee {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	for _, e := range ts.employees {
		if strings.EqualFold(e.Email, email) {
			cp := *e
			return &cp
		}
	}
	return nil
}

func (ts *testEmployeeStore) size() int {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	return len(ts.employees)
}
