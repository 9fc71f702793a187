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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

func TestMemoryStore_FindByEmailOrEmployeeID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	created, err := store.Create(ctx, &usersync.Employee{
		EmployeeID: "gws-1",
		Name:       "Taro Yamada",
		Email:      "taro@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if created.ID == 0 {
		t.Error("created employee has no id")
	}

	cases := []struct {
		name       string
		email      string
		employeeID string
		wantFound  bool
	}{
		{name: "by_email", email: "taro@example.com", wantFound: true},
		{name: "by_email_case_insensitive", email: "TARO@example.com", wantFound: true},
		{name: "by_employee_id", email: "other@example.com", employeeID: "gws-1", wantFound: true},
		{name: "no_match", email: "other@example.com", employeeID: "gws-2", wantFound: false},
		{name: "empty_employee_id_never_matches", email: "other@example.com", employeeID: "", wantFound: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.FindByEmailOrEmployeeID(ctx, tc.email, tc.employeeID)
			if tc.wantFound {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if diff := cmp.Diff(created, got); diff != "" {
					t.Errorf("unexpected employee (-want, +got):\n%s", diff)
				}
				return
			}
			if !errors.Is(err, usersync.ErrEmployeeNotFound) {
				t.Errorf("unexpected error: got %v, want %v", err, usersync.ErrEmployeeNotFound)
			}
		})
	}
}

func TestMemoryStore_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	created, err := store.Create(ctx, &usersync.Employee{
		EmployeeID: "gws-1",
		Name:       "Taro Yamada",
		Email:      "taro@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	created.Location = "Sales Office"
	if _, err := store.Update(ctx, created); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	got, err := store.FindByEmailOrEmployeeID(ctx, "taro@example.com", "")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if got, want := got.Location, "Sales Office"; got != want {
		t.Errorf("unexpected location: got %q, want %q", got, want)
	}

	if _, err := store.Update(ctx, &usersync.Employee{ID: 999}); !errors.Is(err, usersync.ErrEmployeeNotFound) {
		t.Errorf("updating unknown employee: got %v, want %v", err, usersync.ErrEmployeeNotFound)
	}

	if err := store.DeleteByEmail(ctx, "taro@example.com"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if got, want := store.Len(), 0; got != want {
		t.Errorf("unexpected store size: got %d, want %d", got, want)
	}

	// Deleting an email that was never synced is a no-op.
	if err := store.DeleteByEmail(ctx, "ghost@example.com"); err != nil {
		t.Errorf("unexpected delete error: %v", err)
	}
}

func TestDryRunStore_DoesNotWriteThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	underlying := NewMemoryStore()
	existing, err := underlying.Create(ctx, &usersync.Employee{
		EmployeeID: "gws-1",
		Name:       "Stale Name",
		Email:      "taro@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	dry := NewDryRunStore(underlying)

	// Reads pass through.
	got, err := dry.FindByEmailOrEmployeeID(ctx, "taro@example.com", "")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if diff := cmp.Diff(existing, got); diff != "" {
		t.Errorf("unexpected employee (-want, +got):\n%s", diff)
	}

	// Writes land in the overlay only.
	got.Name = "Fresh Name"
	if _, err := dry.Update(ctx, got); err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if _, err := dry.Create(ctx, &usersync.Employee{
		EmployeeID: "gws-2",
		Name:       "New Hire",
		Email:      "new@example.com",
	}); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	underlyingEmployee, err := underlying.FindByEmailOrEmployeeID(ctx, "taro@example.com", "")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if got, want := underlyingEmployee.Name, "Stale Name"; got != want {
		t.Errorf("underlying store was written: got %q, want %q", got, want)
	}
	if got, want := underlying.Len(), 1; got != want {
		t.Errorf("underlying store was written: got %d employees, want %d", got, want)
	}

	// The overlay wins for later reads, so a repeated pass sees its own write.
	overlaid, err := dry.FindByEmailOrEmployeeID(ctx, "taro@example.com", "")
	if err != nil {
		t.Fatalf("unexpected find error: %v", err)
	}
	if got, want := overlaid.Name, "Fresh Name"; got != want {
		t.Errorf("unexpected overlaid name: got %q, want %q", got, want)
	}
}
