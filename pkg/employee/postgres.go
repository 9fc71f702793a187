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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// Ensure we conform to the interface.
var _ usersync.EmployeeStore = (*PostgresStore)(nil)

// PostgresStore is an EmployeeStore over a PostgreSQL employees table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN and verifies
// connectivity.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// InitSchema creates the employees table if it does not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS employees (
		id BIGSERIAL PRIMARY KEY,
		employee_id VARCHAR(64) UNIQUE,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(254) NOT NULL UNIQUE,
		location VARCHAR(100),
		projects TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_employees_email ON employees (LOWER(email));
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// FindByEmailOrEmployeeID returns the employee matching either key, or
// usersync.ErrEmployeeNotFound.
func (s *PostgresStore) FindByEmailOrEmployeeID(ctx context.Context, email, employeeID string) (*usersync.Employee, error) {
	const query = `
	SELECT id, COALESCE(employee_id, ''), name, email, COALESCE(location, ''), projects
	FROM employees
	WHERE LOWER(email) = LOWER($1) OR ($2 <> '' AND employee_id = $2)
	ORDER BY id
	LIMIT 1`

	var e usersync.Employee
	err := s.db.QueryRowContext(ctx, query, email, employeeID).Scan(
		&e.ID, &e.EmployeeID, &e.Name, &e.Email, &e.Location, pq.Array(&e.Projects),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usersync.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}
	return &e, nil
}

// Create inserts a new employee and returns it with its assigned ID.
func (s *PostgresStore) Create(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	const query = `
	INSERT INTO employees (employee_id, name, email, location, projects)
	VALUES (NULLIF($1, ''), $2, $3, NULLIF($4, ''), $5)
	RETURNING id`

	cp := *e
	err := s.db.QueryRowContext(ctx, query,
		e.EmployeeID, e.Name, e.Email, e.Location, pq.Array(e.Projects),
	).Scan(&cp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert employee: %w", err)
	}
	return &cp, nil
}

// Update persists the tracked fields of an existing employee.
func (s *PostgresStore) Update(ctx context.Context, e *usersync.Employee) (*usersync.Employee, error) {
	const query = `
	UPDATE employees
	SET employee_id = NULLIF($2, ''),
		name = $3,
		email = $4,
		location = NULLIF($5, ''),
		updated_at = NOW()
	WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, e.ID, e.EmployeeID, e.Name, e.Email, e.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("employee %d: %w", e.ID, usersync.ErrEmployeeNotFound)
	}
	cp := *e
	return &cp, nil
}

// DeleteByEmail removes the employee with the given email. Deleting an
// unknown email is not an error.
func (s *PostgresStore) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE LOWER(email) = LOWER($1)`, email); err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}
