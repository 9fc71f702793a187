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

package googleworkspace

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	admin "google.golang.org/api/admin/directory/v1"

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// Google requires every user to carry both a given and a family name. When
// a caller provides only one, the other is filled with this placeholder.
const placeholderName = "-"

// CreateUserRequest describes a new directory account.
type CreateUserRequest struct {
	PrimaryEmail string
	GivenName    string
	FamilyName   string

	// OrgUnitPath places the user in an organizational unit. Empty means
	// the domain root "/".
	OrgUnitPath string

	// Password is the initial password. Empty generates a random one and
	// forces a change at next login.
	Password string
}

// Writer performs administrative mutations on the Google directory. Writes
// get their own rate budget. When a reader is attached, successful writes
// refresh its per-user cache; deleted users age out with the cache TTL
// since entries cannot be removed early.
type Writer struct {
	service *admin.Service
	limiter *rate.Limiter
	reader  *Directory
}

type WriterOpt func(w *Writer)

// WithReader attaches the Directory whose cache should see writes.
func WithReader(reader *Directory) WriterOpt {
	return func(w *Writer) {
		w.reader = reader
	}
}

// NewWriter creates a Writer over an authenticated admin service.
func NewWriter(service *admin.Service, opts ...WriterOpt) *Writer {
	w := &Writer{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateUser provisions a new directory account and returns it.
func (w *Writer) CreateUser(ctx context.Context, req *CreateUserRequest) (*usersync.RemoteUser, error) {
	if req.PrimaryEmail == "" {
		return nil, fmt.Errorf("primary email is required")
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	givenName, familyName := req.GivenName, req.FamilyName
	if givenName == "" {
		givenName = placeholderName
	}
	if familyName == "" {
		familyName = placeholderName
	}
	orgUnitPath := req.OrgUnitPath
	if orgUnitPath == "" {
		orgUnitPath = "/"
	}

	user := &admin.User{
		PrimaryEmail: req.PrimaryEmail,
		Name: &admin.UserName{
			GivenName:  givenName,
			FamilyName: familyName,
		},
		OrgUnitPath: orgUnitPath,
		Password:    req.Password,
	}
	if user.Password == "" {
		password, err := randomPassword()
		if err != nil {
			return nil, fmt.Errorf("could not generate password: %w", err)
		}
		user.Password = password
		user.ChangePasswordAtNextLogin = true
	}

	created, err := w.service.Users.Insert(user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	logger := logging.FromContext(ctx)
	logger.InfoContext(ctx, "created directory user",
		"email", usersync.RedactEmail(created.PrimaryEmail),
		"org_unit", created.OrgUnitPath,
	)
	fresh := convertUser(created)
	if w.reader != nil {
		w.reader.Refresh(fresh)
	}
	return fresh, nil
}

// UpdateUser applies the given partial user record to the account
// identified by userKey (an email address or directory ID).
func (w *Writer) UpdateUser(ctx context.Context, userKey string, user *admin.User) (*usersync.RemoteUser, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	updated, err := w.service.Users.Update(userKey, user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("could not update user: %w", err)
	}
	fresh := convertUser(updated)
	if w.reader != nil {
		w.reader.Refresh(fresh)
	}
	return fresh, nil
}

// SuspendUser disables sign-in for the account.
func (w *Writer) SuspendUser(ctx context.Context, userKey string) (*usersync.RemoteUser, error) {
	return w.UpdateUser(ctx, userKey, &admin.User{
		Suspended:       true,
		ForceSendFields: []string{"Suspended"},
	})
}

// UnsuspendUser re-enables sign-in for the account.
func (w *Writer) UnsuspendUser(ctx context.Context, userKey string) (*usersync.RemoteUser, error) {
	return w.UpdateUser(ctx, userKey, &admin.User{
		Suspended:       false,
		ForceSendFields: []string{"Suspended"},
	})
}

// DeleteUser permanently removes the account from the directory.
func (w *Writer) DeleteUser(ctx context.Context, userKey string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if err := w.service.Users.Delete(userKey).Context(ctx).Do(); err != nil {
		return fmt.Errorf("could not delete user: %w", err)
	}
	logger := logging.FromContext(ctx)
	logger.InfoContext(ctx, "deleted directory user", "user_key", usersync.RedactEmail(userKey))
	return nil
}

// AddAlias attaches an alias email address to the account.
func (w *Writer) AddAlias(ctx context.Context, userKey, alias string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	_, err := w.service.Users.Aliases.Insert(userKey, &admin.Alias{Alias: alias}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("could not add alias: %w", err)
	}
	return nil
}

// RemoveAlias detaches an alias email address from the account.
func (w *Writer) RemoveAlias(ctx context.Context, userKey, alias string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if err := w.service.Users.Aliases.Delete(userKey, alias).Context(ctx).Do(); err != nil {
		return fmt.Errorf("could not remove alias: %w", err)
	}
	return nil
}

// SetPassword sets the account password. When changeAtNextLogin is true the
// user must pick a new password on their next sign-in.
func (w *Writer) SetPassword(ctx context.Context, userKey, password string, changeAtNextLogin bool) error {
	_, err := w.UpdateUser(ctx, userKey, &admin.User{
		Password:                  password,
		ChangePasswordAtNextLogin: changeAtNextLogin,
		ForceSendFields:           []string{"ChangePasswordAtNextLogin"},
	})
	return err
}

// randomPassword returns a 24-character password from a CSPRNG. Accounts
// provisioned with it must change it at first login, so it only has to be
// unguessable, not memorable.
func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "="), nil
}
