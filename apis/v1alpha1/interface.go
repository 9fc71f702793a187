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

package v1alpha1

import (
	"context"
	"time"
)

// Report holds the statistics for a single sync pass. A Report is scoped to
// one invocation and is never persisted or aggregated across runs.
type Report struct {
	// RunID uniquely identifies the sync pass, for log correlation.
	RunID string `json:"run_id"`

	// TotalProcessed is the number of directory records fed through the
	// per-record pipeline, regardless of outcome.
	TotalProcessed int `json:"total_processed"`

	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns the wall-clock duration of the pass. It returns zero for
// a pass that has not finished.
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// UserSyncer drives user synchronization passes from a remote directory
// system to a local employee system.
type UserSyncer interface {
	// Name provides a descriptive name or identifier of the UserSyncer
	// implementation. It will be used for logging purpose.
	Name() string

	// SourceSystem provides the name of the source directory system.
	SourceSystem() string

	// TargetSystem provides the name of the target employee system.
	TargetSystem() string

	// SyncAll syncs every user in the given directory domain and returns the
	// statistics for the pass. A transport-level failure aborts the pass and
	// no partial report is returned.
	SyncAll(ctx context.Context, domain string) (*Report, error)

	// SyncSince syncs users modified at or after the given timestamp.
	SyncSince(ctx context.Context, domain string, since time.Time) (*Report, error)

	// SyncEmails syncs the users with the given emails. The returned map
	// records a per-email outcome; a failure to fetch one email does not
	// affect the others.
	SyncEmails(ctx context.Context, domain string, emails []string) (map[string]string, *Report, error)
}
