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
	"time"

	"github.com/google/uuid"

	"github.com/abcxyz/pkg/logging"

	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
)

// DefaultBatchSize is the directory page size used when none is configured.
const DefaultBatchSize = 100

// Ensure we conform to the interface.
var _ v1alpha1.UserSyncer = (*Runner)(nil)

// Runner drives one synchronization pass to completion, tolerating
// per-record failures. A pass is single-threaded and synchronous: pages are
// fetched and diffed in order on the calling goroutine, with an optional
// fixed delay between pages as a rate-limit mitigation.
//
// Runner holds no mutable state across passes; concurrent passes against the
// same store are allowed and the later write wins.
type Runner struct {
	name         string
	sourceSystem string
	targetSystem string
	directory    DirectoryReader
	differ       *Differencer
	batchSize    int64
	batchDelay   time.Duration
}

// RunnerParams configure a Runner.
type RunnerParams struct {
	// Name is a descriptive identifier for logging.
	Name string

	// SourceSystem names the directory system, e.g. "googleworkspace".
	SourceSystem string

	// TargetSystem names the employee system, e.g. "postgres".
	TargetSystem string

	Directory DirectoryReader
	Differ    *Differencer

	// BatchSize is the directory page size. Zero means DefaultBatchSize.
	BatchSize int64

	// BatchDelay is the fixed sleep between pages. Zero disables the delay.
	// The delay is applied only while a continuation token is pending.
	BatchDelay time.Duration
}

// NewRunner creates a Runner.
func NewRunner(params *RunnerParams) *Runner {
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Runner{
		name:         params.Name,
		sourceSystem: params.SourceSystem,
		targetSystem: params.TargetSystem,
		directory:    params.Directory,
		differ:       params.Differ,
		batchSize:    batchSize,
		batchDelay:   params.BatchDelay,
	}
}

// Name returns the runner name.
func (r *Runner) Name() string {
	return r.name
}

// SourceSystem returns the name of the source directory system.
func (r *Runner) SourceSystem() string {
	return r.sourceSystem
}

// TargetSystem returns the name of the target employee system.
func (r *Runner) TargetSystem() string {
	return r.targetSystem
}

// SyncAll syncs every user in the given domain. A directory failure aborts
// the pass: the partial report is discarded and a SyncError naming the
// domain and the underlying cause is returned.
func (r *Runner) SyncAll(ctx context.Context, domain string) (*v1alpha1.Report, error) {
	return r.run(ctx, domain, ListUsersOptions{MaxResults: r.batchSize})
}

// SyncSince syncs users modified at or after since. The directory query is
// scoped server-side; pagination applies exactly as in SyncAll when the
// matches span multiple pages.
func (r *Runner) SyncSince(ctx context.Context, domain string, since time.Time) (*v1alpha1.Report, error) {
	return r.run(ctx, domain, ListUsersOptions{
		MaxResults: r.batchSize,
		UpdatedMin: since,
	})
}

// SyncEmails syncs the users with the given emails. A fetch failure for one
// email is recorded as that email's outcome and does not abort the batch.
func (r *Runner) SyncEmails(ctx context.Context, domain string, emails []string) (map[string]string, *v1alpha1.Report, error) {
	logger := logging.FromContext(ctx)
	report := newReport()
	logger.InfoContext(ctx, "starting sync for specific emails",
		"run_id", report.RunID,
		"domain", domain,
		"email_count", len(emails),
	)

	outcomes := make(map[string]string, len(emails))
	for _, email := range emails {
		user, err := r.directory.GetUser(ctx, email)
		if err != nil {
			logger.ErrorContext(ctx, "failed to fetch directory user",
				"run_id", report.RunID,
				"email", RedactEmail(email),
				"error", err,
			)
			report.TotalProcessed++
			report.Errors++
			outcomes[email] = fmt.Sprintf("error: %v", err)
			continue
		}
		result := r.differ.SyncUser(ctx, user)
		count(report, result)
		outcomes[email] = result.Outcome.String()
	}

	finish(ctx, report)
	return outcomes, report, nil
}

// run is the shared pagination loop for full and incremental passes.
func (r *Runner) run(ctx context.Context, domain string, opts ListUsersOptions) (*v1alpha1.Report, error) {
	logger := logging.FromContext(ctx)
	report := newReport()
	logger.InfoContext(ctx, "starting sync pass",
		"run_id", report.RunID,
		"domain", domain,
		"batch_size", r.batchSize,
		"updated_min", opts.UpdatedMin,
	)

	for {
		page, err := r.directory.ListUsers(ctx, domain, opts)
		if err != nil {
			logger.ErrorContext(ctx, "sync pass aborted",
				"run_id", report.RunID,
				"domain", domain,
				"error", err,
			)
			return nil, &SyncError{Domain: domain, Err: err}
		}

		for _, user := range page.Users {
			count(report, r.differ.SyncUser(ctx, user))
		}

		opts.PageToken = page.NextPageToken
		if opts.PageToken == "" {
			break
		}
		if r.batchDelay > 0 {
			time.Sleep(r.batchDelay)
		}
	}

	finish(ctx, report)
	return report, nil
}

func newReport() *v1alpha1.Report {
	return &v1alpha1.Report{
		RunID:     uuid.NewString(),
		StartTime: time.Now().UTC(),
	}
}

// count folds one per-record result into the report. Every record increments
// TotalProcessed regardless of outcome.
func count(report *v1alpha1.Report, result Result) {
	report.TotalProcessed++
	switch result.Outcome {
	case OutcomeCreated:
		report.Created++
	case OutcomeUpdated:
		report.Updated++
	case OutcomeSkipped:
		report.Skipped++
	case OutcomeErrored:
		report.Errors++
	}
}

func finish(ctx context.Context, report *v1alpha1.Report) {
	report.EndTime = time.Now().UTC()
	logging.FromContext(ctx).InfoContext(ctx, "sync pass completed",
		"run_id", report.RunID,
		"total_processed", report.TotalProcessed,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"duration", report.Duration(),
	)
}
