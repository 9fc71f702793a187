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

// Package scheduler runs periodic incremental sync passes in the
// background.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
)

const (
	// DefaultInterval is how often a pass fires when the config does not
	// say. The upstream deployment syncs once a day.
	DefaultInterval = 24 * time.Hour

	// DefaultWindow is how far back each pass looks. It deliberately
	// overlaps the interval: the pass is idempotent, and the overlap
	// absorbs clock skew between here and the directory. There is no
	// durable cursor; a missed window is caught up by the next full sync.
	DefaultWindow = 24 * time.Hour
)

// Scheduler fires an incremental sync pass at a fixed interval. Each pass
// covers records modified within the trailing window.
type Scheduler struct {
	syncer   v1alpha1.UserSyncer
	domain   string
	interval time.Duration
	window   time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Params are the inputs to NewScheduler.
type Params struct {
	Syncer v1alpha1.UserSyncer
	Domain string

	// Interval between passes. Zero means DefaultInterval.
	Interval time.Duration

	// Window is the trailing modification window each pass covers. Zero
	// means DefaultWindow.
	Window time.Duration
}

// NewScheduler creates a Scheduler.
func NewScheduler(p *Params) (*Scheduler, error) {
	if p.Syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}
	if p.Domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		syncer:   p.Syncer,
		domain:   p.Domain,
		interval: interval,
		window:   window,
	}, nil
}

// Start begins the scheduler loop and blocks until the context is
// cancelled or Stop is called. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err() //nolint:wrapcheck // Cancellation passthrough.
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// Stop shuts the scheduler down and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// runPass executes one incremental pass. Failures are logged, never
// returned; the next tick simply tries again.
func (s *Scheduler) runPass(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	logger := logging.FromContext(ctx)
	since := time.Now().Add(-s.window)
	logger.InfoContext(ctx, "starting scheduled sync",
		"syncer", s.syncer.Name(),
		"domain", s.domain,
		"since", since,
	)

	report, err := s.syncer.SyncSince(ctx, s.domain, since)
	if err != nil {
		logger.ErrorContext(ctx, "scheduled sync failed",
			"domain", s.domain,
			"error", err,
		)
		return
	}
	logger.InfoContext(ctx, "scheduled sync finished",
		"run_id", report.RunID,
		"total_processed", report.TotalProcessed,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"duration", report.Duration(),
	)
}
