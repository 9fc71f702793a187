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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
)

// Sync kinds accepted by the /sync endpoint.
const (
	SyncTypeAll      = "all"
	SyncTypeRecent   = "recent"
	SyncTypeSpecific = "specific"
)

type syncRequest struct {
	Domain    string   `json:"domain"`
	SyncType  string   `json:"syncType"`
	BatchSize int64    `json:"batchSize"`
	Since     string   `json:"since"`
	Emails    []string `json:"emails"`
}

type syncStats struct {
	TotalProcessed  int     `json:"totalProcessed"`
	Created         int     `json:"created"`
	Updated         int     `json:"updated"`
	Skipped         int     `json:"skipped"`
	Errors          int     `json:"errors"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type syncResponse struct {
	Success bool      `json:"success"`
	Stats   syncStats `json:"stats"`

	// Results maps each requested email to its outcome. Only set for
	// "specific" syncs.
	Results map[string]string `json:"results,omitempty"`

	Message string `json:"message"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		writeJSON(ctx, w, http.StatusMethodNotAllowed, syncFailure("method not allowed"))
		return
	}

	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(ctx, w, http.StatusBadRequest, syncFailure(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	domain := req.Domain
	if domain == "" {
		domain = s.domain
	}
	if domain == "" {
		writeJSON(ctx, w, http.StatusBadRequest, syncFailure("domain is required"))
		return
	}
	syncType := req.SyncType
	if syncType == "" {
		syncType = SyncTypeRecent
	}

	syncer := s.newSyncer(req.BatchSize)

	var report *v1alpha1.Report
	var results map[string]string
	var err error
	switch syncType {
	case SyncTypeAll:
		report, err = syncer.SyncAll(ctx, domain)
	case SyncTypeRecent:
		since := time.Now().Add(-DefaultRecentWindow)
		if req.Since != "" {
			since, err = time.Parse(time.RFC3339, req.Since)
			if err != nil {
				writeJSON(ctx, w, http.StatusBadRequest, syncFailure(fmt.Sprintf("invalid since timestamp: %v", err)))
				return
			}
		}
		report, err = syncer.SyncSince(ctx, domain, since)
	case SyncTypeSpecific:
		if len(req.Emails) == 0 {
			writeJSON(ctx, w, http.StatusBadRequest, syncFailure("emails are required for specific sync"))
			return
		}
		results, report, err = syncer.SyncEmails(ctx, domain, req.Emails)
	default:
		writeJSON(ctx, w, http.StatusBadRequest, syncFailure(fmt.Sprintf("invalid sync type: %q", syncType)))
		return
	}
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.ErrorContext(ctx, "sync failed",
			"domain", domain,
			"sync_type", syncType,
			"error", err,
		)
		writeJSON(ctx, w, http.StatusOK, syncFailure(err.Error()))
		return
	}

	writeJSON(ctx, w, http.StatusOK, &syncResponse{
		Success: true,
		Stats: syncStats{
			TotalProcessed:  report.TotalProcessed,
			Created:         report.Created,
			Updated:         report.Updated,
			Skipped:         report.Skipped,
			Errors:          report.Errors,
			DurationSeconds: report.Duration().Seconds(),
		},
		Results: results,
		Message: "Sync completed successfully",
	})
}

// syncFailure is the error envelope. It mirrors the success shape so
// clients can decode either unconditionally.
func syncFailure(message string) *syncResponse {
	return &syncResponse{
		Success: false,
		Stats:   syncStats{Errors: 1},
		Message: message,
	}
}
