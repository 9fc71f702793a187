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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
	"github.com/abcxyz/workspace-sync/pkg/employee"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

type fakeSyncer struct {
	report  *v1alpha1.Report
	results map[string]string
	err     error

	gotDomain string
	gotSince  time.Time
	gotEmails []string
}

func (f *fakeSyncer) Name() string         { return "fake" }
func (f *fakeSyncer) SourceSystem() string { return "FakeDirectory" }
func (f *fakeSyncer) TargetSystem() string { return "FakeStore" }

func (f *fakeSyncer) SyncAll(ctx context.Context, domain string) (*v1alpha1.Report, error) {
	f.gotDomain = domain
	return f.report, f.err
}

func (f *fakeSyncer) SyncSince(ctx context.Context, domain string, since time.Time) (*v1alpha1.Report, error) {
	f.gotDomain = domain
	f.gotSince = since
	return f.report, f.err
}

func (f *fakeSyncer) SyncEmails(ctx context.Context, domain string, emails []string) (map[string]string, *v1alpha1.Report, error) {
	f.gotDomain = domain
	f.gotEmails = emails
	return f.results, f.report, f.err
}

func testReport() *v1alpha1.Report {
	start := time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)
	return &v1alpha1.Report{
		RunID:          "run-1",
		TotalProcessed: 4,
		Created:        1,
		Updated:        2,
		Skipped:        1,
		StartTime:      start,
		EndTime:        start.Add(2 * time.Second),
	}
}

func testServer(tb testing.TB, syncer v1alpha1.UserSyncer) (*Server, *employee.MemoryStore) {
	tb.Helper()

	store := employee.NewMemoryStore()
	s, err := NewServer(&Params{
		Addr:   ":0",
		Domain: "example.com",
		NewSyncer: func(batchSize int64) v1alpha1.UserSyncer {
			return syncer
		},
		Differ:  usersync.NewDifferencer(store, nil),
		Deleter: store,
	})
	if err != nil {
		tb.Fatalf("unexpected error: %v", err)
	}
	return s, store
}

func postJSON(tb testing.TB, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	tb.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeSyncResponse(tb testing.TB, w *httptest.ResponseRecorder) *syncResponse {
	tb.Helper()

	var resp syncResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		tb.Fatalf("failed to decode response: %v", err)
	}
	return &resp
}

func TestServer_HandleSync(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		body       string
		syncer     *fakeSyncer
		wantStatus int
		wantResp   *syncResponse
	}{
		{
			name:       "sync_all",
			body:       `{"domain": "corp.example.com", "syncType": "all"}`,
			syncer:     &fakeSyncer{report: testReport()},
			wantStatus: http.StatusOK,
			wantResp: &syncResponse{
				Success: true,
				Stats: syncStats{
					TotalProcessed:  4,
					Created:         1,
					Updated:         2,
					Skipped:         1,
					DurationSeconds: 2,
				},
				Message: "Sync completed successfully",
			},
		},
		{
			name:       "specific_returns_per_email_results",
			body:       `{"syncType": "specific", "emails": ["a@example.com"]}`,
			syncer:     &fakeSyncer{report: testReport(), results: map[string]string{"a@example.com": "created"}},
			wantStatus: http.StatusOK,
			wantResp: &syncResponse{
				Success: true,
				Stats: syncStats{
					TotalProcessed:  4,
					Created:         1,
					Updated:         2,
					Skipped:         1,
					DurationSeconds: 2,
				},
				Results: map[string]string{"a@example.com": "created"},
				Message: "Sync completed successfully",
			},
		},
		{
			name:       "specific_without_emails",
			body:       `{"syncType": "specific"}`,
			syncer:     &fakeSyncer{},
			wantStatus: http.StatusBadRequest,
			wantResp:   syncFailure("emails are required for specific sync"),
		},
		{
			name:       "invalid_sync_type",
			body:       `{"syncType": "everything"}`,
			syncer:     &fakeSyncer{},
			wantStatus: http.StatusBadRequest,
			wantResp:   syncFailure(`invalid sync type: "everything"`),
		},
		{
			name:       "invalid_since",
			body:       `{"syncType": "recent", "since": "yesterday"}`,
			syncer:     &fakeSyncer{},
			wantStatus: http.StatusBadRequest,
			wantResp:   syncFailure(`invalid since timestamp: parsing time "yesterday" as "2006-01-02T15:04:05Z07:00": cannot parse "yesterday" as "2006"`),
		},
		{
			name:       "transport_failure_reports_error",
			body:       `{"syncType": "all"}`,
			syncer:     &fakeSyncer{err: fmt.Errorf("directory unreachable")},
			wantStatus: http.StatusOK,
			wantResp:   syncFailure("directory unreachable"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, _ := testServer(t, tc.syncer)
			w := postJSON(t, s.Routes(), "/sync", tc.body)
			if got, want := w.Code, tc.wantStatus; got != want {
				t.Errorf("unexpected status: got %d, want %d", got, want)
			}
			if diff := cmp.Diff(tc.wantResp, decodeSyncResponse(t, w)); diff != "" {
				t.Errorf("unexpected response (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestServer_HandleSync_DefaultsToRecent(t *testing.T) {
	t.Parallel()

	syncer := &fakeSyncer{report: testReport()}
	s, _ := testServer(t, syncer)

	before := time.Now().Add(-DefaultRecentWindow)
	w := postJSON(t, s.Routes(), "/sync", `{}`)
	if got, want := w.Code, http.StatusOK; got != want {
		t.Fatalf("unexpected status: got %d, want %d", got, want)
	}

	// Default domain comes from server config, default window is 24h back.
	if got, want := syncer.gotDomain, "example.com"; got != want {
		t.Errorf("unexpected domain: got %q, want %q", got, want)
	}
	if syncer.gotSince.Before(before) || syncer.gotSince.After(time.Now()) {
		t.Errorf("since %v is not within the default window", syncer.gotSince)
	}
}

func TestServer_HandleSync_RejectsGet(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t, &fakeSyncer{})
	req := httptest.NewRequest(http.MethodGet, "/sync", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)
	if got, want := w.Code, http.StatusMethodNotAllowed; got != want {
		t.Errorf("unexpected status: got %d, want %d", got, want)
	}
}

func TestServer_HandleWebhook(t *testing.T) {
	t.Parallel()

	t.Run("user_created", func(t *testing.T) {
		t.Parallel()

		s, store := testServer(t, &fakeSyncer{})
		w := postJSON(t, s.Routes(), "/webhook", `{
			"eventType": "user.created",
			"userData": {
				"id": "100",
				"primaryEmail": "taro@example.com",
				"name": {"givenName": "Taro", "familyName": "Yamada"},
				"orgUnitPath": "/営業"
			}
		}`)
		if got, want := w.Code, http.StatusOK; got != want {
			t.Fatalf("unexpected status: got %d, want %d", got, want)
		}

		got, err := store.FindByEmailOrEmployeeID(context.Background(), "taro@example.com", "")
		if err != nil {
			t.Fatalf("employee was not created: %v", err)
		}
		want := &usersync.Employee{
			ID:         got.ID,
			EmployeeID: "100",
			Name:       "Taro Yamada",
			Email:      "taro@example.com",
			Location:   "Sales Office",
			Projects:   []string{},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("unexpected employee (-want, +got):\n%s", diff)
		}
	})

	t.Run("user_updated_applies_changes", func(t *testing.T) {
		t.Parallel()

		s, store := testServer(t, &fakeSyncer{})
		seed := &usersync.Employee{
			EmployeeID: "100",
			Name:       "Taro Yamada",
			Email:      "taro@example.com",
			Location:   "Sales Office",
		}
		if _, err := store.Create(context.Background(), seed); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		w := postJSON(t, s.Routes(), "/webhook", `{
			"eventType": "user.updated",
			"userData": {
				"id": "100",
				"primaryEmail": "taro@example.com",
				"name": {"givenName": "Taro", "familyName": "Yamada"},
				"orgUnitPath": "/開発"
			}
		}`)
		if got, want := w.Code, http.StatusOK; got != want {
			t.Fatalf("unexpected status: got %d, want %d", got, want)
		}

		got, err := store.FindByEmailOrEmployeeID(context.Background(), "taro@example.com", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := got.Location, "Development Office"; got != want {
			t.Errorf("unexpected location: got %q, want %q", got, want)
		}
	})

	t.Run("user_deleted", func(t *testing.T) {
		t.Parallel()

		s, store := testServer(t, &fakeSyncer{})
		seed := &usersync.Employee{
			EmployeeID: "100",
			Name:       "Taro Yamada",
			Email:      "taro@example.com",
		}
		if _, err := store.Create(context.Background(), seed); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		w := postJSON(t, s.Routes(), "/webhook", `{
			"eventType": "user.deleted",
			"userEmail": "taro@example.com"
		}`)
		if got, want := w.Code, http.StatusOK; got != want {
			t.Fatalf("unexpected status: got %d, want %d", got, want)
		}
		if got, want := store.Len(), 0; got != want {
			t.Errorf("employee was not deleted: store has %d records", got)
		}
	})

	t.Run("missing_event_type", func(t *testing.T) {
		t.Parallel()

		s, _ := testServer(t, &fakeSyncer{})
		w := postJSON(t, s.Routes(), "/webhook", `{"userEmail": "taro@example.com"}`)
		if got, want := w.Code, http.StatusBadRequest; got != want {
			t.Errorf("unexpected status: got %d, want %d", got, want)
		}
	})

	t.Run("unknown_event_type_is_accepted", func(t *testing.T) {
		t.Parallel()

		s, _ := testServer(t, &fakeSyncer{})
		w := postJSON(t, s.Routes(), "/webhook", `{"eventType": "group.created"}`)
		if got, want := w.Code, http.StatusOK; got != want {
			t.Errorf("unexpected status: got %d, want %d", got, want)
		}
	})
}

func TestServer_HandleHealth(t *testing.T) {
	t.Parallel()

	s, _ := testServer(t, &fakeSyncer{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Routes().ServeHTTP(w, req)
	if got, want := w.Code, http.StatusOK; got != want {
		t.Errorf("unexpected status: got %d, want %d", got, want)
	}
}

func TestFallbackEmployeeID(t *testing.T) {
	t.Parallel()

	got := fallbackEmployeeID("taro@example.com")
	want := "TARO-" + time.Now().Format("20060102")
	if got != want {
		t.Errorf("unexpected employee id: got %q, want %q", got, want)
	}
}
