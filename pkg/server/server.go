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

// Package server exposes the sync engine over HTTP: an on-demand sync
// trigger, a directory event webhook, and a health check.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/apis/v1alpha1"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

const (
	// DefaultRecentWindow is how far back a "recent" sync reaches when the
	// request does not say.
	DefaultRecentWindow = 24 * time.Hour

	shutdownGrace = 10 * time.Second
)

// SyncerFactory builds a syncer for one request. The batch size is
// per-request; zero means the engine default.
type SyncerFactory func(batchSize int64) v1alpha1.UserSyncer

// EmployeeDeleter removes an employee record by email. Deletion is only
// reachable through the webhook path, never through a sync pass.
type EmployeeDeleter interface {
	DeleteByEmail(ctx context.Context, email string) error
}

// Server serves the HTTP API.
type Server struct {
	addr      string
	domain    string
	newSyncer SyncerFactory
	differ    *usersync.Differencer
	deleter   EmployeeDeleter
}

// Params are the inputs to NewServer. All fields are required except
// Differ and Deleter, which disable the webhook path when nil.
type Params struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Domain is the default directory domain for requests that omit one.
	Domain string

	NewSyncer SyncerFactory
	Differ    *usersync.Differencer
	Deleter   EmployeeDeleter
}

// NewServer creates a Server.
func NewServer(p *Params) (*Server, error) {
	if p.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if p.NewSyncer == nil {
		return nil, fmt.Errorf("syncer factory is required")
	}
	return &Server{
		addr:      p.Addr,
		domain:    p.Domain,
		newSyncer: p.NewSyncer,
		differ:    p.Differ,
		deleter:   p.Deleter,
	}, nil
}

// Routes returns the HTTP handler for the server. It is exposed for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	server := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := logging.FromContext(ctx)
		logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
