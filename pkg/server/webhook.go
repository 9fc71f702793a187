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
	"net/http"
	"strings"
	"time"

	"github.com/abcxyz/pkg/logging"
	"github.com/abcxyz/workspace-sync/pkg/usersync"
)

// Directory event types delivered to the webhook.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type webhookRequest struct {
	EventType string       `json:"eventType"`
	UserData  *webhookUser `json:"userData"`
	UserEmail string       `json:"userEmail"`
	Domain    string       `json:"domain"`
}

type webhookUser struct {
	ID           string       `json:"id"`
	PrimaryEmail string       `json:"primaryEmail"`
	Name         *webhookName `json:"name"`
	OrgUnitPath  string       `json:"orgUnitPath"`
	Suspended    bool         `json:"suspended"`
}

type webhookName struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// handleWebhook applies a single directory event to the employee store.
// Created and updated events run through the same diffing path as a sync
// pass; deleted events remove the employee record.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.differ == nil || s.deleter == nil {
		http.Error(w, "webhook handling not configured", http.StatusServiceUnavailable)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventType == "" {
		http.Error(w, "missing eventType", http.StatusBadRequest)
		return
	}

	logger.InfoContext(ctx, "webhook received", "event_type", req.EventType)

	switch req.EventType {
	case EventUserCreated, EventUserUpdated:
		user := remoteUserFromEvent(&req)
		if user == nil {
			logger.WarnContext(ctx, "webhook event has no user data", "event_type", req.EventType)
			break
		}
		result := s.differ.SyncUser(ctx, user)
		if result.Outcome == usersync.OutcomeErrored {
			logger.ErrorContext(ctx, "failed to apply webhook event",
				"event_type", req.EventType,
				"error", result.Err,
			)
			http.Error(w, "failed to apply event", http.StatusInternalServerError)
			return
		}
		logger.InfoContext(ctx, "webhook event applied",
			"event_type", req.EventType,
			"outcome", result.Outcome.String(),
		)
	case EventUserDeleted:
		if req.UserEmail == "" {
			logger.WarnContext(ctx, "webhook deletion event has no email")
			break
		}
		if err := s.deleter.DeleteByEmail(ctx, req.UserEmail); err != nil {
			logger.ErrorContext(ctx, "failed to delete employee",
				"email", usersync.RedactEmail(req.UserEmail),
				"error", err,
			)
			http.Error(w, "failed to apply event", http.StatusInternalServerError)
			return
		}
	default:
		logger.WarnContext(ctx, "unknown webhook event type", "event_type", req.EventType)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		logger.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func remoteUserFromEvent(req *webhookRequest) *usersync.RemoteUser {
	if req.UserData == nil {
		if req.UserEmail == "" {
			return nil
		}
		return &usersync.RemoteUser{
			ID:           fallbackEmployeeID(req.UserEmail),
			PrimaryEmail: req.UserEmail,
		}
	}
	user := &usersync.RemoteUser{
		ID:           req.UserData.ID,
		PrimaryEmail: req.UserData.PrimaryEmail,
		OrgUnitPath:  req.UserData.OrgUnitPath,
		Suspended:    req.UserData.Suspended,
	}
	if user.PrimaryEmail == "" {
		user.PrimaryEmail = req.UserEmail
	}
	if req.UserData.Name != nil {
		user.GivenName = req.UserData.Name.GivenName
		user.FamilyName = req.UserData.Name.FamilyName
	}
	if user.ID == "" && user.PrimaryEmail != "" {
		user.ID = fallbackEmployeeID(user.PrimaryEmail)
	}
	return user
}

// fallbackEmployeeID derives an employee ID for webhook events that carry
// no directory ID, e.g. "TARO-20250115" for taro@example.com.
func fallbackEmployeeID(email string) string {
	username, _, _ := strings.Cut(email, "@")
	return strings.ToUpper(username + "-" + time.Now().Format("20060102"))
}
