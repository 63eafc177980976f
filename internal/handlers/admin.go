// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cognitio/internal/analytics"
	"cognitio/internal/models"
	"cognitio/internal/rewards"
)

// AdminData is the storage behind the admin dashboard.
type AdminData interface {
	analytics.Source
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Admin groups the admin dashboard handlers. Routes must be guarded by
// middleware.RequireAdmin.
type Admin struct {
	data AdminData
	now  func() time.Time
}

// NewAdmin creates the admin handler group.
func NewAdmin(data AdminData) *Admin {
	return &Admin{data: data, now: time.Now}
}

// Overview returns the headline counts.
func (h *Admin) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.data.Overview(r.Context())
	if err != nil {
		slog.Error("admin overview failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load the dashboard.")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type userRow struct {
	models.User
	Level int `json:"level"`
}

// Users lists every member with their reward state.
func (h *Admin) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.data.ListUsers(r.Context())
	if err != nil {
		slog.Error("admin user list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load users.")
		return
	}
	rows := make([]userRow, len(users))
	for i, u := range users {
		rows[i] = userRow{User: u, Level: rewards.Level(u.Points)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": rows})
}

// Analytics returns the event summary for ?range=7d|30d|90d.
func (h *Admin) Analytics(w http.ResponseWriter, r *http.Request) {
	rng := r.URL.Query().Get("range")
	if _, _, err := analytics.ParseRange(rng); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sum, err := analytics.Summarize(r.Context(), h.data, rng, h.now())
	if err != nil {
		slog.Error("admin analytics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load analytics.")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
