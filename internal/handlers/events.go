// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"cognitio/internal/middleware"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
)

// Events streams notifications to the signed-in member over a websocket.
type Events struct {
	hub    *notify.Hub
	policy policy.Policy
	users  middleware.UserLoader
}

// NewEvents creates the event stream handler. users is consulted again for
// every admin broadcast so revoked admin rights apply to open streams.
func NewEvents(hub *notify.Hub, p policy.Policy, users middleware.UserLoader) *Events {
	return &Events{hub: hub, policy: p, users: users}
}

// Stream upgrades the connection. Admins also receive admin broadcasts
// for as long as they stay admins.
func (h *Events) Stream(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	var admin notify.AdminCheck
	if h.policy.IsAdmin(u) {
		id := u.ID
		admin = func(ctx context.Context) bool {
			cur, err := h.users.FindUser(ctx, id)
			return err == nil && h.policy.IsAdmin(cur)
		}
	}
	h.hub.Serve(w, r, u.ID, admin)
}
