// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"testing"

	"cognitio/internal/analytics"
	"cognitio/internal/models"
)

func TestAdminOverview(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user(t, "Ada", "ada@example.com", false)
	admin := env.adminUser(t)

	call(t, env.posts.Create, request{method: http.MethodPost, user: ada, body: models.PostDraft{Title: "Pending", Content: "x"}})
	call(t, env.posts.Create, request{method: http.MethodPost, user: admin, body: models.PostDraft{Title: "Live", Content: "y"}})

	rr := call(t, env.admin.Overview, request{method: http.MethodGet, user: admin})
	expectStatus(t, rr, http.StatusOK)
	o := decode[models.Overview](t, rr)
	if o.Users != 2 || o.Posts != 2 || o.PendingPosts != 1 || o.Events == 0 {
		t.Errorf("overview: %+v", o)
	}
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "Ada", "ada@example.com", false)
	env.adminUser(t)

	rr := call(t, env.admin.Users, request{method: http.MethodGet})
	expectStatus(t, rr, http.StatusOK)
	got := decode[map[string][]userRow](t, rr)["users"]
	if len(got) != 2 || got[0].Level != 1 {
		t.Errorf("users: %+v", got)
	}
}

func TestAdminAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user(t, "Ada", "ada@example.com", false)
	call(t, env.posts.Create, request{method: http.MethodPost, user: ada, body: models.PostDraft{Title: "T", Content: "x"}})

	rr := call(t, env.admin.Analytics, request{method: http.MethodGet, path: "/api/admin/analytics?range=30d"})
	expectStatus(t, rr, http.StatusOK)
	sum := decode[analytics.Summary](t, rr)
	if sum.Range != "30d" || len(sum.Recent) != 2 {
		t.Fatalf("summary: %+v", sum)
	}
	// post_created then points_awarded, newest first.
	if sum.Recent[0].Type != models.EventPointsAwarded || sum.Recent[0].UserName == nil || *sum.Recent[0].UserName != "Ada" {
		t.Errorf("recent: %+v", sum.Recent[0])
	}

	rr = call(t, env.admin.Analytics, request{method: http.MethodGet, path: "/api/admin/analytics?range=1y"})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}
