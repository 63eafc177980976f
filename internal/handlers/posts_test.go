// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"cognitio/internal/models"
)

type listResponse struct {
	Posts []postView `json:"posts"`
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user(t, "Ada", "ada@example.com", false)
	bob := env.user(t, "Bob", "bob@example.com", false)
	admin := env.adminUser(t)

	// Ada submits; the post waits for review.
	rr := call(t, env.posts.Create, request{method: http.MethodPost, user: ada, body: models.PostDraft{
		Title:   "Learning Go",
		Content: "Channels are **great**.",
		Tags:    []string{"go", "learning"},
	}})
	expectStatus(t, rr, http.StatusCreated)
	created := decode[postResponse](t, rr)
	if created.Post.Approved || created.Award == nil || created.Award.Points != 10 {
		t.Fatalf("created: %+v", created)
	}
	if !strings.Contains(created.Post.ContentHTML, "<strong>great</strong>") {
		t.Errorf("content_html: %q", created.Post.ContentHTML)
	}
	id := created.Post.ID.String()

	// Hidden from readers and other members, visible to its author.
	for _, viewer := range []*models.User{nil, bob} {
		rr = call(t, env.posts.List, request{method: http.MethodGet, user: viewer})
		if got := decode[listResponse](t, rr); len(got.Posts) != 0 {
			t.Errorf("pending post leaked: %+v", got.Posts)
		}
	}
	rr = call(t, env.posts.Get, request{method: http.MethodGet, id: id, user: bob})
	expectStatus(t, rr, http.StatusNotFound)
	rr = call(t, env.posts.Get, request{method: http.MethodGet, id: id, user: ada})
	expectStatus(t, rr, http.StatusOK)

	// Only the admin approves.
	rr = call(t, env.posts.Approve, request{method: http.MethodPost, id: id, user: ada})
	expectStatus(t, rr, http.StatusForbidden)
	rr = call(t, env.posts.Approve, request{method: http.MethodPost, id: id, user: admin})
	expectStatus(t, rr, http.StatusOK)

	rr = call(t, env.posts.List, request{method: http.MethodGet, path: "/api/posts?tag=go"})
	if got := decode[listResponse](t, rr); len(got.Posts) != 1 || got.Posts[0].Excerpt != "Channels are great." {
		t.Errorf("live feed: %+v", got.Posts)
	}
	rr = call(t, env.posts.List, request{method: http.MethodGet, path: "/api/posts?q=python"})
	if got := decode[listResponse](t, rr); len(got.Posts) != 0 {
		t.Errorf("search matched: %+v", got.Posts)
	}

	// Bob reacts, comments and shares.
	rr = call(t, env.posts.React, request{method: http.MethodPost, id: id, user: bob, body: reactRequest{Kind: models.ReactionLove}})
	expectStatus(t, rr, http.StatusOK)
	react := decode[reactResponse](t, rr)
	if react.Reactions.Loves != 1 || react.Award == nil || react.Award.Points != 3 {
		t.Errorf("react: %+v", react)
	}

	rr = call(t, env.posts.Comment, request{method: http.MethodPost, id: id, user: bob, body: commentRequest{Content: "Nice!"}})
	expectStatus(t, rr, http.StatusCreated)
	if c := decode[commentResponse](t, rr); c.Comment.AuthorName != "Bob" || c.Award.Points != 5 {
		t.Errorf("comment: %+v", c)
	}

	rr = call(t, env.posts.Share, request{method: http.MethodPost, id: id, user: bob})
	expectStatus(t, rr, http.StatusOK)
	sh := decode[shareResponse](t, rr)
	if !strings.HasPrefix(sh.URL, "https://cognitio.test/posts/learning-go-") || len(sh.Links) == 0 || sh.Award.Points != 7 {
		t.Errorf("share: %+v", sh)
	}

	// Anonymous share works without points; anonymous reactions do not.
	rr = call(t, env.posts.Share, request{method: http.MethodPost, id: id})
	expectStatus(t, rr, http.StatusOK)
	if sh := decode[shareResponse](t, rr); sh.Award != nil {
		t.Errorf("anonymous award: %+v", sh.Award)
	}
	rr = call(t, env.posts.React, request{method: http.MethodPost, id: id, body: reactRequest{Kind: models.ReactionLike}})
	expectStatus(t, rr, http.StatusForbidden)

	// Ada cannot approve her own edit; Bob cannot delete.
	approved := true
	rr = call(t, env.posts.Update, request{method: http.MethodPut, id: id, user: ada, body: models.PostChanges{Approved: &approved}})
	expectStatus(t, rr, http.StatusForbidden)
	title := "Learning Go, part 1"
	rr = call(t, env.posts.Update, request{method: http.MethodPut, id: id, user: ada, body: models.PostChanges{Title: &title}})
	expectStatus(t, rr, http.StatusOK)
	if up := decode[postResponse](t, rr); up.Post.Title != title || !up.Post.Approved {
		t.Errorf("update: %+v", up.Post)
	}

	rr = call(t, env.posts.Delete, request{method: http.MethodDelete, id: id, user: bob})
	expectStatus(t, rr, http.StatusForbidden)
	rr = call(t, env.posts.Delete, request{method: http.MethodDelete, id: id, user: ada})
	expectStatus(t, rr, http.StatusNoContent)
	rr = call(t, env.posts.Get, request{method: http.MethodGet, id: id, user: admin})
	expectStatus(t, rr, http.StatusNotFound)
}

func TestPostErrors(t *testing.T) {
	env := newTestEnv(t)
	ada := env.user(t, "Ada", "ada@example.com", false)

	tests := []struct {
		name string
		h    http.HandlerFunc
		req  request
		want int
	}{
		{"bad id", env.posts.Get, request{method: http.MethodGet, id: "not-a-uuid"}, http.StatusNotFound},
		{"empty title", env.posts.Create, request{method: http.MethodPost, user: ada,
			body: models.PostDraft{Title: " ", Content: "x"}}, http.StatusUnprocessableEntity},
		{"anonymous create", env.posts.Create, request{method: http.MethodPost,
			body: models.PostDraft{Title: "t", Content: "x"}}, http.StatusForbidden},
		{"malformed json", env.posts.Create, request{method: http.MethodPost, user: ada, body: "{"}, http.StatusBadRequest},
		{"empty body", env.posts.Create, request{method: http.MethodPost, user: ada}, http.StatusBadRequest},
		{"unknown reaction", env.posts.React, request{method: http.MethodPost, user: ada,
			id: "7b0f3c2e-8f1d-4a5b-9c6d-0e1f2a3b4c5d", body: reactRequest{Kind: "angry"}}, http.StatusUnprocessableEntity},
		{"missing post", env.posts.Comment, request{method: http.MethodPost, user: ada,
			id: "7b0f3c2e-8f1d-4a5b-9c6d-0e1f2a3b4c5d", body: commentRequest{Content: "hi"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := call(t, tt.h, tt.req)
			expectStatus(t, rr, tt.want)
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: %q", ct)
			}
		})
	}
}

func TestTagsHandler(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminUser(t)
	for _, tags := range [][]string{{"go", "web"}, {"web", "db"}} {
		rr := call(t, env.posts.Create, request{method: http.MethodPost, user: admin,
			body: models.PostDraft{Title: "Post", Content: "Body", Tags: tags}})
		expectStatus(t, rr, http.StatusCreated)
	}

	rr := call(t, env.posts.Tags, request{method: http.MethodGet})
	expectStatus(t, rr, http.StatusOK)
	got := decode[map[string][]string](t, rr)["tags"]
	if len(got) != 3 {
		t.Errorf("tags: %v", got)
	}
}
