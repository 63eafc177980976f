// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against the in-memory store and session backend.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"cognitio/internal/blog"
	"cognitio/internal/middleware"
	"cognitio/internal/models"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
	"cognitio/internal/session"
	"cognitio/internal/store/memstore"
	"cognitio/internal/token"
)

type testEnv struct {
	store    *memstore.Store
	sessions *session.Store
	tokens   *token.Issuer
	policy   policy.Policy
	notes    *notify.Recorder
	svc      *blog.Service
	auth     *Auth
	posts    *Posts
	admin    *Admin
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memstore.New()
	p := policy.New("")
	notes := &notify.Recorder{}
	sessions := session.NewStore(session.NewMemory(), false)
	tokens := token.NewIssuer([]byte("test-secret"), time.Hour)
	svc := blog.NewService(p, st, st, notes, blog.WithTracker(st), blog.WithBaseURL("https://cognitio.test"))
	return &testEnv{
		store:    st,
		sessions: sessions,
		tokens:   tokens,
		policy:   p,
		notes:    notes,
		svc:      svc,
		auth:     NewAuth(st, sessions, tokens, p, st, notes),
		posts:    NewPosts(svc),
		admin:    NewAdmin(st),
	}
}

func (e *testEnv) user(t *testing.T, name, email string, isAdmin bool) *models.User {
	t.Helper()
	u, err := e.store.CreateUser(context.Background(), name, email, "secret-pass", isAdmin, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) adminUser(t *testing.T) *models.User {
	return e.user(t, "Admin", policy.DefaultAdminEmail, true)
}

// request describes one handler call.
type request struct {
	method string
	path   string
	body   any
	user   *models.User
	id     string
	cookie *http.Cookie
	sess   *session.Data
}

func call(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}
	if req.path == "" {
		req.path = "/"
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.cookie != nil {
		r.AddCookie(req.cookie)
	}

	ctx := r.Context()
	if req.user != nil {
		ctx = middleware.WithUser(ctx, req.user)
	}
	if req.sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, req.sess)
	}
	if req.id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", req.id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rr := httptest.NewRecorder()
	h(rr, r.WithContext(ctx))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}
