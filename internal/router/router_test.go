// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cognitio/internal/blog"
	"cognitio/internal/handlers"
	"cognitio/internal/middleware"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
	"cognitio/internal/session"
	"cognitio/internal/store/memstore"
	"cognitio/internal/token"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

type app struct {
	srv    *httptest.Server
	store  *memstore.Store
	tokens *token.Issuer
	hub    *notify.Hub
}

func newApp(t *testing.T) *app {
	t.Helper()
	st := memstore.New()
	p := policy.New("")
	sessions := session.NewStore(session.NewMemory(), false)
	tokens := token.NewIssuer([]byte("test-secret"), time.Hour)
	hub := notify.NewHub(nil, func(*http.Request) bool { return true })
	svc := blog.NewService(p, st, st, hub, blog.WithTracker(st))

	h := New(Deps{
		Sessions:       sessions,
		Tokens:         tokens,
		Users:          st,
		Policy:         p,
		Auth:           handlers.NewAuth(st, sessions, tokens, p, st, hub),
		Posts:          handlers.NewPosts(svc),
		Admin:          handlers.NewAdmin(st),
		Uploads:        handlers.NewUploads(nil),
		Events:         handlers.NewEvents(hub, p, st),
		AllowedOrigins: []string{"https://cognitio.test"},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &app{srv: srv, store: st, tokens: tokens, hub: hub}
}

// browser is a cookie-carrying client that echoes the CSRF token.
type browser struct {
	t      *testing.T
	app    *app
	client *http.Client
}

func (a *app) browser(t *testing.T) *browser {
	jar, _ := cookiejar.New(nil)
	b := &browser{t: t, app: a, client: &http.Client{Jar: jar}}
	b.do(http.MethodGet, "/api/posts", nil, nil) // picks up the CSRF cookie
	return b
}

func (b *browser) csrf() string {
	u, _ := url.Parse(b.app.srv.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == middleware.CSRFCookieName {
			return c.Value
		}
	}
	return ""
}

func (b *browser) do(method, path string, body any, out any) int {
	b.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, b.app.srv.URL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok := b.csrf(); tok != "" {
		req.Header.Set(middleware.CSRFHeaderName, tok)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestMemberAndAdminFlow(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	if _, err := a.store.CreateUser(ctx, "Admin", policy.DefaultAdminEmail, "admin-pass", true, nil); err != nil {
		t.Fatal(err)
	}

	ada := a.browser(t)
	if code := ada.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse",
	}, nil); code != http.StatusCreated {
		t.Fatalf("signup: %d", code)
	}

	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	if code := ada.do(http.MethodPost, "/api/posts", map[string]any{
		"title": "Hello", "content": "First post", "tags": []string{"intro"},
	}, &created); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}

	var me struct {
		Points int      `json:"points"`
		Badges []string `json:"badges"`
	}
	ada.do(http.MethodGet, "/api/me", nil, &me)
	if me.Points != 10 {
		t.Errorf("points after post: %d", me.Points)
	}

	// Members cannot reach the admin dashboard or approve.
	if code := ada.do(http.MethodGet, "/api/admin/overview", nil, nil); code != http.StatusForbidden {
		t.Errorf("member overview: %d", code)
	}
	if code := ada.do(http.MethodPost, "/api/posts/"+created.Post.ID+"/approve", nil, nil); code != http.StatusForbidden {
		t.Errorf("member approve: %d", code)
	}

	admin := a.browser(t)
	if code := admin.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": policy.DefaultAdminEmail, "password": "admin-pass",
	}, nil); code != http.StatusOK {
		t.Fatalf("admin login: %d", code)
	}
	if code := admin.do(http.MethodPost, "/api/posts/"+created.Post.ID+"/approve", nil, nil); code != http.StatusOK {
		t.Errorf("admin approve: %d", code)
	}
	if code := admin.do(http.MethodGet, "/api/admin/analytics?range=7d", nil, nil); code != http.StatusOK {
		t.Errorf("admin analytics: %d", code)
	}

	anon := a.browser(t)
	var feed struct {
		Posts []json.RawMessage `json:"posts"`
	}
	anon.do(http.MethodGet, "/api/posts", nil, &feed)
	if len(feed.Posts) != 1 {
		t.Errorf("anonymous feed: %d posts", len(feed.Posts))
	}
	if code := anon.do(http.MethodPost, "/api/posts", map[string]string{"title": "x", "content": "y"}, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous create: %d", code)
	}
	if code := anon.do(http.MethodPost, "/api/posts/"+created.Post.ID+"/share", nil, nil); code != http.StatusOK {
		t.Errorf("anonymous share: %d", code)
	}
}

func TestCSRFRequiredForCookieSessions(t *testing.T) {
	a := newApp(t)
	resp, err := http.Post(a.srv.URL+"/api/auth/signup", "application/json",
		strings.NewReader(`{"name":"A","email":"a@example.com","password":"correct-horse"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status: %d", resp.StatusCode)
	}
}

func TestBearerTokenAndEventStream(t *testing.T) {
	a := newApp(t)
	ada, err := a.store.CreateUser(context.Background(), "Ada", "ada@example.com", "secret-pass", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	raw, _, _ := a.tokens.Issue(ada.ID, ada.Email)
	header := http.Header{"Authorization": {"Bearer " + raw}}

	wsURL := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for a.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Bearer requests skip CSRF.
	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+"/api/posts",
		strings.NewReader(`{"title":"Via token","content":"Body"}`))
	req.Header = header.Clone()
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create via token: %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Kind != notify.KindPostPending || ev.Recipient != ada.ID {
		t.Errorf("event: %+v", ev)
	}

	// Anonymous callers cannot open a stream.
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous stream allowed")
	}
}

func TestAdminStreamStopsAfterRightsRevoked(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	admin, err := a.store.CreateUser(ctx, "Admin", policy.DefaultAdminEmail, "admin-pass", true, nil)
	if err != nil {
		t.Fatal(err)
	}
	ada, err := a.store.CreateUser(ctx, "Ada", "ada@example.com", "secret-pass", false, nil)
	if err != nil {
		t.Fatal(err)
	}
	adminTok, _, _ := a.tokens.Issue(admin.ID, admin.Email)
	adaTok, _, _ := a.tokens.Issue(ada.ID, ada.Email)

	wsURL := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Authorization": {"Bearer " + adminTok}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for a.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Moving off the designated address ends admin rights.
	if err := a.store.UpdateProfile(ctx, admin.ID, "Admin", "former-admin@example.com"); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+"/api/posts",
		strings.NewReader(`{"title":"Needs review","content":"Body"}`))
	req.Header.Set("Authorization", "Bearer "+adaTok)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev notify.Event
	if err := conn.ReadJSON(&ev); err == nil {
		t.Errorf("former admin received %+v", ev)
	}
}
