// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer responds to every request with the given status and body
// and records the last request path and auth header.
func newTestServer(t *testing.T, status int, body string, gotPath, gotAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			*gotPath = r.URL.Path
		}
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		var req modRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Input == "" {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewWithoutKeys(t *testing.T) {
	if s := New(Config{}); s != nil {
		t.Errorf("expected nil screener, got %T", s)
	}
}

func TestNewSelectsProviders(t *testing.T) {
	if _, ok := New(Config{OpenAIKey: "k"}).(*openAI); !ok {
		t.Error("expected openAI screener")
	}
	if _, ok := New(Config{MistralKey: "k"}).(*mistral); !ok {
		t.Error("expected mistral screener")
	}
	if _, ok := New(Config{OpenAIKey: "k", MistralKey: "k"}).(fallback); !ok {
		t.Error("expected fallback chain")
	}
}

func TestOpenAIFlagged(t *testing.T) {
	var path, auth string
	srv := newTestServer(t, http.StatusOK,
		`{"results":[{"flagged":true,"categories":{"hate/threatening":true,"self_harm":true,"violence":false}}]}`,
		&path, &auth)

	res, err := newOpenAI("sk-test", srv.URL).Screen(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if path != "/moderations" {
		t.Errorf("path: got %q", path)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("auth: got %q", auth)
	}
	if !res.Flagged {
		t.Fatal("expected flagged result")
	}
	want := []string{"hate (threatening)", "self harm"}
	if len(res.Categories) != len(want) || res.Categories[0] != want[0] || res.Categories[1] != want[1] {
		t.Errorf("categories: got %v, want %v", res.Categories, want)
	}
}

func TestOpenAIClean(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"results":[{"flagged":false,"categories":{}}]}`, nil, nil)
	res, err := newOpenAI("k", srv.URL).Screen(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if res.Flagged || len(res.Categories) != 0 {
		t.Errorf("expected clean result, got %+v", res)
	}
}

func TestMistralFlaggedByCategory(t *testing.T) {
	var path string
	srv := newTestServer(t, http.StatusOK, `{"results":[{"categories":{"sexual":false,"pii":true}}]}`, &path, nil)
	res, err := newMistral("k", srv.URL).Screen(context.Background(), "text")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if path != "/v1/moderations" {
		t.Errorf("path: got %q", path)
	}
	if !res.Flagged || res.Provider != "mistral" {
		t.Errorf("got %+v", res)
	}
}

func TestAPIErrorStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, `{"error":"slow down"}`, nil, nil)
	if _, err := newOpenAI("k", srv.URL).Screen(context.Background(), "x"); err == nil {
		t.Error("expected error on 429")
	}
}

func TestFallbackUsesSecondProvider(t *testing.T) {
	bad := newTestServer(t, http.StatusInternalServerError, `oops`, nil, nil)
	good := newTestServer(t, http.StatusOK, `{"results":[{"categories":{"violence":true}}]}`, nil, nil)

	s := New(Config{OpenAIKey: "a", OpenAIBaseURL: bad.URL, MistralKey: "b", MistralBaseURL: good.URL})
	res, err := s.Screen(context.Background(), "x")
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if res.Provider != "mistral" || !res.Flagged {
		t.Errorf("got %+v", res)
	}
}

func TestFallbackAllFail(t *testing.T) {
	bad := newTestServer(t, http.StatusBadGateway, `down`, nil, nil)
	s := New(Config{OpenAIKey: "a", OpenAIBaseURL: bad.URL, MistralKey: "b", MistralBaseURL: bad.URL})
	if _, err := s.Screen(context.Background(), "x"); err == nil {
		t.Error("expected error when every provider fails")
	}
}
