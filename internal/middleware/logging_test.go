// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	t.Run("records status and path", func(t *testing.T) {
		buf := captureLogs(t)
		h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts/missing", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("status: got %d", rr.Code)
		}
		out := buf.String()
		for _, want := range []string{"status=404", "path=/api/posts/missing", "method=GET", "request_id="} {
			if !strings.Contains(out, want) {
				t.Errorf("log missing %q: %s", want, out)
			}
		}
	})

	t.Run("defaults to 200 on bare write", func(t *testing.T) {
		buf := captureLogs(t)
		h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		if !strings.Contains(buf.String(), "status=200") {
			t.Errorf("log: %s", buf.String())
		}
	})

	t.Run("echoes request id", func(t *testing.T) {
		captureLogs(t)
		h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		if got := rr.Header().Get(RequestIDHeader); got != "req-42" {
			t.Errorf("request id: %q", got)
		}
	})

	t.Run("assigns request id", func(t *testing.T) {
		captureLogs(t)
		h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		if len(rr.Header().Get(RequestIDHeader)) != 36 {
			t.Errorf("request id: %q", rr.Header().Get(RequestIDHeader))
		}
	})
}

func TestResponseWriterHijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("recorder cannot be hijacked")
	}
}
