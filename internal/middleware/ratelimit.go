// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// attempts is the sliding window of one client on one endpoint.
type attempts struct {
	mu   sync.Mutex
	hits []time.Time
}

// prune drops hits at or before cutoff and reports how many remain.
// Callers must hold a.mu.
func (a *attempts) prune(cutoff time.Time) int {
	keep := a.hits[:0]
	for _, ts := range a.hits {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	a.hits = keep
	return len(keep)
}

// RateLimiter throttles credential endpoints. Each client IP gets its own
// budget per request path, so a burst of signups does not lock a member
// out of login.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*attempts
	limit   int
	window  time.Duration
	stopCh  chan struct{}
	now     func() time.Time
}

// NewRateLimiter allows limit requests per window for every client and
// path. Idle windows are swept every five minutes until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go rl.sweep(5 * time.Minute)
	return rl
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop ends the background sweep.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) entry(key string) *attempts {
	rl.mu.RLock()
	a, ok := rl.clients[key]
	rl.mu.RUnlock()
	if ok {
		return a
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if a, ok = rl.clients[key]; !ok {
		a = &attempts{}
		rl.clients[key] = a
	}
	return a
}

// allow records a hit for key unless its window is full. A refused hit
// returns the time until the oldest hit leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	a := rl.entry(key)
	now := rl.now()
	cutoff := now.Add(-rl.window)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.prune(cutoff) >= rl.limit {
		return false, a.hits[0].Sub(cutoff)
	}
	a.hits = append(a.hits, now)
	return true, 0
}

// cleanup forgets keys whose window is empty.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, a := range rl.clients {
		a.mu.Lock()
		idle := a.prune(cutoff) == 0
		a.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware answers 429 with a Retry-After header once a client has
// used up its budget for the requested path.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.allow(clientIP(r) + " " + r.URL.Path)
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers the leftmost X-Forwarded-For address, then X-Real-IP,
// then the connection address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
