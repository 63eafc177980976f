// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"cognitio/internal/models"
	"cognitio/internal/policy"
	"cognitio/internal/session"
	"cognitio/internal/token"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"
	// BearerKey marks requests authenticated by a bearer token.
	BearerKey contextKey = "bearer"
)

// UserLoader reloads the user record on every request so admin status and
// points are never taken from a stale cookie or token.
type UserLoader interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticate resolves the caller from a bearer token or the session
// cookie and stores the user in the request context. It does NOT enforce
// authentication. A session whose 2FA step is pending is loaded into the
// context but does not authenticate its user.
func Authenticate(sessions *session.Store, tokens *token.Issuer, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw, ok := bearerToken(r); ok {
				ctx = context.WithValue(ctx, BearerKey, true)
				if tokens != nil {
					if claims, err := tokens.Parse(raw); err == nil {
						id, _ := claims.UserID()
						ctx = withUser(ctx, users, id)
					}
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			data, err := sessions.Get(ctx, r)
			if err != nil {
				// Log but don't block; treat as unauthenticated.
				slog.Warn("load session", "error", err)
			}
			if data != nil {
				ctx = context.WithValue(ctx, SessionKey, data)
				if data.TwoFADone {
					ctx = withUser(ctx, users, data.UserID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withUser(ctx context.Context, users UserLoader, id uuid.UUID) context.Context {
	u, err := users.FindUser(ctx, id)
	if err != nil {
		slog.Warn("load user", "user_id", id, "error", err)
		return ctx
	}
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, UserKey, u)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

// RequireAuth rejects requests without an authenticated user.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Please sign in to continue.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests without a session, whether or not its
// 2FA step is complete. Used by the 2FA verification endpoint.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil && UserFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Please sign in to continue.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 403 unless p recognises the user as the admin.
// Must be applied after RequireAuth.
func RequireAdmin(p policy.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p.IsAdmin(UserFromCtx(r.Context())) {
				writeError(w, http.StatusForbidden, "Only the administrator can do that.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// UserFromCtx returns the authenticated user, or nil for anonymous callers.
func UserFromCtx(ctx context.Context) *models.User {
	u, _ := ctx.Value(UserKey).(*models.User)
	return u
}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// IsBearer reports whether the request was authenticated by token.
func IsBearer(ctx context.Context) bool {
	b, _ := ctx.Value(BearerKey).(bool)
	return b
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
