// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Cognitio+ API. Routes are grouped into public, member and admin groups
// with the matching middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"cognitio/internal/handlers"
	"cognitio/internal/middleware"
	"cognitio/internal/policy"
	"cognitio/internal/session"
	"cognitio/internal/token"
)

// Deps carries everything the routes need.
type Deps struct {
	Sessions *session.Store
	Tokens   *token.Issuer
	Users    middleware.UserLoader
	Policy   policy.Policy

	Auth    *handlers.Auth
	Posts   *handlers.Posts
	Admin   *handlers.Admin
	Uploads *handlers.Uploads
	Events  *handlers.Events

	// AuthLimiter throttles credential endpoints. Nil disables it.
	AuthLimiter *middleware.RateLimiter

	AllowedOrigins []string
	Secure         bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(d.Secure))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.CSRFHeaderName},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check, no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Sessions, d.Tokens, d.Users))
		r.Use(middleware.CSRF(d.Secure))

		// Auth: accessible without a session.
		r.Group(func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/auth/signup", d.Auth.Signup)
			r.Post("/auth/login", d.Auth.Login)
			r.Post("/auth/token", d.Auth.Token)
		})
		r.Post("/auth/logout", d.Auth.Logout)

		// 2FA verification also completes a pending login.
		r.With(middleware.RequireSession).Post("/auth/2fa/verify", d.Auth.TwoFAVerify)

		// Readers: anonymous allowed, visibility filtered per viewer.
		r.Get("/posts", d.Posts.List)
		r.Get("/posts/{id}", d.Posts.Get)
		r.Post("/posts/{id}/share", d.Posts.Share)
		r.Get("/tags", d.Posts.Tags)

		// Members.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/auth/2fa/setup", d.Auth.TwoFASetup)
			r.Get("/me", d.Auth.Me)
			r.Patch("/me", d.Auth.UpdateMe)

			r.Post("/posts", d.Posts.Create)
			r.Put("/posts/{id}", d.Posts.Update)
			r.Delete("/posts/{id}", d.Posts.Delete)
			r.Post("/posts/{id}/approve", d.Posts.Approve)
			r.Post("/posts/{id}/reject", d.Posts.Reject)
			r.Post("/posts/{id}/reactions", d.Posts.React)
			r.Post("/posts/{id}/comments", d.Posts.Comment)

			r.Post("/uploads/images", d.Uploads.Image)
			r.Get("/events", d.Events.Stream)
		})

		// Admin dashboard.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin(d.Policy))
			r.Get("/overview", d.Admin.Overview)
			r.Get("/users", d.Admin.Users)
			r.Get("/analytics", d.Admin.Analytics)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
