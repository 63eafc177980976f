// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Cognitio+ blog API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"cognitio/internal/analytics"
	"cognitio/internal/blog"
	"cognitio/internal/cache"
	"cognitio/internal/config"
	"cognitio/internal/database"
	"cognitio/internal/handlers"
	"cognitio/internal/middleware"
	"cognitio/internal/models"
	"cognitio/internal/moderation"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
	"cognitio/internal/rewards"
	"cognitio/internal/router"
	"cognitio/internal/session"
	"cognitio/internal/storage"
	"cognitio/internal/store"
	"cognitio/internal/store/memstore"
	"cognitio/internal/token"
)

// stores is the persistence layer selected by STORAGE.
type stores struct {
	users interface {
		handlers.Accounts
		blog.UserRepository
		ListUsers(ctx context.Context) ([]models.User, error)
	}
	posts  blog.PostRepository
	events interface {
		blog.Tracker
		analytics.Source
	}
}

// adminData joins the user list and analytics for the dashboard.
type adminData struct {
	analytics.Source
	users interface {
		ListUsers(ctx context.Context) ([]models.User, error)
	}
}

func (a adminData) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.users.ListUsers(ctx)
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.Storage,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	// Valkey is optional in development: sessions fall back to memory and
	// the feed cache and notification relay are disabled.
	var valkeyClient *redis.Client
	if cfg.Storage == config.StoragePostgres || !cfg.IsDev() {
		valkeyClient, err = cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			if !cfg.IsDev() {
				slog.Error("failed to connect to valkey", "error", err)
				os.Exit(1)
			}
			slog.Warn("valkey unavailable, using in-memory sessions", "error", err)
			valkeyClient = nil
		}
	}
	if valkeyClient != nil {
		defer valkeyClient.Close()
	}

	var sessionBackend session.Backend = session.NewMemory()
	if valkeyClient != nil {
		sessionBackend = session.NewValkey(valkeyClient)
	}
	secureCookies := cfg.Secure()
	sessions := session.NewStore(sessionBackend, secureCookies)
	tokens := token.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	pol := policy.New(cfg.AdminEmail)

	hub := notify.NewHub(valkeyClient, allowOrigin(cfg.CORSOrigins))
	go hub.Run(ctx)
	notifier := notify.Multi{notify.Log{}, hub}

	opts := []blog.Option{
		blog.WithTracker(st.events),
		blog.WithBaseURL(cfg.PublicBaseURL),
	}
	if valkeyClient != nil {
		opts = append(opts, blog.WithFeedCache(cache.NewFeedCache(valkeyClient, cfg.FeedTTL)))
	}
	if screener := moderation.New(cfg.Moderation); screener != nil {
		opts = append(opts, blog.WithScreener(screener))
		slog.Info("content moderation enabled")
	}
	svc := blog.NewService(pol, st.posts, st.users, notifier, opts...)

	// A nil *storage.Client must not reach the handler as a non-nil interface.
	var images handlers.ImageStore
	storageClient, err := storage.New(cfg.S3)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		images = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3.Endpoint, "bucket", cfg.S3.Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:       sessions,
		Tokens:         tokens,
		Users:          st.users,
		Policy:         pol,
		Auth:           handlers.NewAuth(st.users, sessions, tokens, pol, st.events, notifier),
		Posts:          handlers.NewPosts(svc),
		Admin:          handlers.NewAdmin(adminData{Source: st.events, users: st.users}),
		Uploads:        handlers.NewUploads(images),
		Events:         handlers.NewEvents(hub, pol, st.users),
		AuthLimiter:    authLimiter,
		AllowedOrigins: cfg.CORSOrigins,
		Secure:         secureCookies,
	})

	// WriteTimeout is left at zero so websocket streams stay open; the
	// handlers bound their own work with the request context.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openStores connects the configured persistence layer and returns a
// function that releases it.
func openStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.Storage == config.StorageMemory {
		mem := memstore.New()
		if cfg.SeedAdminPassword != "" {
			_, err := mem.CreateUser(ctx, "Admin", cfg.AdminEmail, cfg.SeedAdminPassword, true, rewards.InitialBadges())
			if err != nil {
				return nil, nil, err
			}
			slog.Info("in-memory admin account created", "email", cfg.AdminEmail)
		}
		slog.Warn("using in-memory storage, data is lost on exit")
		return &stores{users: mem, posts: mem, events: mem}, func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	if cfg.SeedAdminPassword != "" {
		if err := database.Seed(ctx, db, cfg.AdminEmail, cfg.SeedAdminPassword); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return &stores{
		users:  store.NewUserStore(db),
		posts:  store.NewPostStore(db),
		events: store.NewAnalyticsStore(db),
	}, func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("database close failed", "error", err)
	}
}

// allowOrigin accepts websocket upgrades from the configured CORS origins,
// from the API's own host and from clients that send no Origin header.
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(origins, origin) || slices.Contains(origins, "*") {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
