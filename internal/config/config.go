// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cognitio/internal/moderation"
	"cognitio/internal/policy"
	"cognitio/internal/storage"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "dev-only-jwt-secret-change-me"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host          string
	Port          string
	Env           string // "development", "production", "testing"
	LogLevel      slog.Level
	PublicBaseURL string
	CORSOrigins   []string

	// Blog rules
	AdminEmail        string
	SeedAdminPassword string // creates the admin account on first start when set

	// Storage backend: "postgres" or "memory"
	Storage string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (sessions, feed cache, notification relay)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	FeedTTL        time.Duration

	// Bearer tokens
	JWTSecret string
	JWTTTL    time.Duration

	// Optional integrations
	Moderation moderation.Config
	S3         storage.Config
}

// LoadDotEnv reads a .env file into the environment when one exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host:          envOrDefault("APP_HOST", "0.0.0.0"),
		Port:          envOrDefault("APP_PORT", "8080"),
		Env:           envOrDefault("APP_ENV", "development"),
		PublicBaseURL: strings.TrimRight(envOrDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSOrigins:   splitList(envOrDefault("CORS_ORIGINS", "http://localhost:5173")),

		AdminEmail:        envOrDefault("ADMIN_EMAIL", policy.DefaultAdminEmail),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		Storage: envOrDefault("STORAGE", StoragePostgres),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "cognitio"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "cognitio"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret: envOrDefault("JWT_SECRET", defaultJWTSecret),

		Moderation: moderation.Config{
			OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
			MistralKey:     os.Getenv("MISTRAL_API_KEY"),
			MistralBaseURL: os.Getenv("MISTRAL_BASE_URL"),
		},
		S3: storage.Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    envOrDefault("S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    envOrDefault("S3_BUCKET", "cognitio-media"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
	}

	var err error
	if cfg.LogLevel, err = parseLevel(envOrDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.FeedTTL, err = parseDuration("FEED_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = parseDuration("JWT_TTL", "24h"); err != nil {
		return nil, err
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.Storage)
	}

	if cfg.Env == "production" {
		if cfg.Storage == StoragePostgres && cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret || len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be set to at least 32 characters in production")
		}
		if cfg.Storage == StorageMemory {
			return nil, fmt.Errorf("STORAGE=memory is not allowed in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Secure reports whether cookies should carry the Secure flag.
func (c *Config) Secure() bool {
	return strings.HasPrefix(c.PublicBaseURL, "https://")
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return l, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
