// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cognitio/internal/models"
	"cognitio/internal/rewards"
	"cognitio/internal/slug"
)

const welcomeTitle = "Welcome to Cognitio+"

const welcomeContent = `Cognitio+ is a community blog. Write a post, react, comment and share
to earn points and unlock badges.

Posts from members are reviewed by the admin before they go live.`

// Seed creates the admin account and a welcome post when the admin email
// is not registered yet. It is safe to call on every start.
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	adminEmail = models.NormalizeEmail(adminEmail)

	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", adminEmail,
	).Scan(&exists); err != nil {
		return fmt.Errorf("seed check admin: %w", err)
	}
	if exists {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var adminID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, is_admin, badges)
		VALUES ($1, $2, $3, TRUE, $4)
		RETURNING id
	`, "Admin", adminEmail, string(hash), `["`+rewards.BadgeNewMember+`"]`).Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	postID := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, slug, content, tags, approved)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, postID, adminID, welcomeTitle, slug.ForPost(welcomeTitle, postID), welcomeContent, `["announcements"]`)
	if err != nil {
		return fmt.Errorf("seed insert welcome post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with admin user", "email", adminEmail)
	return nil
}
