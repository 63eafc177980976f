// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"cognitio/internal/database"
	"cognitio/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "cognitio")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "cognitio")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(context.Background(), testDSN())
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Posts, comments and analytics
// rows cascade.
func cleanUsers(db *sql.DB, emails ...string) {
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// testUser creates a throwaway user removed at test cleanup.
func testUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	t.Cleanup(func() { cleanUsers(db, email) })
	cleanUsers(db, email)
	u, err := NewUserStore(db).CreateUser(context.Background(), "Tester", email, "testpass123", false, []string{"New Member"})
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

// testPost builds an unsaved post by author.
func testPost(author *models.User, title string, approved bool) *models.Post {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()
	return &models.Post{
		ID:        id,
		AuthorID:  author.ID,
		Title:     title,
		Slug:      "store-test-" + id.String(),
		Content:   "body of " + title,
		Tags:      []string{"go", "testing"},
		Approved:  approved,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
