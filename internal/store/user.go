// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cognitio/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, is_admin, points, badges, totp_secret, totp_enabled, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var badges stringList
	if err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.Points, &badges,
		&u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Badges = badges
	return u, nil
}

func (s *UserStore) findOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "find user by email", "email = $1", models.NormalizeEmail(email))
}

// FindUser retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "find user by id", "id = $1", id)
}

// ListUsers returns all users ordered by creation date.
func (s *UserStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CreateUser inserts a new user with a bcrypt-hashed password. The email
// is normalized; a duplicate address yields ErrEmailTaken.
func (s *UserStore) CreateUser(ctx context.Context, name, email, password string, isAdmin bool, badges []string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, is_admin, badges)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		name, models.NormalizeEmail(email), string(hash), isAdmin, stringList(badges),
	))
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// SaveRewards overwrites the points and badges of a user. The caller
// computes the new values; a concurrent award for the same user may be
// lost.
func (s *UserStore) SaveRewards(ctx context.Context, id uuid.UUID, points int, badges []string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET points = $1, badges = $2, updated_at = NOW() WHERE id = $3
	`, points, stringList(badges), id)
	if err != nil {
		return fmt.Errorf("save rewards: %w", err)
	}
	return expectOne(res, ErrUserNotFound)
}

// UpdateProfile changes the display name and email of a user.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = $1, email = $2, updated_at = NOW() WHERE id = $3
	`, name, models.NormalizeEmail(email), id)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOne(res, ErrUserNotFound)
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, updated_at = NOW() WHERE id = $2
	`, secret, id)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
