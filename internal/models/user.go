// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered member of the blog. The IsAdmin flag alone does not
// grant admin rights: the policy package also checks the configured admin
// email.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	IsAdmin      bool      `json:"is_admin"`
	Points       int       `json:"points"`
	Badges       []string  `json:"badges"`
	TOTPSecret   *string   `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool      `json:"totp_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasBadge reports whether the user already owns the named badge.
func (u *User) HasBadge(name string) bool {
	return slices.Contains(u.Badges, name)
}

// Needs2FA returns true if login must be completed with a TOTP code.
// Two-factor authentication is opt-in for blog members.
func (u *User) Needs2FA() bool {
	return u.TOTPEnabled
}

// NormalizeEmail trims and lowercases an email address. Every email is
// normalized before it is stored so comparisons can be exact.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
