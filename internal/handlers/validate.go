// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for account fields.
const (
	maxNameLen     = 100
	maxEmailLen    = 254
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

// validateProfile checks name and email and returns the first error found.
func validateProfile(name, email string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Name is required."
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "Name is too long (max 100 characters)."
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if len(email) > maxEmailLen {
		return "Email is too long."
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Email address is not valid."
	}
	return ""
}

// validateSignup checks the signup form and returns the first error found.
func validateSignup(name, email, password string) string {
	if msg := validateProfile(name, email); msg != "" {
		return msg
	}
	if len(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return ""
}
