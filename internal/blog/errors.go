// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for posts that do not exist or that the viewer
// is not allowed to see.
var ErrNotFound = errors.New("post not found")

// ValidationError reports malformed input. It is raised before any
// authorization check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failed storage read or write. When it is
// returned no notification was sent and no reward was granted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to members when storage fails.
func (e *PersistenceError) UserMessage() string {
	return "We could not save your changes. Please try again."
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
