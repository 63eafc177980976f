// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides PostgreSQL access for users, posts, comments and
// analytics events. Each store struct wraps a *sql.DB and exposes typed
// query methods. Concurrent writes to the same row are last-write-wins.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by updates that match no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrPostNotFound is returned by updates that match no post.
	ErrPostNotFound = errors.New("post not found")
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err violates the named foreign
// key constraint (SQLSTATE 23503).
func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503" && pgErr.ConstraintName == constraint
}

// stringList stores an ordered string slice in a JSONB column.
type stringList []string

// Value implements driver.Valuer.
func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner.
func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = stringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("string list: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// expectOne turns a zero RowsAffected into notFound.
func expectOne(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
