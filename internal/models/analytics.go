// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names an analytics event.
type EventType string

const (
	EventUserRegistration EventType = "user_registration"
	EventPostCreated      EventType = "post_created"
	EventPostSaved        EventType = "post_saved"
	EventPostApproved     EventType = "post_approved"
	EventPostRejected     EventType = "post_rejected"
	EventPostDeleted      EventType = "post_deleted"
	EventCommentAdded     EventType = "comment_added"
	EventPostReaction     EventType = "post_reaction"
	EventPostShared       EventType = "post_shared"
	EventPointsAwarded    EventType = "points_awarded"
)

// Metadata is free-form event payload stored as JSONB.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	return json.Unmarshal(raw, m)
}

// Event is one recorded analytics event.
type Event struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Type      EventType  `json:"event_type" db:"event_type"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	PostID    *uuid.UUID `json:"post_id,omitempty" db:"post_id"`
	Metadata  Metadata   `json:"metadata" db:"metadata"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UserName  *string    `json:"user_name,omitempty" db:"user_name"`
}

// Overview holds the headline counts for the admin dashboard.
type Overview struct {
	Users        int `json:"users" db:"users"`
	Posts        int `json:"posts" db:"posts"`
	PendingPosts int `json:"pending_posts" db:"pending_posts"`
	Events       int `json:"events" db:"events"`
}
