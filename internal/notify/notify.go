// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package notify delivers user-facing notifications produced by the blog
// service: outcomes of post operations, point awards, unlocked badges and
// access denials.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	KindPostCreated   Kind = "post_created"
	KindPostPending   Kind = "post_pending"
	KindPostUpdated   Kind = "post_updated"
	KindPostApproved  Kind = "post_approved"
	KindPostRejected  Kind = "post_rejected"
	KindPostDeleted   Kind = "post_deleted"
	KindCommentAdded  Kind = "comment_added"
	KindPointsEarned  Kind = "points_earned"
	KindLevelUp       Kind = "level_up"
	KindBadgeUnlocked Kind = "badge_unlocked"
	KindAccessDenied  Kind = "access_denied"
	KindError         Kind = "error"
)

// Audience selects who receives an event.
type Audience string

const (
	// AudienceUser targets the single user named by Event.Recipient.
	AudienceUser Audience = "user"
	// AudienceAdmins targets every connected admin.
	AudienceAdmins Audience = "admins"
)

// Event is one notification.
type Event struct {
	Kind       Kind       `json:"kind"`
	Audience   Audience   `json:"audience"`
	Recipient  uuid.UUID  `json:"recipient,omitempty"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	PostID     *uuid.UUID `json:"post_id,omitempty"`
	Points     int        `json:"points,omitempty"`
	Badge      string     `json:"badge,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Notifier accepts events for delivery. Implementations must not block
// the caller for long and must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// ToUser builds an event addressed to a single user.
func ToUser(id uuid.UUID, kind Kind, title, message string) Event {
	return Event{
		Kind:      kind,
		Audience:  AudienceUser,
		Recipient: id,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// ToAdmins builds an event addressed to every admin.
func ToAdmins(kind Kind, title, message string) Event {
	return Event{
		Kind:      kind,
		Audience:  AudienceAdmins,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Discard drops every event.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(context.Context, Event) {}

// Log writes every event to the structured logger.
type Log struct{}

// Notify logs ev at info level, or warn level for access denials.
func (Log) Notify(ctx context.Context, ev Event) {
	level := slog.LevelInfo
	if ev.Kind == KindAccessDenied || ev.Kind == KindError {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "notification",
		"kind", ev.Kind,
		"audience", ev.Audience,
		"recipient", ev.Recipient,
		"title", ev.Title,
		"message", ev.Message,
	)
}

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

// Notify forwards ev to every notifier.
func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}

// Recorder keeps every event in memory for inspection in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify appends ev.
func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kinds returns the kinds of all recorded events in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
