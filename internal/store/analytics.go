// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cognitio/internal/models"
)

// AnalyticsStore records and queries analytics events. It uses sqlx for
// struct mapping of the wide event rows.
type AnalyticsStore struct {
	db *sqlx.DB
}

// NewAnalyticsStore wraps db for analytics queries.
func NewAnalyticsStore(db *sql.DB) *AnalyticsStore {
	return &AnalyticsStore{db: sqlx.NewDb(db, "pgx")}
}

// Track inserts one event.
func (s *AnalyticsStore) Track(ctx context.Context, ev models.Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	if ev.Metadata == nil {
		ev.Metadata = models.Metadata{}
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO analytics (id, event_type, user_id, post_id, metadata, created_at)
		VALUES (:id, :event_type, :user_id, :post_id, :metadata, :created_at)
	`, ev)
	if err != nil {
		return fmt.Errorf("track event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit events created at or after since,
// newest first, with the acting user's name.
func (s *AnalyticsStore) RecentEvents(ctx context.Context, since time.Time, limit int) ([]models.Event, error) {
	events := []models.Event{}
	err := s.db.SelectContext(ctx, &events, `
		SELECT a.id, a.event_type, a.user_id, a.post_id, a.metadata, a.created_at, u.name AS user_name
		FROM analytics a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.created_at >= $1
		ORDER BY a.created_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

// Overview returns the admin dashboard counts in a single round trip.
func (s *AnalyticsStore) Overview(ctx context.Context) (models.Overview, error) {
	var o models.Overview
	err := s.db.GetContext(ctx, &o, `
		SELECT
			(SELECT COUNT(*) FROM users)                      AS users,
			(SELECT COUNT(*) FROM posts)                      AS posts,
			(SELECT COUNT(*) FROM posts WHERE NOT approved)   AS pending_posts,
			(SELECT COUNT(*) FROM analytics)                  AS events
	`)
	if err != nil {
		return o, fmt.Errorf("overview: %w", err)
	}
	return o, nil
}
