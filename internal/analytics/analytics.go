// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package analytics builds the admin dashboard summaries from the
// recorded event stream.
package analytics

import (
	"context"
	"fmt"
	"time"

	"cognitio/internal/models"
)

const (
	// SampleSize is how many recent events feed the per-type counts.
	SampleSize = 100
	// RecentSize is how many events the summary lists.
	RecentSize = 20
)

// Ranges maps the accepted range parameters to their durations.
var Ranges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// DefaultRange is used when the caller omits one.
const DefaultRange = "7d"

// ParseRange validates a range parameter. Empty selects DefaultRange.
func ParseRange(s string) (string, time.Duration, error) {
	if s == "" {
		s = DefaultRange
	}
	d, ok := Ranges[s]
	if !ok {
		return "", 0, fmt.Errorf("unknown range %q (want 7d, 30d or 90d)", s)
	}
	return s, d, nil
}

// Source reads the event stream.
type Source interface {
	RecentEvents(ctx context.Context, since time.Time, limit int) ([]models.Event, error)
	Overview(ctx context.Context) (models.Overview, error)
}

// TypeCount is one row of the per-type breakdown.
type TypeCount struct {
	Type  models.EventType `json:"event_type"`
	Count int              `json:"count"`
}

// Summary is the analytics dashboard payload.
type Summary struct {
	Range  string         `json:"range"`
	Since  time.Time      `json:"since"`
	Counts []TypeCount    `json:"counts"`
	Recent []models.Event `json:"recent"`
}

// Summarize counts the most recent SampleSize events in the range by type
// and lists the newest RecentSize of them. Counts are ordered by the
// first appearance of each type, newest first.
func Summarize(ctx context.Context, src Source, rng string, now time.Time) (*Summary, error) {
	name, d, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}
	since := now.Add(-d)
	events, err := src.RecentEvents(ctx, since, SampleSize)
	if err != nil {
		return nil, fmt.Errorf("summarize analytics: %w", err)
	}

	counts := []TypeCount{}
	index := map[models.EventType]int{}
	for _, ev := range events {
		i, ok := index[ev.Type]
		if !ok {
			i = len(counts)
			index[ev.Type] = i
			counts = append(counts, TypeCount{Type: ev.Type})
		}
		counts[i].Count++
	}

	recent := events
	if len(recent) > RecentSize {
		recent = recent[:RecentSize]
	}
	return &Summary{Range: name, Since: since, Counts: counts, Recent: recent}, nil
}
