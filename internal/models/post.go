// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostState is the lifecycle state of a post. It is derived from the
// approved flag and never stored on its own.
type PostState string

const (
	PostStateDraft   PostState = "draft"
	PostStatePending PostState = "pending"
	PostStateLive    PostState = "live"
	PostStateDeleted PostState = "deleted"
)

// ReactionKind identifies one of the three reaction counters on a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionSmile ReactionKind = "smile"
)

// Valid reports whether k is a known reaction kind.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionSmile:
		return true
	}
	return false
}

// Reactions holds the per-kind reaction counters of a post.
type Reactions struct {
	Likes  int `json:"likes"`
	Loves  int `json:"loves"`
	Smiles int `json:"smiles"`
}

// Add returns a copy of r with the counter for kind incremented by one.
// Unknown kinds leave the counters unchanged.
func (r Reactions) Add(kind ReactionKind) Reactions {
	switch kind {
	case ReactionLike:
		r.Likes++
	case ReactionLove:
		r.Loves++
	case ReactionSmile:
		r.Smiles++
	}
	return r
}

// Total returns the sum of all counters.
func (r Reactions) Total() int {
	return r.Likes + r.Loves + r.Smiles
}

// Post is a member-authored blog article.
type Post struct {
	ID         uuid.UUID `json:"id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	Approved   bool      `json:"approved"`
	Reactions  Reactions `json:"reactions"`
	Comments   []Comment `json:"comments"`
	Image      *string   `json:"image,omitempty"`
	CreatedAt  time.Time `json:"date"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// State derives the lifecycle state. A post without an ID has not been
// submitted yet.
func (p *Post) State() PostState {
	switch {
	case p.ID == uuid.Nil:
		return PostStateDraft
	case p.Approved:
		return PostStateLive
	default:
		return PostStatePending
	}
}

// Clone returns a deep copy so callers can derive a new post value
// without sharing tag or comment slices.
func (p Post) Clone() Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Comments != nil {
		p.Comments = append([]Comment(nil), p.Comments...)
	}
	if p.Image != nil {
		img := *p.Image
		p.Image = &img
	}
	return p
}

// HasTag reports whether the post carries the given tag.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Comment is a reader's reply attached to a post.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"date"`
}

// PostDraft carries the author-supplied fields of a new post.
type PostDraft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Image   *string  `json:"image,omitempty"`
}

// PostChanges describes a partial edit. Nil fields are left unchanged.
// An Image pointing at an empty string removes the image.
type PostChanges struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Image    *string   `json:"image,omitempty"`
	Approved *bool     `json:"approved,omitempty"`
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
