// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"strings"

	"cognitio/internal/models"
)

// Query narrows a post listing. Zero values match everything.
type Query struct {
	Search string
	Tag    string
}

// Filter keeps the posts matching q, preserving order. Search is a
// case-insensitive substring match on title, content and author name;
// Tag must match exactly.
func Filter(posts []models.Post, q Query) []models.Post {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	tag := strings.TrimSpace(q.Tag)

	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if tag != "" && !p.HasTag(tag) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Content), term) &&
			!strings.Contains(strings.ToLower(p.AuthorName), term) {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Tags returns the distinct tags of posts in first-seen order.
func Tags(posts []models.Post) []string {
	var all []string
	for _, p := range posts {
		all = append(all, p.Tags...)
	}
	return models.NormalizeTags(all)
}
