// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"cognitio/internal/models"
)

// Input limits.
const (
	MaxTitleLength   = 300
	MaxContentLength = 100_000
	MaxTags          = 20
	MaxTagLength     = 50
	MaxCommentLength = 2000
	MaxImageLength   = 5 << 20
)

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title", "must be at most %d characters", MaxTitleLength)
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return invalid("content", "is required")
	}
	if len(content) > MaxContentLength {
		return invalid("content", "must be at most %d bytes", MaxContentLength)
	}
	return nil
}

func validateTags(tags []string) error {
	tags = models.NormalizeTags(tags)
	if len(tags) > MaxTags {
		return invalid("tags", "at most %d tags are allowed", MaxTags)
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return invalid("tags", "tag %q is longer than %d characters", t, MaxTagLength)
		}
	}
	return nil
}

// validateImage accepts empty values, http(s) URLs and image data URIs.
func validateImage(img string) error {
	if img == "" {
		return nil
	}
	if len(img) > MaxImageLength {
		return invalid("image", "is too large")
	}
	if strings.HasPrefix(img, "data:image/") {
		return nil
	}
	u, err := url.Parse(img)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("image", "must be an http(s) URL or an image data URI")
	}
	return nil
}

func validateDraft(d models.PostDraft) error {
	if err := validateTitle(d.Title); err != nil {
		return err
	}
	if err := validateContent(d.Content); err != nil {
		return err
	}
	if err := validateTags(d.Tags); err != nil {
		return err
	}
	if d.Image != nil {
		return validateImage(*d.Image)
	}
	return nil
}

func validateChanges(c models.PostChanges) error {
	if c.Title != nil {
		if err := validateTitle(*c.Title); err != nil {
			return err
		}
	}
	if c.Content != nil {
		if err := validateContent(*c.Content); err != nil {
			return err
		}
	}
	if c.Tags != nil {
		if err := validateTags(*c.Tags); err != nil {
			return err
		}
	}
	if c.Image != nil {
		return validateImage(*c.Image)
	}
	return nil
}

func validateComment(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return invalid("content", "comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return invalid("content", "comment must be at most %d characters", MaxCommentLength)
	}
	return nil
}

func validateReaction(kind models.ReactionKind) error {
	if !kind.Valid() {
		return invalid("reaction", "unknown reaction %q", kind)
	}
	return nil
}
