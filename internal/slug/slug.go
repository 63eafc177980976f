// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds the URL-friendly identifiers used in post share links.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps the title part of a slug.
const MaxLength = 60

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// fold strips combining marks so "Café" becomes "Cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Generate creates a URL-friendly slug from s. Accented Latin letters are
// folded to ASCII; every other run of non-alphanumerics becomes one hyphen.
// Example: "Café au lait, 2026!" → "cafe-au-lait-2026"
func Generate(s string) string {
	result := strings.ToLower(fold(strings.TrimSpace(s)))
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLength {
		result = result[:MaxLength]
		if i := strings.LastIndexByte(result, '-'); i > MaxLength/2 {
			result = result[:i]
		}
		result = strings.Trim(result, "-")
	}
	return result
}

// ForPost returns the slug of a post: the title slug followed by the first
// eight hex digits of the post ID, which keeps slugs unique across posts
// with the same title. Titles without any ASCII letters yield the ID part
// alone.
func ForPost(title string, id uuid.UUID) string {
	suffix := id.String()[:8]
	base := Generate(title)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
