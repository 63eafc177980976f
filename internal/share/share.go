// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package share builds social network share links for posts.
package share

import (
	"net/url"
	"strings"
)

// Link is one share target.
type Link struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

// PostURL joins the public base URL and a post slug.
func PostURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/posts/" + url.PathEscape(slug)
}

// Links returns share URLs for the given page. The order is stable so
// clients can render buttons without sorting.
func Links(title, pageURL, description string) []Link {
	q := url.QueryEscape
	text := title
	if description != "" {
		text = title + " - " + description
	}
	return []Link{
		{Network: "facebook", URL: "https://www.facebook.com/sharer/sharer.php?u=" + q(pageURL)},
		{Network: "twitter", URL: "https://twitter.com/intent/tweet?url=" + q(pageURL) + "&text=" + q(title)},
		{Network: "linkedin", URL: "https://www.linkedin.com/sharing/share-offsite/?url=" + q(pageURL)},
		{Network: "whatsapp", URL: "https://wa.me/?text=" + q(title+" "+pageURL)},
		{Network: "email", URL: "mailto:?subject=" + mailEscape(title) + "&body=" + mailEscape(text+"\n\n"+pageURL)},
		{Network: "copy", URL: pageURL},
	}
}

// mailEscape encodes s for a mailto query. Mail clients expect %20 rather
// than '+' for spaces.
func mailEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
