// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package policy holds the authorization rules of the blog. Every function
// is pure: it inspects the values it is given and never touches storage,
// sessions or the network.
package policy

import (
	"errors"

	"cognitio/internal/models"
)

// DefaultAdminEmail is the only address that can hold admin rights when no
// other address is configured.
const DefaultAdminEmail = "hello@cognitioplus.com"

// ErrAccessDenied is returned when an actor attempts an operation the
// rules do not allow.
var ErrAccessDenied = errors.New("access denied")

// Policy evaluates authorization decisions against a configured admin
// address. The zero value is not usable; create one with New.
type Policy struct {
	adminEmail string
}

// New returns a Policy for the given admin email. An empty address falls
// back to DefaultAdminEmail.
func New(adminEmail string) Policy {
	adminEmail = models.NormalizeEmail(adminEmail)
	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}
	return Policy{adminEmail: adminEmail}
}

// AdminEmail returns the normalized admin address.
func (p Policy) AdminEmail() string {
	return p.adminEmail
}

// IsAdmin requires both the admin flag and the configured email. Either
// condition alone is not enough.
func (p Policy) IsAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin && u.Email == p.adminEmail
}

// CanEditPost allows the author and the admin.
func (p Policy) CanEditPost(u *models.User, post *models.Post) bool {
	if u == nil || post == nil {
		return false
	}
	return post.AuthorID == u.ID || p.IsAdmin(u)
}

// CanDeletePost allows the author and the admin.
func (p Policy) CanDeletePost(u *models.User, post *models.Post) bool {
	if u == nil || post == nil {
		return false
	}
	return post.AuthorID == u.ID || p.IsAdmin(u)
}

// CanApprovePost reports whether u may approve or reject posts.
func (p Policy) CanApprovePost(u *models.User) bool {
	return p.IsAdmin(u)
}

// CanModerate reports whether u may see the moderation queue and the
// admin dashboard.
func (p Policy) CanModerate(u *models.User) bool {
	return p.IsAdmin(u)
}

// CanChangeEmail reports whether u may change their own email address.
// The admin address is fixed so admin rights cannot be lost or moved.
func (p Policy) CanChangeEmail(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.Email != p.adminEmail
}

// CanViewPost reports whether viewer may see post. Live posts are public;
// pending posts are visible to their author and the admin.
func (p Policy) CanViewPost(viewer *models.User, post *models.Post) bool {
	if post == nil {
		return false
	}
	if post.Approved {
		return true
	}
	if viewer == nil {
		return false
	}
	return post.AuthorID == viewer.ID || p.IsAdmin(viewer)
}

// VisiblePosts filters posts down to what viewer may see, preserving order.
// A nil viewer is an anonymous visitor.
func (p Policy) VisiblePosts(viewer *models.User, posts []models.Post) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		if p.CanViewPost(viewer, &posts[i]) {
			out = append(out, posts[i])
		}
	}
	return out
}
