// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package policy

import (
	"time"

	"cognitio/internal/models"
)

// Submit turns a draft into a new post owned by author. Posts written by
// the admin go live immediately; everything else waits for approval.
// The returned post has no ID yet.
func (p Policy) Submit(author *models.User, draft models.PostDraft, now time.Time) (models.Post, error) {
	if author == nil {
		return models.Post{}, ErrAccessDenied
	}
	post := models.Post{
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Title:      draft.Title,
		Content:    draft.Content,
		Tags:       models.NormalizeTags(draft.Tags),
		Approved:   p.IsAdmin(author),
		Comments:   []models.Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if draft.Image != nil && *draft.Image != "" {
		img := *draft.Image
		post.Image = &img
	}
	return post, nil
}

// Approve makes a pending post live. Approving a live post is a no-op.
func (p Policy) Approve(actor *models.User, post models.Post) (models.Post, error) {
	if !p.CanApprovePost(actor) {
		return post, ErrAccessDenied
	}
	post = post.Clone()
	post.Approved = true
	return post, nil
}

// Reject hides a post from the public by clearing its approval. The post
// is kept; only the author and the admin can still see it.
func (p Policy) Reject(actor *models.User, post models.Post) (models.Post, error) {
	if !p.CanApprovePost(actor) {
		return post, ErrAccessDenied
	}
	post = post.Clone()
	post.Approved = false
	return post, nil
}

// Edit applies changes to post on behalf of actor. Editing never changes
// the approval state unless the admin sets it explicitly.
func (p Policy) Edit(actor *models.User, post models.Post, changes models.PostChanges, now time.Time) (models.Post, error) {
	if !p.CanEditPost(actor, &post) {
		return post, ErrAccessDenied
	}
	if changes.Approved != nil && *changes.Approved != post.Approved && !p.IsAdmin(actor) {
		return post, ErrAccessDenied
	}

	post = post.Clone()
	if changes.Title != nil {
		post.Title = *changes.Title
	}
	if changes.Content != nil {
		post.Content = *changes.Content
	}
	if changes.Tags != nil {
		post.Tags = models.NormalizeTags(*changes.Tags)
	}
	if changes.Image != nil {
		if *changes.Image == "" {
			post.Image = nil
		} else {
			img := *changes.Image
			post.Image = &img
		}
	}
	if changes.Approved != nil {
		post.Approved = *changes.Approved
	}
	post.UpdatedAt = now
	return post, nil
}

// Delete checks whether actor may remove post.
func (p Policy) Delete(actor *models.User, post models.Post) error {
	if !p.CanDeletePost(actor, &post) {
		return ErrAccessDenied
	}
	return nil
}
