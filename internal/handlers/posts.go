// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"cognitio/internal/blog"
	"cognitio/internal/markdown"
	"cognitio/internal/middleware"
	"cognitio/internal/models"
	"cognitio/internal/rewards"
)

// Posts groups the blog post handlers.
type Posts struct {
	svc *blog.Service
}

// NewPosts creates the post handler group.
func NewPosts(svc *blog.Service) *Posts {
	return &Posts{svc: svc}
}

// postView is a post with its rendered body.
type postView struct {
	models.Post
	ContentHTML string `json:"content_html"`
	Excerpt     string `json:"excerpt"`
}

func viewPost(p models.Post) postView {
	html, err := markdown.ToHTML(p.Content)
	if err != nil {
		slog.Warn("render post content", "post_id", p.ID, "error", err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return postView{
		Post:        p,
		ContentHTML: html,
		Excerpt:     markdown.Excerpt(p.Content, markdown.ExcerptLength),
	}
}

type postResponse struct {
	Post  postView       `json:"post"`
	Award *rewards.Award `json:"award,omitempty"`
}

// List returns the posts the caller may see, optionally narrowed by the
// q (search) and tag query parameters.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.UserFromCtx(r.Context())
	posts, err := h.svc.ListPosts(r.Context(), viewer, blog.Query{
		Search: r.URL.Query().Get("q"),
		Tag:    r.URL.Query().Get("tag"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	views := make([]postView, len(posts))
	for i, p := range posts {
		views[i] = viewPost(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": views})
}

// Tags returns the distinct tags of the posts the caller may see.
func (h *Posts) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context(), middleware.UserFromCtx(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Get returns one post.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.svc.GetPost(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: viewPost(*post)})
}

// Create submits a new post.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.PostDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	post, award, err := h.svc.CreatePost(r.Context(), middleware.UserFromCtx(r.Context()), draft)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, postResponse{Post: viewPost(*post), Award: award})
}

// Update edits a post.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var changes models.PostChanges
	if !decodeJSON(w, r, &changes) {
		return
	}
	post, err := h.svc.UpdatePost(r.Context(), middleware.UserFromCtx(r.Context()), id, changes)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: viewPost(*post)})
}

// Delete removes a post.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Approve makes a post live.
func (h *Posts) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.svc.ApprovePost(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: viewPost(*post)})
}

// Reject hides a post from readers.
func (h *Posts) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.svc.RejectPost(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: viewPost(*post)})
}

type reactRequest struct {
	Kind models.ReactionKind `json:"kind"`
}

type reactResponse struct {
	Reactions models.Reactions `json:"reactions"`
	Award     *rewards.Award   `json:"award,omitempty"`
}

// React adds a like, love or smile.
func (h *Posts) React(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reactions, award, err := h.svc.React(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reactResponse{Reactions: reactions, Award: award})
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	Comment *models.Comment `json:"comment"`
	Award   *rewards.Award  `json:"award,omitempty"`
}

// Comment appends a comment.
func (h *Posts) Comment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, award, err := h.svc.AddComment(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Content)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse{Comment: c, Award: award})
}

type shareResponse struct {
	*blog.ShareResult
	Award *rewards.Award `json:"award,omitempty"`
}

// Share returns the share links of a post and rewards members for sharing.
func (h *Posts) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, award, err := h.svc.SharePost(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{ShareResult: res, Award: award})
}
