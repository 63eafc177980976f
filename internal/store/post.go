// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cognitio/internal/models"
)

// PostStore handles posts and their comments.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postSelect = `
	SELECT p.id, p.author_id, COALESCE(u.name, ''), p.title, p.slug, p.content, p.tags,
	       p.approved, p.likes, p.loves, p.smiles, p.image, p.created_at, p.updated_at
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var tags stringList
	if err := row.Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Slug, &p.Content, &tags,
		&p.Approved, &p.Reactions.Likes, &p.Reactions.Loves, &p.Reactions.Smiles,
		&p.Image, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Tags = tags
	p.Comments = []models.Comment{}
	return p, nil
}

// ListPosts returns every post, newest first, with comments attached.
func (s *PostStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		index[p.ID] = len(posts)
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comments, err := s.comments(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	return posts, nil
}

// FindPost retrieves a post with its comments. Returns nil if not found.
func (s *PostStore) FindPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	comments, err := s.comments(ctx, "WHERE c.post_id = $1", id)
	if err != nil {
		return nil, err
	}
	p.Comments = append(p.Comments, comments...)
	return p, nil
}

// comments loads comments in creation order, optionally filtered.
func (s *PostStore) comments(ctx context.Context, where string, args ...any) ([]models.Comment, error) {
	q := `
		SELECT c.id, c.post_id, c.author_id, COALESCE(u.name, ''), c.content, c.created_at
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		` + where + `
		ORDER BY c.created_at ASC, c.id ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreatePost inserts a post. The ID and slug are chosen by the caller.
func (s *PostStore) CreatePost(ctx context.Context, p *models.Post) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, slug, content, tags, approved, likes, loves, smiles, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.AuthorID, p.Title, p.Slug, p.Content, stringList(p.Tags), p.Approved,
		p.Reactions.Likes, p.Reactions.Loves, p.Reactions.Smiles, p.Image, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// UpdatePost writes the editable fields and the approval flag. Reaction
// counters and comments are stored separately and left untouched.
func (s *PostStore) UpdatePost(ctx context.Context, p *models.Post) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts
		SET title = $1, slug = $2, content = $3, tags = $4, approved = $5, image = $6, updated_at = $7
		WHERE id = $8
	`, p.Title, p.Slug, p.Content, stringList(p.Tags), p.Approved, p.Image, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return expectOne(res, ErrPostNotFound)
}

// DeletePost removes a post. Comments are removed by ON DELETE CASCADE.
func (s *PostStore) DeletePost(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectOne(res, ErrPostNotFound)
}

// SaveReactions overwrites the reaction counters of a post.
func (s *PostStore) SaveReactions(ctx context.Context, id uuid.UUID, r models.Reactions) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET likes = $1, loves = $2, smiles = $3 WHERE id = $4
	`, r.Likes, r.Loves, r.Smiles, id)
	if err != nil {
		return fmt.Errorf("save reactions: %w", err)
	}
	return expectOne(res, ErrPostNotFound)
}

// AddComment inserts a comment. A missing post yields ErrPostNotFound.
func (s *PostStore) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.PostID, c.AuthorID, c.Content, c.CreatedAt)
	if isForeignKeyViolation(err, "comments_post_id_fkey") {
		return ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}
