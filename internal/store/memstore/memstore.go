// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memstore is an in-memory implementation of the storage
// interfaces. It backs the service tests and STORAGE=memory development
// mode. Data is lost when the process exits.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cognitio/internal/models"
	"cognitio/internal/store"
)

// Store holds users, posts and analytics events behind one mutex. Every
// value is copied on the way in and out so callers never share memory
// with the store.
type Store struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]models.User
	posts  map[uuid.UUID]models.Post
	order  []uuid.UUID
	events []models.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: make(map[uuid.UUID]models.User),
		posts: make(map[uuid.UUID]models.Post),
	}
}

func cloneUser(u models.User) models.User {
	u.Badges = slices.Clone(u.Badges)
	if u.TOTPSecret != nil {
		secret := *u.TOTPSecret
		u.TOTPSecret = &secret
	}
	return u
}

// --- Users ---

// CreateUser stores a new member with a bcrypt-hashed password.
func (s *Store) CreateUser(_ context.Context, name, email, password string, isAdmin bool, badges []string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, store.ErrEmailTaken
		}
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		Badges:       slices.Clone(badges),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	s.users[u.ID] = u
	out := cloneUser(u)
	return &out, nil
}

// FindUser returns the user with id, or nil if absent.
func (s *Store) FindUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := cloneUser(u)
	return &out, nil
}

// FindByEmail returns the user with email, or nil if absent.
func (s *Store) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CheckPassword verifies password against the stored hash.
func (s *Store) CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (s *Store) updateUser(id uuid.UUID, fn func(u *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// SaveRewards overwrites the points and badges of a user.
func (s *Store) SaveRewards(_ context.Context, id uuid.UUID, points int, badges []string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Points = points
		u.Badges = slices.Clone(badges)
		return nil
	})
}

// UpdateProfile changes the display name and email of a user.
func (s *Store) UpdateProfile(_ context.Context, id uuid.UUID, name, email string) error {
	email = models.NormalizeEmail(email)
	return s.updateUser(id, func(u *models.User) error {
		for _, other := range s.users {
			if other.Email == email && other.ID != id {
				return store.ErrEmailTaken
			}
		}
		u.Name = name
		u.Email = email
		return nil
	})
}

// SetTOTPSecret stores a pending TOTP secret.
func (s *Store) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.TOTPSecret = &secret
		return nil
	})
}

// EnableTOTP marks two-factor authentication as active.
func (s *Store) EnableTOTP(_ context.Context, id uuid.UUID) error {
	return s.updateUser(id, func(u *models.User) error {
		u.TOTPEnabled = true
		return nil
	})
}

// --- Posts ---

// ListPosts returns every post, newest first, with author names resolved.
func (s *Store) ListPosts(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.withAuthor(s.posts[s.order[i]]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// withAuthor returns a deep copy of p with current author and commenter
// names. Callers must hold the lock.
func (s *Store) withAuthor(p models.Post) models.Post {
	p = p.Clone()
	if u, ok := s.users[p.AuthorID]; ok {
		p.AuthorName = u.Name
	}
	for i := range p.Comments {
		if u, ok := s.users[p.Comments[i].AuthorID]; ok {
			p.Comments[i].AuthorName = u.Name
		}
	}
	return p
}

// FindPost returns the post with id, or nil if absent.
func (s *Store) FindPost(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	out := s.withAuthor(p)
	return &out, nil
}

// CreatePost inserts post. The ID must already be set.
func (s *Store) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := post.Clone()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	s.posts[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

// UpdatePost overwrites the editable fields of a post. Reactions and
// comments are left as stored.
func (s *Store) UpdatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.posts[post.ID]
	if !ok {
		return store.ErrPostNotFound
	}
	p := post.Clone()
	p.Reactions = cur.Reactions
	p.Comments = cur.Comments
	p.CreatedAt = cur.CreatedAt
	s.posts[p.ID] = p
	return nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrPostNotFound
	}
	delete(s.posts, id)
	s.order = slices.DeleteFunc(s.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

// SaveReactions overwrites the reaction counters of a post.
func (s *Store) SaveReactions(_ context.Context, id uuid.UUID, r models.Reactions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return store.ErrPostNotFound
	}
	p.Reactions = r
	s.posts[id] = p
	return nil
}

// AddComment appends c to its post.
func (s *Store) AddComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[c.PostID]
	if !ok {
		return store.ErrPostNotFound
	}
	p.Comments = append(slices.Clone(p.Comments), *c)
	s.posts[c.PostID] = p
	return nil
}

// --- Analytics ---

// Track records ev.
func (s *Store) Track(_ context.Context, ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return nil
}

// RecentEvents returns up to limit events created at or after since,
// newest first, with user names resolved.
func (s *Store) RecentEvents(_ context.Context, since time.Time, limit int) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := s.events[i]
		if ev.CreatedAt.Before(since) {
			continue
		}
		if ev.UserID != nil {
			if u, ok := s.users[*ev.UserID]; ok {
				name := u.Name
				ev.UserName = &name
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

// Overview returns the admin dashboard counts.
func (s *Store) Overview(_ context.Context) (models.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o := models.Overview{
		Users:  len(s.users),
		Posts:  len(s.posts),
		Events: len(s.events),
	}
	for _, p := range s.posts {
		if !p.Approved {
			o.PendingPosts++
		}
	}
	return o, nil
}
