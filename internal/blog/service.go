// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blog is the application layer of the blog. Service holds the
// collaborators (storage, notifications, analytics) and runs every
// operation through the pure rules in the policy and rewards packages.
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cognitio/internal/markdown"
	"cognitio/internal/models"
	"cognitio/internal/moderation"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
	"cognitio/internal/rewards"
	"cognitio/internal/share"
	"cognitio/internal/slug"
)

// PostRepository persists posts and their comments. Find methods return
// nil, nil when the post does not exist. Concurrent writes to the same
// post are last-write-wins.
type PostRepository interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	FindPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	SaveReactions(ctx context.Context, id uuid.UUID, r models.Reactions) error
	AddComment(ctx context.Context, c *models.Comment) error
}

// UserRepository persists reward state.
type UserRepository interface {
	SaveRewards(ctx context.Context, id uuid.UUID, points int, badges []string) error
}

// Tracker records analytics events.
type Tracker interface {
	Track(ctx context.Context, ev models.Event) error
}

// FeedCache stores the anonymous feed between mutations. GetFeed reports
// the generation it read at; SetFeed must store under that generation so a
// feed loaded before an InvalidateFeed is never served afterwards.
type FeedCache interface {
	GetFeed(ctx context.Context) (posts []models.Post, gen int64, ok bool)
	SetFeed(ctx context.Context, gen int64, posts []models.Post)
	InvalidateFeed(ctx context.Context)
}

// ShareResult carries the canonical URL of a post and its share links.
type ShareResult struct {
	URL     string       `json:"url"`
	Excerpt string       `json:"excerpt"`
	Links   []share.Link `json:"links"`
}

// Service is the explicit application state of the blog. It is safe for
// concurrent use as long as its collaborators are.
type Service struct {
	policy   policy.Policy
	posts    PostRepository
	users    UserRepository
	notifier notify.Notifier
	tracker  Tracker
	feed     FeedCache
	screener moderation.Screener
	baseURL  string
	now      func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

// WithFeedCache caches the anonymous feed.
func WithFeedCache(c FeedCache) Option { return func(s *Service) { s.feed = c } }

// WithScreener pre-screens pending posts before admins review them.
func WithScreener(sc moderation.Screener) Option { return func(s *Service) { s.screener = sc } }

// WithTracker records analytics events.
func WithTracker(t Tracker) Option { return func(s *Service) { s.tracker = t } }

// WithBaseURL sets the public site URL used in share links.
func WithBaseURL(u string) Option { return func(s *Service) { s.baseURL = u } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService wires a Service. A nil notifier discards notifications.
func NewService(p policy.Policy, posts PostRepository, users UserRepository, n notify.Notifier, opts ...Option) *Service {
	if n == nil {
		n = notify.Discard
	}
	s := &Service{
		policy:   p,
		posts:    posts,
		users:    users,
		notifier: n,
		baseURL:  "http://localhost:8080",
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the authorization policy the service enforces.
func (s *Service) Policy() policy.Policy {
	return s.policy
}

// ListPosts returns the posts viewer may see, newest first, narrowed by q.
func (s *Service) ListPosts(ctx context.Context, viewer *models.User, q Query) ([]models.Post, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return Filter(visible, q), nil
}

// Tags returns the distinct tags across the posts viewer may see.
func (s *Service) Tags(ctx context.Context, viewer *models.User) ([]string, error) {
	visible, err := s.visible(ctx, viewer)
	if err != nil {
		return nil, err
	}
	return Tags(visible), nil
}

func (s *Service) visible(ctx context.Context, viewer *models.User) ([]models.Post, error) {
	cacheable := viewer == nil && s.feed != nil
	var gen int64
	if cacheable {
		cached, g, ok := s.feed.GetFeed(ctx)
		if ok {
			return cached, nil
		}
		gen = g
	}
	all, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, persistence("list posts", err)
	}
	visible := s.policy.VisiblePosts(viewer, all)
	if cacheable {
		s.feed.SetFeed(ctx, gen, visible)
	}
	return visible, nil
}

// GetPost returns a single post. Posts the viewer may not see are
// reported as ErrNotFound.
func (s *Service) GetPost(ctx context.Context, viewer *models.User, id uuid.UUID) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewPost(viewer, post) {
		return nil, ErrNotFound
	}
	return post, nil
}

// CreatePost submits a new post by actor. Admin posts go live at once;
// others are queued for review and announced to the admin.
func (s *Service) CreatePost(ctx context.Context, actor *models.User, draft models.PostDraft) (*models.Post, *rewards.Award, error) {
	if err := validateDraft(draft); err != nil {
		return nil, nil, err
	}
	post, err := s.policy.Submit(actor, draft, s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("create post: %w", err)
	}
	post.ID = uuid.New()
	post.Slug = slug.ForPost(post.Title, post.ID)

	if err := s.posts.CreatePost(ctx, &post); err != nil {
		return nil, nil, persistence("create post", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostCreated, &actor.ID, &post.ID, models.Metadata{
		"title":    post.Title,
		"approved": post.Approved,
	})

	if post.Approved {
		s.notifyUser(ctx, actor.ID, notify.KindPostCreated, &post.ID, "Post published", "Your post is live.")
	} else {
		s.notifyUser(ctx, actor.ID, notify.KindPostPending, &post.ID, "Post submitted", "Your post is pending admin approval.")
		s.announcePending(ctx, &post)
	}

	award := s.award(ctx, actor, rewards.ActionCreatePost, &post.ID)
	return &post, award, nil
}

// announcePending tells admins about a post waiting for review, attaching
// moderation categories when a screener is configured.
func (s *Service) announcePending(ctx context.Context, post *models.Post) {
	ev := notify.ToAdmins(notify.KindPostPending, "New post pending review",
		fmt.Sprintf("%q by %s is waiting for approval.", post.Title, post.AuthorName))
	ev.PostID = &post.ID

	if s.screener != nil {
		sctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		res, err := s.screener.Screen(sctx, post.Title+"\n\n"+post.Content)
		cancel()
		switch {
		case err != nil:
			slog.Warn("moderation pre-screen failed", "post_id", post.ID, "error", err)
		case res.Flagged:
			ev.Categories = res.Categories
			ev.Message += " Moderation flagged it for review."
		}
	}
	s.notifier.Notify(ctx, ev)
}

// UpdatePost applies changes on behalf of actor.
func (s *Service) UpdatePost(ctx context.Context, actor *models.User, id uuid.UUID, changes models.PostChanges) (*models.Post, error) {
	if err := validateChanges(changes); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	edited, err := s.policy.Edit(actor, *post, changes, s.now())
	if err != nil {
		msg := "You can only edit your own posts."
		if s.policy.CanEditPost(actor, post) {
			msg = "Only admins can change the approval of a post."
		}
		return nil, s.denied(ctx, actor, "update post", msg)
	}
	if edited.Title != post.Title {
		edited.Slug = slug.ForPost(edited.Title, edited.ID)
	}

	if err := s.posts.UpdatePost(ctx, &edited); err != nil {
		return nil, persistence("update post", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostSaved, &actor.ID, &edited.ID, models.Metadata{"title": edited.Title})
	s.notifyUser(ctx, actor.ID, notify.KindPostUpdated, &edited.ID, "Post saved", "Your changes were saved.")
	return &edited, nil
}

// DeletePost removes a post and its comments permanently.
func (s *Service) DeletePost(ctx context.Context, actor *models.User, id uuid.UUID) error {
	post, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Delete(actor, *post); err != nil {
		return s.denied(ctx, actor, "delete post", "You can only delete your own posts.")
	}

	if err := s.posts.DeletePost(ctx, id); err != nil {
		return persistence("delete post", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostDeleted, &actor.ID, &post.ID, models.Metadata{"title": post.Title})
	s.notifyUser(ctx, actor.ID, notify.KindPostDeleted, &post.ID, "Post deleted", fmt.Sprintf("%q was deleted.", post.Title))
	if post.AuthorID != actor.ID {
		s.notifyUser(ctx, post.AuthorID, notify.KindPostDeleted, &post.ID, "Post removed",
			fmt.Sprintf("Your post %q was removed by an admin.", post.Title))
	}
	return nil
}

// ApprovePost makes a post live. Only the admin may approve. Approving a
// live post changes nothing and notifies no one.
func (s *Service) ApprovePost(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	approved, err := s.policy.Approve(actor, *post)
	if err != nil {
		return nil, s.denied(ctx, actor, "approve post", "Only admins can approve posts.")
	}
	if post.Approved {
		return post, nil
	}
	if err := s.posts.UpdatePost(ctx, &approved); err != nil {
		return nil, persistence("approve post", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostApproved, &actor.ID, &approved.ID, models.Metadata{"author_id": approved.AuthorID.String()})
	s.notifyUser(ctx, approved.AuthorID, notify.KindPostApproved, &approved.ID, "Post approved",
		fmt.Sprintf("Your post %q is now live.", approved.Title))
	return &approved, nil
}

// RejectPost hides a post from the public. The post stays available to
// its author and the admin.
func (s *Service) RejectPost(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rejected, err := s.policy.Reject(actor, *post)
	if err != nil {
		return nil, s.denied(ctx, actor, "reject post", "Only admins can reject posts.")
	}
	if err := s.posts.UpdatePost(ctx, &rejected); err != nil {
		return nil, persistence("reject post", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostRejected, &actor.ID, &rejected.ID, models.Metadata{"author_id": rejected.AuthorID.String()})
	s.notifyUser(ctx, rejected.AuthorID, notify.KindPostRejected, &rejected.ID, "Post rejected",
		fmt.Sprintf("Your post %q was not approved and is hidden from readers.", rejected.Title))
	return &rejected, nil
}

// React adds one reaction of kind to a visible post.
func (s *Service) React(ctx context.Context, actor *models.User, id uuid.UUID, kind models.ReactionKind) (models.Reactions, *rewards.Award, error) {
	if err := validateReaction(kind); err != nil {
		return models.Reactions{}, nil, err
	}
	if actor == nil {
		return models.Reactions{}, nil, fmt.Errorf("react: %w", policy.ErrAccessDenied)
	}
	post, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return models.Reactions{}, nil, err
	}

	reactions := post.Reactions.Add(kind)
	if err := s.posts.SaveReactions(ctx, id, reactions); err != nil {
		return models.Reactions{}, nil, persistence("save reactions", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventPostReaction, &actor.ID, &id, models.Metadata{"reaction": string(kind)})

	award := s.award(ctx, actor, rewards.ActionReact, &id)
	return reactions, award, nil
}

// AddComment appends a comment by actor to a visible post.
func (s *Service) AddComment(ctx context.Context, actor *models.User, id uuid.UUID, content string) (*models.Comment, *rewards.Award, error) {
	if err := validateComment(content); err != nil {
		return nil, nil, err
	}
	if actor == nil {
		return nil, nil, fmt.Errorf("add comment: %w", policy.ErrAccessDenied)
	}
	post, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	c := models.Comment{
		ID:         uuid.New(),
		PostID:     post.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := s.posts.AddComment(ctx, &c); err != nil {
		return nil, nil, persistence("add comment", err)
	}
	s.invalidateFeed(ctx)
	s.track(ctx, models.EventCommentAdded, &actor.ID, &post.ID, models.Metadata{"comment_id": c.ID.String()})
	if post.AuthorID != actor.ID {
		s.notifyUser(ctx, post.AuthorID, notify.KindCommentAdded, &post.ID, "New comment",
			fmt.Sprintf("%s commented on %q.", actor.Name, post.Title))
	}

	award := s.award(ctx, actor, rewards.ActionComment, &post.ID)
	return &c, award, nil
}

// SharePost returns share links for a visible post. Anonymous visitors
// may share; only members earn points for it.
func (s *Service) SharePost(ctx context.Context, actor *models.User, id uuid.UUID) (*ShareResult, *rewards.Award, error) {
	post, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	pageURL := share.PostURL(s.baseURL, post.Slug)
	excerpt := markdown.Excerpt(post.Content, markdown.ExcerptLength)
	res := &ShareResult{
		URL:     pageURL,
		Excerpt: excerpt,
		Links:   share.Links(post.Title, pageURL, excerpt),
	}

	var userID *uuid.UUID
	if actor != nil {
		userID = &actor.ID
	}
	s.track(ctx, models.EventPostShared, userID, &post.ID, nil)

	if actor == nil {
		return res, nil, nil
	}
	return res, s.award(ctx, actor, rewards.ActionShare, &post.ID), nil
}

// load fetches a post without any visibility check.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.FindPost(ctx, id)
	if err != nil {
		return nil, persistence("load post", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// award grants the points for action to actor and persists them. actor is
// updated in place. A failed write is logged and yields no award; the
// operation that earned the points has already been stored.
func (s *Service) award(ctx context.Context, actor *models.User, action rewards.Action, postID *uuid.UUID) *rewards.Award {
	updated, award, err := rewards.Apply(*actor, action)
	if err != nil {
		slog.Error("apply reward", "action", action, "error", err)
		return nil
	}
	if err := s.users.SaveRewards(ctx, actor.ID, updated.Points, updated.Badges); err != nil {
		slog.Error("save rewards", "user_id", actor.ID, "action", action, "error", err)
		return nil
	}
	*actor = updated

	ev := notify.ToUser(actor.ID, notify.KindPointsEarned, "Points earned", award.Message())
	ev.PostID = postID
	ev.Points = award.Points
	s.notifier.Notify(ctx, ev)

	if award.Badge != "" {
		ev := notify.ToUser(actor.ID, notify.KindBadgeUnlocked, "Badge unlocked",
			fmt.Sprintf("You earned the %s badge!", award.Badge))
		ev.Badge = award.Badge
		s.notifier.Notify(ctx, ev)
	}
	if award.LeveledUp() {
		s.notifyUser(ctx, actor.ID, notify.KindLevelUp, nil, "Level up",
			fmt.Sprintf("You reached level %d!", award.NewLevel))
	}

	s.track(ctx, models.EventPointsAwarded, &actor.ID, postID, models.Metadata{
		"action": string(action),
		"points": award.Points,
		"total":  award.NewPoints,
		"badge":  award.Badge,
	})
	return &award
}

// denied notifies actor about a refused operation and returns the
// wrapped ErrAccessDenied.
func (s *Service) denied(ctx context.Context, actor *models.User, op, message string) error {
	if actor != nil {
		s.notifyUser(ctx, actor.ID, notify.KindAccessDenied, nil, "Access denied", message)
	}
	return fmt.Errorf("%s: %w", op, policy.ErrAccessDenied)
}

func (s *Service) notifyUser(ctx context.Context, to uuid.UUID, kind notify.Kind, postID *uuid.UUID, title, message string) {
	ev := notify.ToUser(to, kind, title, message)
	ev.PostID = postID
	s.notifier.Notify(ctx, ev)
}

// track records an analytics event. Failures are logged and never fail
// the operation being tracked.
func (s *Service) track(ctx context.Context, typ models.EventType, userID, postID *uuid.UUID, meta models.Metadata) {
	if s.tracker == nil {
		return
	}
	if meta == nil {
		meta = models.Metadata{}
	}
	ev := models.Event{
		ID:        uuid.New(),
		Type:      typ,
		UserID:    userID,
		PostID:    postID,
		Metadata:  meta,
		CreatedAt: s.now(),
	}
	if err := s.tracker.Track(ctx, ev); err != nil {
		slog.Warn("track analytics event", "type", typ, "error", err)
	}
}

func (s *Service) invalidateFeed(ctx context.Context) {
	if s.feed != nil {
		s.feed.InvalidateFeed(ctx)
	}
}
