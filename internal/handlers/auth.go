// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"cognitio/internal/blog"
	"cognitio/internal/middleware"
	"cognitio/internal/models"
	"cognitio/internal/notify"
	"cognitio/internal/policy"
	"cognitio/internal/rewards"
	"cognitio/internal/session"
	"cognitio/internal/store"
	"cognitio/internal/token"
)

// totpIssuer is the account label shown in authenticator apps.
const totpIssuer = "Cognitio+"

// Accounts is the user storage the auth handlers need.
type Accounts interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, name, email, password string, isAdmin bool, badges []string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string) error
	SetTOTPSecret(ctx context.Context, id uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, id uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	users    Accounts
	sessions *session.Store
	tokens   *token.Issuer
	policy   policy.Policy
	tracker  blog.Tracker
	notifier notify.Notifier
}

// NewAuth creates a new Auth handler group. tracker may be nil.
func NewAuth(users Accounts, sessions *session.Store, tokens *token.Issuer, p policy.Policy, tracker blog.Tracker, n notify.Notifier) *Auth {
	if n == nil {
		n = notify.Discard
	}
	return &Auth{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		policy:   p,
		tracker:  tracker,
		notifier: n,
	}
}

// meView is the signed-in member's profile with derived reward state.
type meView struct {
	models.User
	Level          int  `json:"level"`
	NextLevelAt    int  `json:"next_level_at"`
	Admin          bool `json:"admin"`
	CanChangeEmail bool `json:"can_change_email"`
}

func (a *Auth) me(u *models.User) meView {
	level := rewards.Level(u.Points)
	return meView{
		User:           *u,
		Level:          level,
		NextLevelAt:    level * rewards.PointsPerLevel,
		Admin:          a.policy.IsAdmin(u),
		CanChangeEmail: a.policy.CanChangeEmail(u),
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a member, grants the starter badge and signs them in.
func (a *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)
	if msg := validateSignup(req.Name, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	// Self-registration never grants the admin flag.
	user, err := a.users.CreateUser(r.Context(), req.Name, req.Email, req.Password, false, rewards.InitialBadges())
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "An account with this email already exists.")
		return
	}
	if err != nil {
		slog.Error("signup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not create your account. Please try again.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		TwoFADone: true,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Your account was created but we could not sign you in.")
		return
	}

	a.track(r.Context(), models.EventUserRegistration, user.ID)
	a.notifier.Notify(r.Context(), notify.ToUser(user.ID, notify.KindBadgeUnlocked, "Welcome to Cognitio+",
		"You earned the "+rewards.BadgeNewMember+" badge!"))

	writeJSON(w, http.StatusCreated, a.me(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	TwoFactorRequired bool    `json:"two_factor_required"`
	User              *meView `json:"user,omitempty"`
}

// authenticate checks credentials. It writes the failure response itself.
func (a *Auth) authenticate(w http.ResponseWriter, r *http.Request, email, password string) *models.User {
	user, err := a.users.FindByEmail(r.Context(), models.NormalizeEmail(email))
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return nil
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return nil
	}
	return user
}

// Login starts a cookie session. Members with 2FA enabled get a session
// that only counts once /api/auth/2fa/verify succeeds.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user := a.authenticate(w, r, req.Email, req.Password)
	if user == nil {
		return
	}

	_, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		TwoFADone: !user.Needs2FA(),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not sign you in. Please try again.")
		return
	}

	if user.Needs2FA() {
		writeJSON(w, http.StatusOK, loginResponse{TwoFactorRequired: true})
		return
	}
	me := a.me(user)
	writeJSON(w, http.StatusOK, loginResponse{User: &me})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token issues a bearer token. Members with 2FA must include a code.
func (a *Auth) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user := a.authenticate(w, r, req.Email, req.Password)
	if user == nil {
		return
	}
	if user.Needs2FA() && (user.TOTPSecret == nil || !totp.Validate(req.Code, *user.TOTPSecret)) {
		writeError(w, http.StatusUnauthorized, "A valid two-factor code is required.")
		return
	}

	raw, exp, err := a.tokens.Issue(user.ID, user.Email)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not issue a token.")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: raw, ExpiresAt: exp})
}

// Logout destroys the session.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type twoFASetupResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
	QRCode string `json:"qr_code"` // base64 PNG
}

// TwoFASetup generates a TOTP secret for the signed-in member and returns
// it with a QR code. 2FA is enabled once a code is verified.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "Two-factor authentication is already enabled.")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start two-factor setup.")
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start two-factor setup.")
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start two-factor setup.")
		return
	}

	writeJSON(w, http.StatusOK, twoFASetupResponse{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(qrPNG),
	})
}

type codeRequest struct {
	Code string `json:"code"`
}

// TwoFAVerify checks a TOTP code. It completes a pending login, or
// enables 2FA after setup.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	var userID uuid.UUID
	if u := middleware.UserFromCtx(r.Context()); u != nil {
		userID = u.ID
	} else {
		userID = sess.UserID
	}

	user, err := a.users.FindUser(r.Context(), userID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusConflict, "Set up two-factor authentication first.")
		return
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid code. Please try again.")
		return
	}

	// First successful code after setup turns 2FA on.
	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Could not enable two-factor authentication.")
			return
		}
		user.TOTPEnabled = true
	}

	if sess != nil && !sess.TwoFADone {
		sess.TwoFADone = true
		if err := a.sessions.Update(r.Context(), r, sess); err != nil {
			slog.Error("session update failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Could not complete sign in.")
			return
		}
	}

	writeJSON(w, http.StatusOK, a.me(user))
}

// Me returns the signed-in member.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.me(middleware.UserFromCtx(r.Context())))
}

type profileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UpdateMe changes the member's name and email. The designated admin
// address cannot be changed.
func (a *Auth) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromCtx(r.Context())
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	name, email := user.Name, user.Email
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email = models.NormalizeEmail(*req.Email)
	}
	if msg := validateProfile(name, email); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if email != user.Email && !a.policy.CanChangeEmail(user) {
		writeError(w, http.StatusForbidden, "The administrator email address cannot be changed.")
		return
	}

	err := a.users.UpdateProfile(r.Context(), user.ID, name, email)
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "An account with this email already exists.")
		return
	}
	if err != nil {
		slog.Error("update profile failed", "error", err)
		writeError(w, http.StatusInternalServerError, "We could not save your changes. Please try again.")
		return
	}

	updated := *user
	updated.Name, updated.Email = name, email
	writeJSON(w, http.StatusOK, a.me(&updated))
}

func (a *Auth) track(ctx context.Context, typ models.EventType, userID uuid.UUID) {
	if a.tracker == nil {
		return
	}
	if err := a.tracker.Track(ctx, models.Event{
		ID:        uuid.New(),
		Type:      typ,
		UserID:    &userID,
		Metadata:  models.Metadata{},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Warn("track analytics event", "type", typ, "error", err)
	}
}
