// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package token issues and verifies the HS256 bearer tokens used by API
// clients that do not keep a session cookie.
package token

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 24 * time.Hour

const issuer = "cognitio"

// ErrInvalid is returned for malformed, expired or badly signed tokens.
var ErrInvalid = errors.New("invalid token")

// Claims identifies the token holder. Authorization decisions are never
// taken from claims; the user record is reloaded on every request.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl uses DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the user and its expiry time.
func (i *Issuer) Issue(userID uuid.UUID, email string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies raw and returns its claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalid)
	}
	return claims, nil
}
