// Package session keeps the per-browser state of the portal: the active
// filters and, when signed in, the upstream credential.
package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/sma-timetable-portal/internal/filters"
	"github.com/noah-isme/sma-timetable-portal/internal/models"
)

// Credential is the bearer token issued by the timetable API with an explicit
// lifetime.
type Credential struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Valid reports whether the credential can still be attached to requests.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.Token != "" && now.Before(c.ExpiresAt)
}

// NewCredential builds a credential from a login answer. The lifetime comes
// from the token's exp claim when present, otherwise fallback is used. The
// token is not verified: the API is the only party that checks it.
func NewCredential(auth *models.AuthResponse, now time.Time, fallback time.Duration) *Credential {
	expires := now.Add(fallback)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(auth.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expires = exp.Time
		}
	}
	return &Credential{Token: auth.AccessToken, User: auth.User, ExpiresAt: expires}
}

// Session is one browser session.
type Session struct {
	ID         string        `json:"id"`
	Filters    filters.State `json:"filters"`
	Credential *Credential   `json:"credential,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Token returns the bearer token when the credential is still valid.
func (s *Session) Token(now time.Time) string {
	if s == nil || !s.Credential.Valid(now) {
		return ""
	}
	return s.Credential.Token
}

// Authenticated reports whether the session carries a valid credential.
func (s *Session) Authenticated(now time.Time) bool {
	return s.Token(now) != ""
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// Touch extends the lifetime of a stored session without rewriting it.
	Touch(ctx context.Context, id string, ttl time.Duration) error
}
