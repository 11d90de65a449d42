package domain

import (
	"context"
	"time"
)

// Session is the signed-in identity attached to every authenticated request.
type Session struct {
	UserID    string
	SessionID string
	Email     string
}

// TokenPair is issued at sign-up, sign-in and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionRevoker remembers sessions ended by sign-out until their tokens expire.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
