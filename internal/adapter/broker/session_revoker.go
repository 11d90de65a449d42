package broker

import (
	"context"
	"fmt"
	"time"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"
)

// CacheSessionRevoker keeps a revocation marker per signed-out session until its refresh token would expire.
type CacheSessionRevoker struct {
	cache domain.Cache
}

func NewCacheSessionRevoker(c domain.Cache) *CacheSessionRevoker {
	return &CacheSessionRevoker{cache: c}
}

func (r *CacheSessionRevoker) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("revocation ttl must be positive")
	}
	if err := r.cache.Set(ctx, cache.RevokedSessionKey(sessionID), "1", ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *CacheSessionRevoker) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	revoked, err := r.cache.Exists(ctx, cache.RevokedSessionKey(sessionID))
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return revoked, nil
}
