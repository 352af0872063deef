package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// Revocations is a Redis denylist of token ids, kept until the token would expire.
type Revocations struct {
	client *redis.Client
}

// NewRevocations returns a denylist backed by client. A nil client disables it.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client}
}

// Revoke denies jti until expiresAt.
func (r *Revocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if r == nil || r.client == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.client == nil || jti == "" {
		return false, nil
	}
	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
