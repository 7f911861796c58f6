// Package session tracks tokens that were signed out before they expired.
package session

import (
	"context"
	"time"
)

// Store remembers revoked token IDs until the token would have expired
// anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
	Close() error
}
