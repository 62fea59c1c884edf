package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// AcquireLock sets key to a random token if absent; returns "" if already held
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)

	// ReleaseLock deletes key only if it still holds token
	ReleaseLock(ctx context.Context, key, token string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// IsProcessed reports whether an idempotency key is already set
	IsProcessed(ctx context.Context, key string) (bool, error)
}
