package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const cartLockPrefix = "cart-lock:"

// cartLocker serializes writers of one user's cart across processes.
type cartLocker struct {
	cache  port.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func (l cartLocker) withLock(ctx context.Context, userID string, fn func() error) error {
	key := cartLockPrefix + userID

	token, err := l.cache.AcquireLock(ctx, key, l.ttl)
	if err != nil {
		return fmt.Errorf("acquire cart lock: %w: %w", domain.ErrUpstream, err)
	}
	if token == "" {
		return domain.ErrConversionInProgress
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.cache.ReleaseLock(releaseCtx, key, token); err != nil {
			l.logger.Warn("release cart lock failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	return fn()
}
