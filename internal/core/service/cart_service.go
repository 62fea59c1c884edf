package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type CartService struct {
	carts  port.CartRepository
	locker cartLocker
	logger *zap.Logger
}

func NewCartService(carts port.CartRepository, cache port.CacheRepository, lockTTL time.Duration, logger *zap.Logger) *CartService {
	return &CartService{
		carts:  carts,
		locker: cartLocker{cache: cache, ttl: lockTTL, logger: logger},
		logger: logger,
	}
}

// GetCart returns the user's cart with current product data, creating an
// empty cart on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	err := s.locker.withLock(ctx, userID, func() error {
		return s.carts.AddItem(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, s.mutationError("add item", userID, err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	err := s.locker.withLock(ctx, userID, func() error {
		return s.carts.SetItemQuantity(ctx, userID, productID, quantity)
	})
	if err != nil {
		return nil, s.mutationError("update item", userID, err)
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	err := s.locker.withLock(ctx, userID, func() error {
		return s.carts.RemoveItem(ctx, userID, productID)
	})
	if err != nil {
		return s.mutationError("remove item", userID, err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.locker.withLock(ctx, userID, func() error {
		return s.carts.ClearCart(ctx, userID)
	})
	if err != nil {
		return s.mutationError("clear cart", userID, err)
	}
	return nil
}

func (s *CartService) mutationError(op, userID string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrConflict) {
		s.logger.Error("cart mutation failed", zap.String("op", op), zap.String("user_id", userID), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
