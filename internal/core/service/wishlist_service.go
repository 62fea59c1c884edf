package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type WishlistService struct {
	wishlists port.WishlistRepository
	products  port.ProductRepository
	logger    *zap.Logger
}

func NewWishlistService(wishlists port.WishlistRepository, products port.ProductRepository, logger *zap.Logger) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products, logger: logger}
}

// GetWishlist returns the user's saved products; a user with none gets an empty list.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	items, err := s.wishlists.ListWishlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get wishlist: %w", err)
	}
	return &domain.Wishlist{UserID: userID, Items: items}, nil
}

func (s *WishlistService) AddItem(ctx context.Context, userID, productID string) (*domain.WishlistItem, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}

	item := domain.WishlistItem{ProductID: product.ID, AddedAt: time.Now().UTC()}
	if err := s.wishlists.AddWishlistItem(ctx, userID, item); err != nil {
		return nil, fmt.Errorf("add wishlist item: %w", err)
	}

	item.Product = *product
	return &item, nil
}

// RemoveItem is a no-op for products that are not on the list.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID string) error {
	if err := s.wishlists.RemoveWishlistItem(ctx, userID, productID); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}

func (s *WishlistService) Clear(ctx context.Context, userID string) error {
	if err := s.wishlists.ClearWishlist(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
