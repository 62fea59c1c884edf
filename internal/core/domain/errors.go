package domain

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map these to transport status codes.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrUpstream         = errors.New("upstream error")
)

var (
	ErrEmptyCart            = fmt.Errorf("cart is empty: %w", ErrValidation)
	ErrInvalidQuantity      = fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	ErrInvalidPrice         = fmt.Errorf("price must be non-negative with at most 2 decimal places: %w", ErrValidation)
	ErrInvalidTransition    = fmt.Errorf("invalid order status transition: %w", ErrValidation)
	ErrInvalidRating        = fmt.Errorf("rating must be between 1 and 5: %w", ErrValidation)
	ErrProductNotFound      = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound        = fmt.Errorf("order %w", ErrNotFound)
	ErrCartItemNotFound     = fmt.Errorf("cart item %w", ErrNotFound)
	ErrCategoryNotFound     = fmt.Errorf("category %w", ErrNotFound)
	ErrReviewNotFound       = fmt.Errorf("review %w", ErrNotFound)
	ErrCartModified         = fmt.Errorf("cart was modified concurrently: %w", ErrConflict)
	ErrConversionInProgress = fmt.Errorf("cart is locked by another request: %w", ErrConflict)
	ErrStatusChanged        = fmt.Errorf("order status changed concurrently: %w", ErrConflict)
	ErrOrderNotPayable      = fmt.Errorf("order is not awaiting payment: %w", ErrConflict)
	ErrAlreadyReviewed      = fmt.Errorf("product already reviewed: %w", ErrConflict)
	ErrAlreadyInWishlist    = fmt.Errorf("product already in wishlist: %w", ErrConflict)
	ErrCategoryExists       = fmt.Errorf("category name already exists: %w", ErrConflict)
)
