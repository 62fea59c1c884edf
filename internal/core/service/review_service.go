package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type ReviewService struct {
	reviews  port.ReviewRepository
	products port.ProductRepository
	logger   *zap.Logger
}

type CreateReviewRequest struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func NewReviewService(reviews port.ReviewRepository, products port.ProductRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, logger: logger}
}

func (s *ReviewService) ListUserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListReviewsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) ListProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview records a user's single review of a product. A second review of
// the same product fails with domain.ErrAlreadyReviewed.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*domain.Review, error) {
	if !domain.ValidRating(req.Rating) {
		return nil, domain.ErrInvalidRating
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	now := time.Now().UTC()
	review := domain.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: product.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("product_id", review.ProductID),
		zap.String("user_id", userID),
		zap.Int("rating", review.Rating))

	review.ProductName = product.Name
	return &review, nil
}

// UpdateReview edits a review owned by userID. Reviews of other users are
// reported as not found.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, patch domain.ReviewPatch) (*domain.Review, error) {
	if patch.Rating != nil && !domain.ValidRating(*patch.Rating) {
		return nil, domain.ErrInvalidRating
	}

	review, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if review.UserID != userID {
		return nil, domain.ErrReviewNotFound
	}

	review.Apply(patch)
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.UpdateReview(ctx, *review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	if err := s.reviews.DeleteReview(ctx, userID, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
