package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestReviewService_CreateOncePerProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-a", "Product A", "10.00")

	review, err := env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "prod-a", Rating: 4, Comment: "solid"})
	require.NoError(t, err)
	assert.Equal(t, "Product A", review.ProductName)

	_, err = env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "prod-a", Rating: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = env.reviews.CreateReview(ctx, "user-2", CreateReviewRequest{ProductID: "prod-a", Rating: 5})
	require.NoError(t, err)

	reviews, err := env.reviews.ListProductReviews(ctx, "prod-a")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	mine, err := env.reviews.ListUserReviews(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 4, mine[0].Rating)
}

func TestReviewService_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-a", "Product A", "10.00")

	for _, rating := range []int{0, 6, -3} {
		_, err := env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "prod-a", Rating: rating})
		assert.ErrorIs(t, err, domain.ErrInvalidRating, "rating %d", rating)
	}

	_, err := env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "missing", Rating: 3})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestReviewService_OnlyAuthorMayEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "prod-a", "Product A", "10.00")

	review, err := env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "prod-a", Rating: 2})
	require.NoError(t, err)

	rating := 5
	_, err = env.reviews.UpdateReview(ctx, "user-2", review.ID, domain.ReviewPatch{Rating: &rating})
	assert.ErrorIs(t, err, domain.ErrReviewNotFound)
	assert.ErrorIs(t, env.reviews.DeleteReview(ctx, "user-2", review.ID), domain.ErrReviewNotFound)

	invalid := 9
	_, err = env.reviews.UpdateReview(ctx, "user-1", review.ID, domain.ReviewPatch{Rating: &invalid})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	comment := "grew on me"
	updated, err := env.reviews.UpdateReview(ctx, "user-1", review.ID, domain.ReviewPatch{Rating: &rating, Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "grew on me", updated.Comment)

	require.NoError(t, env.reviews.DeleteReview(ctx, "user-1", review.ID))
	assert.ErrorIs(t, env.reviews.DeleteReview(ctx, "user-1", review.ID), domain.ErrReviewNotFound)

	_, err = env.reviews.CreateReview(ctx, "user-1", CreateReviewRequest{ProductID: "prod-a", Rating: 3})
	assert.NoError(t, err, "a deleted review frees the slot")
}
