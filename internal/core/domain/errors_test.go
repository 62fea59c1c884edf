package domain

import (
	"errors"
	"testing"
)

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		err   error
		class error
	}{
		{ErrEmptyCart, ErrValidation},
		{ErrInvalidQuantity, ErrValidation},
		{ErrInvalidTransition, ErrValidation},
		{ErrOrderNotFound, ErrNotFound},
		{ErrProductNotFound, ErrNotFound},
		{ErrCartModified, ErrConflict},
		{ErrConversionInProgress, ErrConflict},
		{ErrOrderNotPayable, ErrConflict},
		{ErrInvalidPrice, ErrValidation},
		{ErrInvalidRating, ErrValidation},
		{ErrCategoryNotFound, ErrNotFound},
		{ErrReviewNotFound, ErrNotFound},
		{ErrAlreadyReviewed, ErrConflict},
		{ErrAlreadyInWishlist, ErrConflict},
		{ErrCategoryExists, ErrConflict},
	}

	for _, tt := range tests {
		if !errors.Is(tt.err, tt.class) {
			t.Errorf("expected %q to be classified as %q", tt.err, tt.class)
		}
	}
}
