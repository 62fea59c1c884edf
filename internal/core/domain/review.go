package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a product. A user reviews a product at most once.
type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ReviewPatch struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

func (r *Review) Apply(patch ReviewPatch) {
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
}
