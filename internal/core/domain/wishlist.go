package domain

import "time"

type WishlistItem struct {
	ProductID string    `json:"productId"`
	Product   Product   `json:"product"`
	AddedAt   time.Time `json:"addedAt"`
}

type Wishlist struct {
	UserID string         `json:"userId"`
	Items  []WishlistItem `json:"items"`
}
