package domain

import "time"

// WishlistEntry is a product a user saved for later. A product appears at
// most once per wishlist.
type WishlistEntry struct {
	ProductID string    `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}
