package domain

import "time"

// CartItem is a product and a positive quantity.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart belongs to exactly one user and holds at most one entry per product.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}

func (c *Cart) index(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add adds qty of productID, merging with an existing entry.
func (c *Cart) Add(productID string, qty int) {
	if i := c.index(productID); i >= 0 {
		c.Items[i].Quantity += qty
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// SetQuantity replaces the quantity of an existing entry. It reports false
// if the product is not in the cart.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity = qty
	return true
}

// Remove drops productID. It reports false if the product is not in the cart.
func (c *Cart) Remove(productID string) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// IsEmpty reports whether the cart has no entries.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
