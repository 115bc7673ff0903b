package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// WishlistService manages the products a user saved for later.
type WishlistService struct {
	wishlists repository.WishlistRepository
	products  repository.ProductRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(wishlists repository.WishlistRepository, products repository.ProductRepository, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WishlistLine is a wishlist entry joined with current catalog data.
type WishlistLine struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	MRP       int64     `json:"mrp"`
	Price     int64     `json:"price"`
	Discount  int       `json:"discount"`
	InStock   bool      `json:"in_stock"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistView is the wishlist as shown to its owner. Products removed from
// the catalog are left out.
type WishlistView struct {
	UserID string         `json:"user_id"`
	Items  []WishlistLine `json:"items"`
}

// GetWishlist returns the user's wishlist, oldest entry first.
func (s *WishlistService) GetWishlist(ctx context.Context, userID string) (*WishlistView, error) {
	entries, err := s.wishlists.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}

	v := &WishlistView{UserID: userID, Items: make([]WishlistLine, 0, len(entries))}
	if len(entries) == 0 {
		return v, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve wishlist products: %w", err)
	}

	for _, e := range entries {
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}
		line := WishlistLine{
			ProductID: p.ID,
			Name:      p.Name,
			MRP:       p.MRP,
			Price:     p.SellingPrice,
			Discount:  p.Discount,
			InStock:   p.Stock > 0,
			AddedAt:   e.AddedAt,
		}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		v.Items = append(v.Items, line)
	}
	return v, nil
}

// AddItem saves a catalog product to the wishlist. Saving a product twice
// keeps the first entry.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID string) (*WishlistView, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	added, err := s.wishlists.Add(ctx, userID, productID, s.now())
	if err != nil {
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	if added {
		s.logger.DebugContext(ctx, "wishlist item added",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
		)
	}
	return s.GetWishlist(ctx, userID)
}

// RemoveItem drops a product from the wishlist. Removing a product that is not
// there is not an error.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID string) (*WishlistView, error) {
	if _, err := s.wishlists.Remove(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("remove from wishlist: %w", err)
	}
	return s.GetWishlist(ctx, userID)
}

// Clear deletes the user's wishlist.
func (s *WishlistService) Clear(ctx context.Context, userID string) error {
	if err := s.wishlists.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear wishlist: %w", err)
	}
	return nil
}
