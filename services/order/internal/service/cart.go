package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// CartService manages the per-user shopping cart.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CartLine is a cart entry joined with current catalog data. Lines whose
// product was removed from the catalog have Available set to false.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	Available bool   `json:"available"`
}

// CartView is the cart as shown to its owner.
type CartView struct {
	UserID    string     `json:"user_id"`
	Items     []CartLine `json:"items"`
	Subtotal  int64      `json:"subtotal"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	cart = domain.NewCart(userID, s.now())
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	s.logger.DebugContext(ctx, "cart created", slog.String("user_id", userID))
	return cart, nil
}

// AddItem adds quantity of a product, merging with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be at least 1", map[string]string{"quantity": "must be at least 1"})
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Add(productID, quantity)
	return s.save(ctx, cart)
}

// UpdateItem replaces the quantity of a product already in the cart.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("Quantity must be at least 1", map[string]string{"quantity": "must be at least 1"})
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.SetQuantity(productID, quantity) {
		return nil, apperrors.NotFound("cart item", productID)
	}
	return s.save(ctx, cart)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.Remove(productID) {
		return nil, apperrors.NotFound("cart item", productID)
	}
	return s.save(ctx, cart)
}

// Clear deletes the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) save(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return s.view(ctx, cart)
}

func (s *CartService) view(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	v := &CartView{UserID: cart.UserID, Items: make([]CartLine, 0, len(cart.Items)), UpdatedAt: cart.UpdatedAt}
	if cart.IsEmpty() {
		return v, nil
	}

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	for _, it := range cart.Items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, ok := products[it.ProductID]; ok {
			line.Name = p.Name
			line.Price = p.SellingPrice
			line.LineTotal = p.SellingPrice * int64(it.Quantity)
			line.Available = true
			if len(p.Images) > 0 {
				line.Image = p.Images[0]
			}
			v.Subtotal += line.LineTotal
		}
		v.Items = append(v.Items, line)
	}
	return v, nil
}
