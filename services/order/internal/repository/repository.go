package repository

import (
	"context"
	"time"

	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

// OrderFilter selects orders for listing. Nil fields are not filtered on.
type OrderFilter struct {
	UserID  *string
	Status  *domain.OrderStatus
	Page    int
	PerPage int
}

// PaymentTransition describes a conditional update of an order's status and
// payment result. The update only applies while the stored order still has
// FromStatus and a payment in FromPayment.
type PaymentTransition struct {
	FromStatus  domain.OrderStatus
	FromPayment domain.PaymentStatus
	ToStatus    domain.OrderStatus
	Payment     domain.PaymentResult
}

// OrderRepository persists orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetByIDForUser returns ErrNotFound when the order belongs to someone else.
	GetByIDForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// TransitionStatus moves the order from one status to another and
	// reports whether this call performed the change.
	TransitionStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error)
	// TransitionPayment applies t and reports whether this call performed
	// the change.
	TransitionPayment(ctx context.Context, id string, t PaymentTransition, at time.Time) (bool, error)
}

// ProductQuery lists products. Filters come from a ProductFilterBuilder.
type ProductQuery struct {
	Filters []Filter
	Search  string
	Sort    string
	Page    int
	PerPage int
}

// ProductRepository persists catalog products and their stock counters.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetByIDs returns the products that exist, keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context, q ProductQuery) ([]domain.Product, int, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error

	// DecrementStock lowers stock by qty, flooring at zero. It reports false
	// if the product does not exist.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	// IncrementStock raises stock by qty. It reports false if the product
	// does not exist.
	IncrementStock(ctx context.Context, id string, qty int) (bool, error)
}

// TxRepos are repositories bound to one database transaction.
type TxRepos struct {
	Orders   OrderRepository
	Products ProductRepository
}

// Transactor runs fn in a single database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error
}

// UserRepository reads customer profiles and lets admins remove them.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// List returns users newest first with the total count.
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository persists catalog categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	// Update stores c. When the name changes, products labelled with
	// oldName move to the new name in the same transaction.
	Update(ctx context.Context, c *domain.Category, oldName string) error
	Delete(ctx context.Context, id string) error
	// InUse reports whether any product is labelled with name.
	InUse(ctx context.Context, name string) (bool, error)
}

// WishlistRepository stores one wishlist per user in insertion order.
type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	// Add reports false when the product was already present; its original
	// position is kept.
	Add(ctx context.Context, userID, productID string, at time.Time) (bool, error)
	// Remove reports false when the product was not present.
	Remove(ctx context.Context, userID, productID string) (bool, error)
	Delete(ctx context.Context, userID string) error
}

// CartRepository stores one cart per user.
type CartRepository interface {
	// Get returns ErrNotFound when the user has no cart.
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}
