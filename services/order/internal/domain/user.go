package domain

import "time"

// Roles carried in access tokens.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the subset of a customer profile this service reads.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanView reports whether the actor may read o.
func (a Actor) CanView(o *Order) bool {
	return a.IsAdmin() || o.OwnedBy(a.UserID)
}
