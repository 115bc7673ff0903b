package sender

import (
	"context"

	"github.com/kitchencart/ecommerce/services/notification/internal/domain"
)

// Sender delivers emails through one provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, email *domain.Email) error
}
