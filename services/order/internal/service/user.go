package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
	"github.com/kitchencart/ecommerce/pkg/pagination"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
	"github.com/kitchencart/ecommerce/services/order/internal/repository"
)

// UserService lets admins browse and remove customer accounts.
type UserService struct {
	users     repository.UserRepository
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repository.UserRepository, carts repository.CartRepository, wishlists repository.WishlistRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, carts: carts, wishlists: wishlists, logger: logger}
}

// ListUsers returns one page of users, newest first.
func (s *UserService) ListUsers(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, params.Page, params.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes an account along with its cart and wishlist. Orders are
// kept for accounting. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	if actor.UserID == id {
		return apperrors.Validation("You cannot delete yourself", nil)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.carts.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart of deleted user",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	if err := s.wishlists.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to clear wishlist of deleted user",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
		slog.String("deleted_by", actor.UserID),
	)
	return nil
}
