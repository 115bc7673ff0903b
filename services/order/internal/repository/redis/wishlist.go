package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kitchencart/ecommerce/pkg/tracing"
	"github.com/kitchencart/ecommerce/services/order/internal/domain"
)

const wishlistKeyPrefix = "wishlist:"

// WishlistRepository implements repository.WishlistRepository using Redis.
// Each wishlist is a sorted set of product IDs scored by the time, in unix
// milliseconds, they were added. Wishlists do not expire.
type WishlistRepository struct {
	client redis.Cmdable
}

// NewWishlistRepository creates a new Redis-backed wishlist repository.
func NewWishlistRepository(client redis.Cmdable) *WishlistRepository {
	return &WishlistRepository{client: client}
}

func wishlistKey(userID string) string { return wishlistKeyPrefix + userID }

// List returns the entries of userID's wishlist, oldest first.
func (r *WishlistRepository) List(ctx context.Context, userID string) (_ []domain.WishlistEntry, err error) {
	ctx, end := tracing.Start(ctx, "redis", "wishlist.list", attribute.String("user_id", userID))
	defer func() { end(err) }()

	members, err := r.client.ZRangeWithScores(ctx, wishlistKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange wishlist: %w", err)
	}

	entries := make([]domain.WishlistEntry, 0, len(members))
	for _, m := range members {
		productID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.WishlistEntry{
			ProductID: productID,
			AddedAt:   time.UnixMilli(int64(m.Score)).UTC(),
		})
	}
	return entries, nil
}

// Add saves productID to userID's wishlist. It reports false when the
// product was already there, in which case the original time is kept.
func (r *WishlistRepository) Add(ctx context.Context, userID, productID string, at time.Time) (_ bool, err error) {
	ctx, end := tracing.Start(ctx, "redis", "wishlist.add",
		attribute.String("user_id", userID), attribute.String("product_id", productID))
	defer func() { end(err) }()

	added, err := r.client.ZAddNX(ctx, wishlistKey(userID), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: productID,
	}).Result()
	if err != nil {
		return false, fmt.Errorf("redis zadd wishlist: %w", err)
	}
	return added == 1, nil
}

// Remove drops productID from userID's wishlist and reports whether it was
// present.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productID string) (_ bool, err error) {
	ctx, end := tracing.Start(ctx, "redis", "wishlist.remove",
		attribute.String("user_id", userID), attribute.String("product_id", productID))
	defer func() { end(err) }()

	removed, err := r.client.ZRem(ctx, wishlistKey(userID), productID).Result()
	if err != nil {
		return false, fmt.Errorf("redis zrem wishlist: %w", err)
	}
	return removed == 1, nil
}

// Delete removes the whole wishlist of userID.
func (r *WishlistRepository) Delete(ctx context.Context, userID string) (err error) {
	ctx, end := tracing.Start(ctx, "redis", "wishlist.delete", attribute.String("user_id", userID))
	defer func() { end(err) }()

	if err := r.client.Del(ctx, wishlistKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del wishlist: %w", err)
	}
	return nil
}
