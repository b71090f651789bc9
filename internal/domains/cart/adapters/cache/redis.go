// Package cache provides a Redis-backed read-through cache for cart snapshots.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tshirtshop/commerce-api/internal/domains/cart/domain"
	"github.com/tshirtshop/commerce-api/internal/domains/cart/ports"
)

var _ ports.SnapshotCache = (*RedisCache)(nil)

// RedisCache caches cart snapshots with a jittered TTL so hot carts do not
// all expire in the same instant.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCache wraps an existing Redis client. Caller manages its lifecycle.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *RedisCache) Get(ctx context.Context, cartID domain.CartID) (*domain.Snapshot, error) {
	data, err := r.client.Get(ctx, cacheKey(cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot failed: %w", err)
	}
	return &snapshot, nil
}

func (r *RedisCache) Set(ctx context.Context, cartID domain.CartID, snapshot *domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot failed: %w", err)
	}
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(cartID), payload, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Invalidate(ctx context.Context, cartID domain.CartID) error {
	if err := r.client.Del(ctx, cacheKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func cacheKey(cartID domain.CartID) string {
	return "cart:" + cartID.String()
}
