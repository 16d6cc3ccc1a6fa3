package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tablewise/billing-api/internal/config"
)

// Invalidator drops cached order listings after billing mutates the orders
// they contain. Invalidation is best effort: a cache miss costs a query, a
// stale entry costs correctness.
type Invalidator interface {
	InvalidateOrders(ctx context.Context, restaurantID uuid.UUID)
	InvalidateBills(ctx context.Context, restaurantID uuid.UUID)
}

// NewRedisClient connects to redis, or returns nil when disabled
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type redisInvalidator struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisInvalidator creates a cache invalidator backed by redis
func NewRedisInvalidator(client *redis.Client, log *logrus.Logger) Invalidator {
	return &redisInvalidator{client: client, log: log}
}

func (i *redisInvalidator) InvalidateOrders(ctx context.Context, restaurantID uuid.UUID) {
	i.deletePattern(ctx, fmt.Sprintf("orders:%s:*", restaurantID))
}

func (i *redisInvalidator) InvalidateBills(ctx context.Context, restaurantID uuid.UUID) {
	i.deletePattern(ctx, fmt.Sprintf("bills:%s:*", restaurantID))
}

func (i *redisInvalidator) deletePattern(ctx context.Context, pattern string) {
	iter := i.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		i.log.WithError(err).WithField("pattern", pattern).Warn("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		i.log.WithError(err).WithField("pattern", pattern).Warn("cache invalidation failed")
	}
}

type noopInvalidator struct{}

// NewNoopInvalidator returns an invalidator that does nothing, for setups
// without redis
func NewNoopInvalidator() Invalidator {
	return noopInvalidator{}
}

func (noopInvalidator) InvalidateOrders(ctx context.Context, restaurantID uuid.UUID) {}
func (noopInvalidator) InvalidateBills(ctx context.Context, restaurantID uuid.UUID)  {}
