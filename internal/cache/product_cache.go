package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopfront/internal/config"
	"shopfront/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient builds a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// ProductCache caches storefront product detail payloads in redis. Cache
// failures degrade to database reads; they are logged, never surfaced.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductCache creates a product cache with the given TTL in seconds.
func NewProductCache(client *redis.Client, ttlSeconds int, logger *zap.Logger) *ProductCache {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &ProductCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
		logger: logger,
	}
}

func productKey(slug string) string {
	return "product:slug:" + slug
}

// GetProduct returns the cached product for slug, if present.
func (c *ProductCache) GetProduct(ctx context.Context, slug string) (*domain.Product, bool) {
	payload, err := c.client.Get(ctx, productKey(slug)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Product cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil, false
	}

	product := &domain.Product{}
	if err := json.Unmarshal(payload, product); err != nil {
		c.logger.Warn("Product cache payload corrupt", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}

	return product, true
}

// SetProduct stores a product detail payload under its slug.
func (c *ProductCache) SetProduct(ctx context.Context, slug string, product *domain.Product) {
	payload, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("Product cache marshal failed", zap.String("slug", slug), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, productKey(slug), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Product cache write failed", zap.String("slug", slug), zap.Error(err))
	}
}

// InvalidateProduct drops the cached payload for slug.
func (c *ProductCache) InvalidateProduct(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, productKey(slug)).Err(); err != nil {
		c.logger.Warn("Product cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}
