package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
	"github.com/sadhef/Ri-carts-sub001/internal/infra"
)

// ProductCache stores product snapshots as JSON. Every failure is logged and
// treated as a miss.
type ProductCache struct {
	client Client
	ttl    time.Duration
}

var _ infra.ProductCache = (*ProductCache)(nil)

func NewProductCache(client Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) Get(ctx context.Context, id uint64) (*domain.Product, bool) {
	raw, err := c.client.Get(ctx, productKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Uint64("product_id", id).Msg("product cache read failed")
		}
		return nil, false
	}

	var p domain.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		log.Warn().Err(err).Uint64("product_id", id).Msg("discarding corrupt cached product")
		return nil, false
	}
	return &p, true
}

func (c *ProductCache) Set(ctx context.Context, p *domain.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Uint64("product_id", p.ID).Msg("product cache write failed")
	}
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...uint64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Int("count", len(keys)).Msg("product cache invalidation failed")
	}
}
