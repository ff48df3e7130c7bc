package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

const productCacheTTL = 30 * time.Minute

var _ Client = (*CachedClient)(nil)

// CachedClient keeps product details in Redis in front of another Client.
// Stock reads always go through to the wrapped client.
type CachedClient struct {
	next   Client
	cache  redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClient(next Client, cache redis.Cmdable, logger *zap.Logger) *CachedClient {
	return &CachedClient{
		next:   next,
		cache:  cache,
		ttl:    productCacheTTL,
		logger: logger,
	}
}

func (c *CachedClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := c.next.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		c.store(ctx, &products[i])
	}
	return products, nil
}

func (c *CachedClient) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	cacheKey := productCacheKey(productID)

	// 嘗試從快取中獲取
	data, err := c.cache.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var product models.Product
		if err = json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		c.logger.Warn("Failed to decode cached product", zap.Int64("product_id", productID), zap.Error(err))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Failed to get product from cache", zap.Int64("product_id", productID), zap.Error(err))
	}

	product, err := c.next.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	// 更新快取
	c.store(ctx, product)
	return product, nil
}

func (c *CachedClient) GetStock(ctx context.Context, productID int64) (*models.Stock, error) {
	return c.next.GetStock(ctx, productID)
}

func (c *CachedClient) store(ctx context.Context, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("Failed to encode product for cache", zap.Int64("product_id", product.ID), zap.Error(err))
		return
	}
	if err = c.cache.Set(ctx, productCacheKey(product.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache product", zap.Int64("product_id", product.ID), zap.Error(err))
	}
}

func productCacheKey(productID int64) string {
	return fmt.Sprintf("product:%d", productID)
}
