package inventory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

// Catalog resolves products from a preloaded product list and falls back to
// a single-product lookup for anything the list did not contain.
type Catalog struct {
	client Client
	logger *zap.Logger

	mu       sync.RWMutex
	products map[int64]models.Product
}

func NewCatalog(client Client, logger *zap.Logger) *Catalog {
	return &Catalog{
		client:   client,
		logger:   logger,
		products: make(map[int64]models.Product),
	}
}

// Load fetches the full product list. A failed preload is not fatal:
// Product keeps working through the by-id lookup.
func (c *Catalog) Load(ctx context.Context) error {
	products, err := c.client.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to preload catalog: %w", err)
	}

	c.mu.Lock()
	for _, p := range products {
		c.products[p.ID] = p
	}
	c.mu.Unlock()

	c.logger.Info("catalog preloaded", zap.Int("products", len(products)))
	return nil
}

// Product returns the catalog entry for productID. It wraps ErrNotFound when
// the inventory service does not know the product.
func (c *Catalog) Product(ctx context.Context, productID int64) (*models.Product, error) {
	c.mu.RLock()
	p, ok := c.products[productID]
	c.mu.RUnlock()
	if ok {
		return &p, nil
	}

	product, err := c.client.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products[product.ID] = *product
	c.mu.Unlock()

	return product, nil
}

// Stock always asks the inventory service; stock levels are never cached.
func (c *Catalog) Stock(ctx context.Context, productID int64) (*models.Stock, error) {
	return c.client.GetStock(ctx, productID)
}
