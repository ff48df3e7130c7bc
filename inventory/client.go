// Package inventory reads product details and stock levels from the remote inventory service.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gofalre.io/storefront/models"
)

// ErrNotFound is returned when the inventory service has no such product or stock record.
var ErrNotFound = errors.New("inventory: not found")

// Client is the read-only view of the inventory service used by the cart.
type Client interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	GetStock(ctx context.Context, productID int64) (*models.Stock, error)
}

var _ Client = (*HTTPClient)(nil)

// StatusError reports an unexpected HTTP status from the inventory service.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inventory: GET %s returned %d", e.Path, e.StatusCode)
}

// HTTPClient talks to the JSON API exposing /products, /products/{id} and /stock/{id}.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("inventory url %q must be absolute", baseURL)
	}
	return &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	if err := c.get(ctx, "/products/"+strconv.FormatInt(productID, 10), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *HTTPClient) GetStock(ctx context.Context, productID int64) (*models.Stock, error) {
	var stock models.Stock
	if err := c.get(ctx, "/stock/"+strconv.FormatInt(productID, 10), &stock); err != nil {
		return nil, err
	}
	return &stock, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("inventory request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("inventory returned unexpected status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
