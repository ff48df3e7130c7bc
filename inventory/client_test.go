package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gofalre.io/storefront/inventory"
	"gofalre.io/storefront/models"
)

func newInventoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	products := []models.Product{
		{ID: 1, Title: "Tênis de Caminhada", Price: 179.9, Image: "1.jpg"},
		{ID: 2, Title: "Tênis VR Caminhada", Price: 139.9, Image: "2.jpg"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(products)
	})
	mux.HandleFunc("/api/products/1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(products[0])
	})
	mux.HandleFunc("/api/stock/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"amount":3}`))
	})
	mux.HandleFunc("/api/stock/500", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string) *inventory.HTTPClient {
	t.Helper()
	client, err := inventory.NewHTTPClient(baseURL, time.Second, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestHTTPClient_ListProducts(t *testing.T) {
	srv := newInventoryServer(t)
	client := newClient(t, srv.URL+"/api/")

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Tênis VR Caminhada", products[1].Title)
}

func TestHTTPClient_GetProduct(t *testing.T) {
	srv := newInventoryServer(t)
	client := newClient(t, srv.URL+"/api")

	product, err := client.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), product.ID)
	assert.Equal(t, 179.9, product.Price)

	_, err = client.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestHTTPClient_GetStock(t *testing.T) {
	srv := newInventoryServer(t)
	client := newClient(t, srv.URL+"/api")

	stock, err := client.GetStock(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.Stock{ID: 1, Amount: 3}, *stock)

	_, err = client.GetStock(context.Background(), 500)
	var statusErr *inventory.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	srv := newInventoryServer(t)
	client := newClient(t, srv.URL+"/api")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetStock(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := inventory.NewHTTPClient("localhost:3333", time.Second, zap.NewNop())
	assert.Error(t, err)
}
