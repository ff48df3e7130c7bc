package inventory_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gofalre.io/storefront/models"
)

type ClientMock struct{ mock.Mock }

func (m *ClientMock) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *ClientMock) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	args := m.Called(ctx, productID)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *ClientMock) GetStock(ctx context.Context, productID int64) (*models.Stock, error) {
	args := m.Called(ctx, productID)
	stock, _ := args.Get(0).(*models.Stock)
	return stock, args.Error(1)
}
