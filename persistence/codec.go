package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gofalre.io/storefront/models"
)

// EncodeCart serializes the cart as a JSON array of entries.
func EncodeCart(cart models.Cart) ([]byte, error) {
	if cart == nil {
		cart = models.NewCart()
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// DecodeCart parses a stored cart. Empty input and JSON null give an empty cart;
// entries are not validated beyond their structure.
func DecodeCart(data []byte) (models.Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.NewCart(), nil
	}

	var cart models.Cart
	if err := json.Unmarshal(trimmed, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if cart == nil {
		cart = models.NewCart()
	}
	return cart, nil
}
