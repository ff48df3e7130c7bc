package models

import (
	"encoding/json"
	"strings"
)

// CartItem 代表購物車中的單個商品項目
type CartItem struct {
	Product
	Amount int `json:"amount"`

	// Extra holds fields of a stored entry this type does not model. They
	// are written back unchanged so a save never drops them.
	Extra map[string]json.RawMessage `json:"-"`
}

var cartItemFields = []string{"id", "title", "price", "image", "amount"}

type plainCartItem CartItem

func (i CartItem) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainCartItem(i))
	if err != nil || len(i.Extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage, len(cartItemFields)+len(i.Extra))
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range i.Extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func (i *CartItem) UnmarshalJSON(data []byte) error {
	var item plainCartItem
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for k := range fields {
		if isCartItemField(k) {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		fields = nil
	}

	*i = CartItem(item)
	i.Extra = fields
	return nil
}

// isCartItemField matches the way encoding/json matches keys to fields.
func isCartItemField(key string) bool {
	for _, f := range cartItemFields {
		if strings.EqualFold(key, f) {
			return true
		}
	}
	return false
}

// Cart 代表購物車, 依加入順序排列且每個商品只出現一次.
// All methods return a new Cart and never modify the receiver.
type Cart []CartItem

func NewCart() Cart {
	return Cart{}
}

func NewCartItem(product Product) CartItem {
	return CartItem{Product: product, Amount: 1}
}

// IndexOf returns the position of productID in the cart, or -1.
func (c Cart) IndexOf(productID int64) int {
	for i, item := range c {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// Find returns the entry for productID.
func (c Cart) Find(productID int64) (CartItem, bool) {
	if i := c.IndexOf(productID); i >= 0 {
		return c[i], true
	}
	return CartItem{}, false
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Append adds a new entry with amount 1. If the product is already present
// the cart is returned unchanged; callers increment through WithAmount.
func (c Cart) Append(product Product) Cart {
	if c.IndexOf(product.ID) >= 0 {
		return c.Clone()
	}
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, NewCartItem(product))
}

// WithAmount sets the amount of an existing entry. Amounts below 1 and
// unknown products leave the cart unchanged.
func (c Cart) WithAmount(productID int64, amount int) Cart {
	out := c.Clone()
	if amount < 1 {
		return out
	}
	if i := out.IndexOf(productID); i >= 0 {
		out[i].Amount = amount
	}
	return out
}

// Without removes the entry for productID, keeping the order of the rest.
func (c Cart) Without(productID int64) Cart {
	i := c.IndexOf(productID)
	if i < 0 {
		return c.Clone()
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...)
}

// Amount returns the quantity held for productID, 0 when absent.
func (c Cart) Amount(productID int64) int {
	item, _ := c.Find(productID)
	return item.Amount
}
