package models

// Stock 是庫存服務回傳的可購買數量上限
type Stock struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// Allows reports whether amount can be held in a cart against this stock.
func (s Stock) Allows(amount int) bool {
	return amount <= s.Amount
}
