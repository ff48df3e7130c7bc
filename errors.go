package storefront

import (
	"errors"
	"fmt"

	"gofalre.io/storefront/models/enum"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("requested amount is out of stock")
)

// Error is returned by every failed cart operation. The same failure has
// already been reported to the Notifier with Kind's message.
type Error struct {
	Kind      enum.FailureKind
	ProductID int64
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (product %d): %v", e.Kind, e.ProductID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind carried by err, if any.
func KindOf(err error) (enum.FailureKind, bool) {
	var cartErr *Error
	if errors.As(err, &cartErr) {
		return cartErr.Kind, true
	}
	return "", false
}

func newError(kind enum.FailureKind, productID int64, err error) *Error {
	return &Error{Kind: kind, ProductID: productID, Err: err}
}
