// Package inventory keeps per-product available stock and hands out
// reservations against it.
//
// A reservation is a single atomic compare-and-decrement of one product's
// counter; a release is the matching increment. Callers that reserve several
// products are responsible for releasing what they took when a later step
// fails.
package inventory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownProduct    = errors.New("no inventory entry for product")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

func checkQuantity(productID, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("product %d quantity %d: %w", productID, quantity, ErrInvalidQuantity)
	}
	return nil
}
