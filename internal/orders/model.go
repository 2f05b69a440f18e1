package orders

import (
	"errors"
	"fmt"
	"time"

	"catalog-fulfillment/internal/inventory"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidRequest     = errors.New("invalid order request")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrPersistence        = errors.New("order could not be persisted")
)

const StatusPlaced = "PLACED"

// InsufficientStockError reports the first product whose reservation was
// declined. It matches inventory.ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == inventory.ErrInsufficientStock
}

type ItemRequest struct {
	ProductID int64 `json:"product_id" example:"7"`
	Quantity  int64 `json:"quantity" example:"2"`
}

type Request struct {
	CustomerName string        `json:"customer_name" example:"Ada Lovelace"`
	Email        string        `json:"email" example:"ada@example.com"`
	Items        []ItemRequest `json:"items"`
}

type Item struct {
	ProductID   int64           `json:"product_id" example:"7"`
	ProductName string          `json:"product_name" example:"Noise Cancelling Headphones"`
	Quantity    int64           `json:"quantity" example:"2"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"19.99"`
	TotalPrice  decimal.Decimal `json:"total_price" swaggertype:"string" example:"39.98"`
}

type Order struct {
	OrderID      string          `json:"order_id" example:"ORD-3F2A9C1B7D4E5F60"`
	CustomerName string          `json:"customer_name" example:"Ada Lovelace"`
	Email        string          `json:"email" example:"ada@example.com"`
	Status       string          `json:"status" example:"PLACED"`
	OrderDate    time.Time       `json:"order_date" example:"2026-10-16T12:00:00Z"`
	Items        []Item          `json:"items"`
	Total        decimal.Decimal `json:"total" swaggertype:"string" example:"39.98"`
}
