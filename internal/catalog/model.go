package catalog

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrInvalidName    = errors.New("product name is required")
	ErrNegativePrice  = errors.New("product price must not be negative")
	ErrPricePrecision = errors.New("product price must have at most 2 decimal places")
	ErrNegativeStock  = errors.New("product stock quantity must not be negative")
	ErrInvalidRestock = errors.New("restock quantity must be positive")
	ErrImageNotFound  = errors.New("product image not found")
	ErrEmptyKeyword   = errors.New("search keyword is required")
	ErrGeneratorInput = errors.New("product name and category are required")
)

const (
	EventsQueue         = "catalog.events"
	EventProductSaved   = "product_saved"
	EventProductDeleted = "product_deleted"
	EventOrderPlaced    = "order_placed"
)

// PriceScale is the number of decimal places a price may carry.
const PriceScale = 2

// MetadataProductID is the index document metadata key that links a
// document back to its source product.
const MetadataProductID = "productId"

type Product struct {
	ID               int64           `json:"id" example:"7"`
	Name             string          `json:"name" example:"Noise Cancelling Headphones"`
	Description      string          `json:"description" example:"Over-ear wireless headphones"`
	Brand            string          `json:"brand" example:"Acme"`
	Category         string          `json:"category" example:"Audio"`
	Price            decimal.Decimal `json:"price" swaggertype:"string" example:"19.99"`
	ReleaseDate      time.Time       `json:"release_date" example:"2025-09-01T00:00:00Z"`
	ProductAvailable bool            `json:"product_available" example:"true"`
	StockQuantity    int64           `json:"stock_quantity" example:"3"`
	ImageName        string          `json:"image_name,omitempty" example:"headphones.png"`
	ImageType        string          `json:"image_type,omitempty" example:"image/png"`
	ImageData        []byte          `json:"-"`
}

// Validate checks the invariants every persisted product must hold.
func (p Product) Validate() error {
	switch {
	case p.Name == "":
		return ErrInvalidName
	case p.Price.IsNegative():
		return ErrNegativePrice
	case !p.Price.Equal(p.Price.Round(PriceScale)):
		return ErrPricePrecision
	case p.StockQuantity < 0:
		return ErrNegativeStock
	}
	return nil
}

// Image is the binary payload attached to a product.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

type Event struct {
	EventType string          `json:"event_type"`
	ProductID int64           `json:"product_id,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// Key returns the partitioning key for the event.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return strconv.FormatInt(e.ProductID, 10)
}
