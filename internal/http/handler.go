package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"catalog-fulfillment/internal/catalog"
	"catalog-fulfillment/internal/orders"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	defaultMaxUploadBytes = 10 << 20
)

type ProductService interface {
	SaveProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	RestockProduct(ctx context.Context, id, quantity int64) (catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	ListProducts(ctx context.Context, page, limit int) ([]catalog.Product, int64, error)
	AllProducts(ctx context.Context) ([]catalog.Product, error)
	SearchProducts(ctx context.Context, keyword string) ([]catalog.Product, error)
	SemanticSearch(ctx context.Context, query string, limit int) ([]catalog.Product, error)
	ProductImage(ctx context.Context, id int64) (catalog.Image, error)
	GenerateDescription(ctx context.Context, name, category string) (string, error)
	GenerateImage(ctx context.Context, name, category, description string) ([]byte, error)
}

type OrderService interface {
	PlaceOrder(ctx context.Context, req orders.Request) (orders.Order, error)
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]orders.Order, int64, error)
}

type ChatService interface {
	Ask(ctx context.Context, message string) (string, error)
}

type Handler struct {
	products       ProductService
	orders         OrderService
	chat           ChatService
	maxUploadBytes int64
}

func NewHandler(productSvc ProductService, orderSvc OrderService, chatSvc ChatService, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		products:       productSvc,
		orders:         orderSvc,
		chat:           chatSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

type errorResponse struct {
	Error string `json:"error" example:"product not found"`
}

type paginationMeta struct {
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"10"`
	Total int64 `json:"total" example:"42"`
}

func parseQueryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return 0, false
	}
	return id, true
}

// writeProductError maps catalog sentinels to status codes. Anything it does
// not recognise is reported as fallback with a 500.
func writeProductError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrNegativePrice),
		errors.Is(err, catalog.ErrPricePrecision),
		errors.Is(err, catalog.ErrNegativeStock),
		errors.Is(err, catalog.ErrInvalidRestock),
		errors.Is(err, catalog.ErrEmptyKeyword),
		errors.Is(err, catalog.ErrGeneratorInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrImageNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}
