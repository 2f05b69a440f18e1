package http

import (
	"errors"
	"net/http"

	"catalog-fulfillment/internal/orders"

	"github.com/gin-gonic/gin"
)

type listOrdersResponse struct {
	Items      []orders.Order `json:"items"`
	Pagination paginationMeta `json:"pagination"`
}

type stockErrorResponse struct {
	Error     string `json:"error" example:"insufficient stock for product 7"`
	ProductID int64  `json:"product_id" example:"7"`
}

// PlaceOrder godoc
// @Summary      Place an order
// @Description  Reserves stock for every item, prices the order from the
// @Description  current catalog and persists it. Either every item is
// @Description  reserved and the order stored, or nothing changes.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      orders.Request  true  "Order request"
// @Success      201   {object}  orders.Order
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  stockErrorResponse
// @Failure      500   {object}  errorResponse
// @Router       /orders [post]
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req orders.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		writeOrderError(c, err, "failed to place order")
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder godoc
// @Summary      Get an order by its order ID
// @Tags         orders
// @Produce      json
// @Param        orderId  path      string  true  "Order ID"
// @Success      200      {object}  orders.Order
// @Failure      404      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /orders/{orderId} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		writeOrderError(c, err, "failed to get order")
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary      List orders with pagination
// @Tags         orders
// @Produce      json
// @Param        page   query     int  false  "Page number"   default(1)
// @Param        limit  query     int  false  "Items per page" default(10)
// @Success      200    {object}  listOrdersResponse
// @Failure      500    {object}  errorResponse
// @Router       /orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	page := parseQueryInt(c.Query("page"), defaultPage)
	limit := parseQueryInt(c.Query("limit"), defaultLimit)

	items, total, err := h.orders.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get orders"})
		return
	}

	c.JSON(http.StatusOK, listOrdersResponse{
		Items: items,
		Pagination: paginationMeta{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

func writeOrderError(c *gin.Context, err error, fallback string) {
	var stockErr *orders.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, stockErrorResponse{Error: stockErr.Error(), ProductID: stockErr.ProductID})
	case errors.Is(err, orders.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, orders.ErrProductNotFound), errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, orders.ErrProductUnavailable):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, orders.ErrPersistence):
		c.JSON(http.StatusInternalServerError, errorResponse{Error: orders.ErrPersistence.Error()})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}
