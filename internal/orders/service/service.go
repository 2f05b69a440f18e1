package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"catalog-fulfillment/internal/catalog"
	"catalog-fulfillment/internal/inventory"
	"catalog-fulfillment/internal/orders"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	defaultPersistTimeout = 5 * time.Second
	defaultReleaseTimeout = 5 * time.Second

	orderIDPrefix = "ORD-"
)

const (
	reasonInvalidRequest     = "invalid_request"
	reasonProductNotFound    = "product_not_found"
	reasonProductUnavailable = "product_unavailable"
	reasonInsufficientStock  = "insufficient_stock"
	reasonPersistence        = "persistence_failure"
	reasonInternal           = "internal"
)

type ProductReader interface {
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
}

type Ledger interface {
	Reserve(ctx context.Context, productID, quantity int64) error
	Release(ctx context.Context, productID, quantity int64) error
}

type Repository interface {
	Save(ctx context.Context, o orders.Order) (orders.Order, error)
	FindByOrderID(ctx context.Context, orderID string) (orders.Order, error)
	List(ctx context.Context, limit, offset int) ([]orders.Order, error)
	Count(ctx context.Context) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, event catalog.Event) error
}

type Metrics struct {
	Placed   prometheus.Counter
	Rejected *prometheus.CounterVec
}

// Timeouts bound the order store write and the compensating releases that
// follow a failed attempt.
type Timeouts struct {
	Persist time.Duration
	Release time.Duration
}

type Service struct {
	products  ProductReader
	ledger    Ledger
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
	metrics   Metrics
	timeouts  Timeouts
	newID     func() string
}

func New(
	products ProductReader,
	ledger Ledger,
	repo Repository,
	publisher Publisher,
	logger *slog.Logger,
	metrics Metrics,
	timeouts Timeouts,
) *Service {
	if timeouts.Persist <= 0 {
		timeouts.Persist = defaultPersistTimeout
	}
	if timeouts.Release <= 0 {
		timeouts.Release = defaultReleaseTimeout
	}
	return &Service{
		products:  products,
		ledger:    ledger,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		timeouts:  timeouts,
		newID:     newOrderID,
	}
}

func newOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderIDPrefix + strings.ToUpper(raw[:16])
}

type line struct {
	product  catalog.Product
	quantity int64
}

// PlaceOrder validates the request, reserves stock for every item in request
// order, prices the lines and persists the order. Any failure after the first
// reservation releases everything already reserved, newest first, so an order
// is either fully placed or leaves no trace in the ledger.
func (s *Service) PlaceOrder(ctx context.Context, req orders.Request) (orders.Order, error) {
	if err := validate(req); err != nil {
		s.reject(reasonInvalidRequest)
		return orders.Order{}, err
	}

	lines, err := s.lookup(ctx, req.Items)
	if err != nil {
		return orders.Order{}, err
	}

	reserved, err := s.reserve(ctx, lines)
	if err != nil {
		return orders.Order{}, err
	}

	order := price(lines)
	order.OrderID = s.newID()
	order.CustomerName = strings.TrimSpace(req.CustomerName)
	order.Email = strings.TrimSpace(req.Email)
	order.Status = orders.StatusPlaced

	persistCtx, cancel := context.WithTimeout(ctx, s.timeouts.Persist)
	saved, err := s.repo.Save(persistCtx, order)
	cancel()
	if err != nil {
		s.release(ctx, reserved)
		s.reject(reasonPersistence)
		return orders.Order{}, fmt.Errorf("%w: %w", orders.ErrPersistence, err)
	}

	if err := s.publisher.Publish(ctx, catalog.Event{
		EventType: catalog.EventOrderPlaced,
		OrderID:   saved.OrderID,
		Total:     saved.Total,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("publish order_placed event failed",
			"order_id", saved.OrderID,
			"error", err,
		)
	}

	s.metrics.Placed.Inc()
	s.logger.Info("order placed",
		"order_id", saved.OrderID,
		"items", len(saved.Items),
		"total", saved.Total.StringFixed(2),
	)
	return saved, nil
}

func validate(req orders.Request) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", orders.ErrInvalidRequest)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", orders.ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email %q is malformed", orders.ErrInvalidRequest, email)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", orders.ErrInvalidRequest)
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", orders.ErrInvalidRequest, i)
		}
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, items []orders.ItemRequest) ([]line, error) {
	lines := make([]line, 0, len(items))
	for _, item := range items {
		p, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			s.reject(reasonProductNotFound)
			return nil, fmt.Errorf("product %d: %w", item.ProductID, orders.ErrProductNotFound)
		}
		if err != nil {
			s.reject(reasonInternal)
			return nil, fmt.Errorf("find product %d: %w", item.ProductID, err)
		}
		if !p.ProductAvailable {
			s.reject(reasonProductUnavailable)
			return nil, fmt.Errorf("product %d: %w", item.ProductID, orders.ErrProductUnavailable)
		}
		lines = append(lines, line{product: p, quantity: item.Quantity})
	}
	return lines, nil
}

func (s *Service) reserve(ctx context.Context, lines []line) ([]line, error) {
	reserved := make([]line, 0, len(lines))
	for _, l := range lines {
		err := s.ledger.Reserve(ctx, l.product.ID, l.quantity)
		if err == nil {
			reserved = append(reserved, l)
			continue
		}

		s.release(ctx, reserved)
		switch {
		case errors.Is(err, inventory.ErrInsufficientStock):
			s.reject(reasonInsufficientStock)
			return nil, &orders.InsufficientStockError{ProductID: l.product.ID}
		case errors.Is(err, inventory.ErrUnknownProduct):
			s.reject(reasonProductNotFound)
			return nil, fmt.Errorf("product %d: %w", l.product.ID, orders.ErrProductNotFound)
		default:
			s.reject(reasonInternal)
			return nil, fmt.Errorf("reserve product %d: %w", l.product.ID, err)
		}
	}
	return reserved, nil
}

// release undoes reservations in reverse order. It runs detached from the
// caller's cancellation so a timed-out request still returns its stock.
func (s *Service) release(ctx context.Context, reserved []line) {
	if len(reserved) == 0 {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.Release)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		l := reserved[i]
		if err := s.ledger.Release(releaseCtx, l.product.ID, l.quantity); err != nil {
			s.logger.Error("release reservation failed",
				"product_id", l.product.ID,
				"quantity", l.quantity,
				"error", err,
			)
		}
	}
}

// price uses the unit price read by lookup in this same attempt. A catalog
// price change that lands after lookup does not reach the order.
func price(lines []line) orders.Order {
	order := orders.Order{
		Items: make([]orders.Item, 0, len(lines)),
		Total: decimal.Zero,
	}
	for _, l := range lines {
		lineTotal := l.product.Price.Mul(decimal.NewFromInt(l.quantity))
		order.Items = append(order.Items, orders.Item{
			ProductID:   l.product.ID,
			ProductName: l.product.Name,
			Quantity:    l.quantity,
			UnitPrice:   l.product.Price,
			TotalPrice:  lineTotal,
		})
		order.Total = order.Total.Add(lineTotal)
	}
	return order
}

func (s *Service) reject(reason string) {
	s.metrics.Rejected.WithLabelValues(reason).Inc()
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	o, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return orders.Order{}, fmt.Errorf("repo find: %w", err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, page, limit int) ([]orders.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset := (page - 1) * limit

	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repo list: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("repo count: %w", err)
	}

	return items, total, nil
}
