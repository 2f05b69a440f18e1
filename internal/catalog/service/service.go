package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"catalog-fulfillment/internal/catalog"
	"catalog-fulfillment/internal/catalog/index"
	"catalog-fulfillment/internal/inventory"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	defaultSemanticLimit = 10
	maxSemanticLimit     = 50
	// Saves never replace older documents, so a query asks for more matches
	// than it returns to leave room for duplicates of the same product.
	semanticOversample = 3

	defaultIndexTimeout = 5 * time.Second
)

type Repository interface {
	Save(ctx context.Context, p catalog.Product) (catalog.Product, error)
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
	FindAll(ctx context.Context) ([]catalog.Product, error)
	List(ctx context.Context, limit, offset int) ([]catalog.Product, error)
	Count(ctx context.Context) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	Search(ctx context.Context, keyword string) ([]catalog.Product, error)
	Image(ctx context.Context, id int64) (catalog.Image, error)
}

// Stock grows the ledger counter of an existing product.
type Stock interface {
	Restock(ctx context.Context, productID, quantity int64) error
}

type Indexer interface {
	OnProductSaved(ctx context.Context, p catalog.Product)
	OnProductDeleted(ctx context.Context, productID int64)
}

type Searcher interface {
	Query(ctx context.Context, text string, topK int) ([]index.Match, error)
}

type Generator interface {
	GenerateDescription(ctx context.Context, name, category string) (string, error)
	GenerateImage(ctx context.Context, name, category, description string) ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event catalog.Event) error
}

type Metrics struct {
	Saved   prometheus.Counter
	Deleted prometheus.Counter
}

type Service struct {
	repo         Repository
	stock        Stock
	indexer      Indexer
	searcher     Searcher
	generator    Generator
	publisher    Publisher
	logger       *slog.Logger
	metrics      Metrics
	indexTimeout time.Duration
}

func New(
	repo Repository,
	stock Stock,
	indexer Indexer,
	searcher Searcher,
	generator Generator,
	publisher Publisher,
	logger *slog.Logger,
	metrics Metrics,
	indexTimeout time.Duration,
) *Service {
	if indexTimeout <= 0 {
		indexTimeout = defaultIndexTimeout
	}
	return &Service{
		repo:         repo,
		stock:        stock,
		indexer:      indexer,
		searcher:     searcher,
		generator:    generator,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		indexTimeout: indexTimeout,
	}
}

// SaveProduct creates the product when p.ID is zero and updates it otherwise.
// The catalog write decides the outcome; index sync and event publishing run
// afterwards and only log their failures. Stock is taken from p only on
// create; updates keep the ledger's count.
func (s *Service) SaveProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return catalog.Product{}, err
	}

	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("repo save: %w", err)
	}

	s.productChanged(ctx, saved)
	s.metrics.Saved.Inc()
	return saved, nil
}

// RestockProduct adds quantity units to the product's available stock.
func (s *Service) RestockProduct(ctx context.Context, id, quantity int64) (catalog.Product, error) {
	if quantity <= 0 {
		return catalog.Product{}, catalog.ErrInvalidRestock
	}

	err := s.stock.Restock(ctx, id, quantity)
	if errors.Is(err, inventory.ErrUnknownProduct) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("restock: %w", err)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("repo find: %w", err)
	}

	s.productChanged(ctx, p)
	return p, nil
}

// productChanged re-indexes the product and announces the change.
func (s *Service) productChanged(ctx context.Context, p catalog.Product) {
	indexCtx, cancel := s.indexContext(ctx)
	s.indexer.OnProductSaved(indexCtx, p)
	cancel()

	if err := s.publisher.Publish(ctx, catalog.Event{
		EventType: catalog.EventProductSaved,
		ProductID: p.ID,
		Name:      p.Name,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("publish product_saved event failed",
			"product_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("repo delete: %w", err)
	}

	indexCtx, cancel := s.indexContext(ctx)
	s.indexer.OnProductDeleted(indexCtx, id)
	cancel()

	if err := s.publisher.Publish(ctx, catalog.Event{
		EventType: catalog.EventProductDeleted,
		ProductID: id,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.logger.Error("publish product_deleted event failed",
			"product_id", id,
			"error", err,
		)
	}

	s.metrics.Deleted.Inc()
	return nil
}

// indexContext detaches index calls from the request so a client hanging up
// after its write committed does not skip the sync.
func (s *Service) indexContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.indexTimeout)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("repo find: %w", err)
	}
	return p, nil
}

func (s *Service) AllProducts(ctx context.Context) ([]catalog.Product, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo find all: %w", err)
	}
	return items, nil
}

func (s *Service) ListProducts(ctx context.Context, page, limit int) ([]catalog.Product, int64, error) {
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

func (s *Service) SearchProducts(ctx context.Context, keyword string) ([]catalog.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, catalog.ErrEmptyKeyword
	}

	items, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("repo search: %w", err)
	}
	return items, nil
}

// SemanticSearch returns catalog products whose index documents best match
// the query, in match order. Each product appears once and products that no
// longer exist in the catalog are dropped, so stale documents never surface.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, catalog.ErrEmptyKeyword
	}
	if limit < 1 {
		limit = defaultSemanticLimit
	}
	if limit > maxSemanticLimit {
		limit = maxSemanticLimit
	}

	matches, err := s.searcher.Query(ctx, query, limit*semanticOversample)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	seen := make(map[int64]struct{}, len(matches))
	result := make([]catalog.Product, 0, limit)
	for _, m := range matches {
		if len(result) == limit {
			break
		}
		id, err := strconv.ParseInt(m.Metadata[catalog.MetadataProductID], 10, 64)
		if err != nil {
			s.logger.Warn("index document without product id", "document_id", m.DocumentID)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, err := s.repo.FindByID(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("repo find: %w", err)
		}
		result = append(result, p)
	}

	return result, nil
}

func (s *Service) ProductImage(ctx context.Context, id int64) (catalog.Image, error) {
	img, err := s.repo.Image(ctx, id)
	if err != nil {
		return catalog.Image{}, fmt.Errorf("repo image: %w", err)
	}
	return img, nil
}

func (s *Service) GenerateDescription(ctx context.Context, name, category string) (string, error) {
	name, category = strings.TrimSpace(name), strings.TrimSpace(category)
	if name == "" || category == "" {
		return "", catalog.ErrGeneratorInput
	}

	text, err := s.generator.GenerateDescription(ctx, name, category)
	if err != nil {
		return "", fmt.Errorf("generate description: %w", err)
	}
	return text, nil
}

func (s *Service) GenerateImage(ctx context.Context, name, category, description string) ([]byte, error) {
	name, category = strings.TrimSpace(name), strings.TrimSpace(category)
	if name == "" || category == "" {
		return nil, catalog.ErrGeneratorInput
	}

	img, err := s.generator.GenerateImage(ctx, name, category, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return img, nil
}
