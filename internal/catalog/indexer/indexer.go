// Package indexer keeps the semantic index in step with catalog writes.
//
// The catalog is authoritative and the index is best effort: every failure
// here is logged and counted, never returned to the catalog caller. A product
// whose sync failed is repaired by saving it again.
package indexer

import (
	"context"
	"log/slog"
	"strconv"

	"catalog-fulfillment/internal/catalog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type Index interface {
	Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error
	Delete(ctx context.Context, documentID string) error
}

type Registry interface {
	Add(ctx context.Context, productID int64, documentID string) error
	Documents(ctx context.Context, productID int64) ([]string, error)
	Remove(ctx context.Context, productID int64, documentID string) error
}

type Indexer struct {
	index    Index
	registry Registry
	logger   *slog.Logger
	failures prometheus.Counter
	newID    func() string
}

func New(index Index, registry Registry, logger *slog.Logger, failures prometheus.Counter) *Indexer {
	return &Indexer{
		index:    index,
		registry: registry,
		logger:   logger,
		failures: failures,
		newID:    uuid.NewString,
	}
}

// OnProductSaved writes one new document for the product under a fresh id.
// Documents from earlier saves of the same product are left in place.
//
// The id is registered before the upsert so every document that reaches the
// index can be found again on delete. An id whose upsert failed stays
// registered; deleting a missing document is a no-op.
func (i *Indexer) OnProductSaved(ctx context.Context, p catalog.Product) {
	documentID := i.newID()
	metadata := map[string]string{
		catalog.MetadataProductID: strconv.FormatInt(p.ID, 10),
	}

	if err := i.registry.Add(ctx, p.ID, documentID); err != nil {
		i.fail("register index document failed", p.ID, documentID, err)
		return
	}

	if err := i.index.Upsert(ctx, documentID, Summary(p), metadata); err != nil {
		i.fail("upsert index document failed", p.ID, documentID, err)
		return
	}

	i.logger.Debug("product indexed", "product_id", p.ID, "document_id", documentID)
}

// OnProductDeleted removes every document registered for the product. A
// document that cannot be removed stays registered so a later delete can
// retry it.
func (i *Indexer) OnProductDeleted(ctx context.Context, productID int64) {
	documentIDs, err := i.registry.Documents(ctx, productID)
	if err != nil {
		i.fail("list index documents failed", productID, "", err)
		return
	}

	for _, documentID := range documentIDs {
		if err := i.index.Delete(ctx, documentID); err != nil {
			i.fail("delete index document failed", productID, documentID, err)
			continue
		}
		if err := i.registry.Remove(ctx, productID, documentID); err != nil {
			i.fail("unregister index document failed", productID, documentID, err)
		}
	}
}

func (i *Indexer) fail(msg string, productID int64, documentID string, err error) {
	i.failures.Inc()
	i.logger.Error(msg,
		"product_id", productID,
		"document_id", documentID,
		"error", err,
	)
}
