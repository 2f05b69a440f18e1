package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-fulfillment/internal/catalog"
	"catalog-fulfillment/internal/catalog/indexer"
)

const defaultContextProducts = 5

var ErrEmptyQuestion = errors.New("message is required")

type Retriever interface {
	SemanticSearch(ctx context.Context, query string, limit int) ([]catalog.Product, error)
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Assistant answers shopper questions grounded on catalog products that
// match the question semantically.
type Assistant struct {
	retriever Retriever
	model     Completer
	limit     int
}

func NewAssistant(retriever Retriever, model Completer, limit int) *Assistant {
	if limit < 1 {
		limit = defaultContextProducts
	}
	return &Assistant{retriever: retriever, model: model, limit: limit}
}

const chatPrompt = `You are a helpful shopping assistant for an e-commerce store.
Answer the customer's question using only the product information below.
If the information is not enough to answer, say you could not find a matching product.

Products:
%s
Question: %s`

func (a *Assistant) Ask(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyQuestion
	}

	products, err := a.retriever.SemanticSearch(ctx, message, a.limit)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	var b strings.Builder
	if len(products) == 0 {
		b.WriteString("(no matching products)\n")
	}
	for _, p := range products {
		b.WriteString(indexer.Summary(p))
		b.WriteString("\n")
	}

	reply, err := a.model.Complete(ctx, fmt.Sprintf(chatPrompt, b.String(), message))
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return reply, nil
}
