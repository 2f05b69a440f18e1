// Package index stores the semantic documents behind product search in
// Postgres with the pgvector extension. Text is embedded on write and on
// query; ranking is cosine distance computed by the database.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions must match the product_documents.embedding column.
const EmbeddingDimensions = 1536

var ErrDimensionMismatch = errors.New("embedding has wrong number of dimensions")

// Match is one document returned by a similarity query, best match first.
type Match struct {
	DocumentID string
	Text       string
	Metadata   map[string]string
	Score      float64
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Store struct {
	db       *sql.DB
	embedder Embedder
}

func NewStore(db *sql.DB, embedder Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(vec) != EmbeddingDimensions {
		return pgvector.Vector{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), EmbeddingDimensions)
	}
	return pgvector.NewVector(vec), nil
}

func (s *Store) Upsert(ctx context.Context, documentID, text string, metadata map[string]string) error {
	vec, err := s.embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document %s: %w", documentID, err)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO product_documents (document_id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id) DO UPDATE SET
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding
	`
	if _, err := s.db.ExecContext(ctx, query, documentID, text, string(meta), vec); err != nil {
		return fmt.Errorf("upsert document %s: %w", documentID, err)
	}
	return nil
}

// Delete removes a document. Deleting a document that was never written is
// not an error.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM product_documents WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if topK < 1 {
		return []Match{}, nil
	}
	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	query := `
		SELECT document_id, content, metadata, 1 - (embedding <=> $1::vector) AS score
		FROM product_documents
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, topK)
	for rows.Next() {
		var (
			m    Match
			meta []byte
		)
		if err := rows.Scan(&m.DocumentID, &m.Text, &meta, &m.Score); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", m.DocumentID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return matches, nil
}
