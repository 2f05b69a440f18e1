//go:build integration

package inventory

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"catalog-fulfillment/internal/pgtest"
)

func seedProduct(t *testing.T, db *sql.DB, stock int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO products (name, stock_quantity) VALUES ('seed', $1) RETURNING id`, stock).Scan(&id)
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func TestPostgresLedger_ReserveRelease(t *testing.T) {
	db := pgtest.Setup(t)
	ledger := NewPostgres(db)
	ctx := context.Background()
	id := seedProduct(t, db, 3)

	if err := ledger.Reserve(ctx, id, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := ledger.Reserve(ctx, id, 2); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if left, _ := ledger.Available(ctx, id); left != 1 {
		t.Fatalf("want 1 left, got %d", left)
	}

	if err := ledger.Release(ctx, id, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if left, _ := ledger.Available(ctx, id); left != 3 {
		t.Fatalf("want 3 after release, got %d", left)
	}

	if err := ledger.Restock(ctx, id, 5); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if left, _ := ledger.Available(ctx, id); left != 8 {
		t.Fatalf("want 8 after restock, got %d", left)
	}
	if err := ledger.Restock(ctx, 999999, 1); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("want ErrUnknownProduct on restock, got %v", err)
	}

	if err := ledger.Reserve(ctx, 999999, 1); !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("want ErrUnknownProduct, got %v", err)
	}
	if err := ledger.Reserve(ctx, id, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
}

func TestPostgresLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	db := pgtest.Setup(t)
	ledger := NewPostgres(db)
	ctx := context.Background()
	id := seedProduct(t, db, 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Reserve(ctx, id, 1)
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 10 {
		t.Fatalf("want 10 successful reservations, got %d", success)
	}
	if left, _ := ledger.Available(ctx, id); left != 0 {
		t.Fatalf("want 0 left, got %d", left)
	}
}
