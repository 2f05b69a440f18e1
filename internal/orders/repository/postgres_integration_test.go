//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"catalog-fulfillment/internal/orders"
	"catalog-fulfillment/internal/pgtest"

	"github.com/shopspring/decimal"
)

func newOrder(id string) orders.Order {
	return orders.Order{
		OrderID:      id,
		CustomerName: "Ada Lovelace",
		Email:        "ada@example.com",
		Status:       orders.StatusPlaced,
		Items: []orders.Item{
			{ProductID: 7, ProductName: "Headphones", Quantity: 2,
				UnitPrice: decimal.RequireFromString("19.99"), TotalPrice: decimal.RequireFromString("39.98")},
			{ProductID: 3, ProductName: "Cable", Quantity: 1,
				UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("5.00")},
		},
		Total: decimal.RequireFromString("44.98"),
	}
}

func TestPostgresRepository_SaveAndFind(t *testing.T) {
	db := pgtest.Setup(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newOrder("ORD-0000000000000001"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.OrderDate.IsZero() {
		t.Fatal("expected order date from the store")
	}

	got, err := repo.FindByOrderID(ctx, "ORD-0000000000000001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Total.Equal(decimal.RequireFromString("44.98")) {
		t.Fatalf("want total 44.98, got %s", got.Total)
	}
	if len(got.Items) != 2 || got.Items[0].ProductID != 7 || got.Items[1].ProductID != 3 {
		t.Fatalf("items must come back in request order: %+v", got.Items)
	}
	if !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected unit price %s", got.Items[0].UnitPrice)
	}

	if _, err := repo.FindByOrderID(ctx, "ORD-MISSING"); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_SaveIsAtomic(t *testing.T) {
	db := pgtest.Setup(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	bad := newOrder("ORD-0000000000000002")
	bad.Items[1].Quantity = 0

	if _, err := repo.Save(ctx, bad); err == nil {
		t.Fatal("expected item constraint violation")
	}
	if _, err := repo.FindByOrderID(ctx, bad.OrderID); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("failed save must leave no header, got %v", err)
	}

	if _, err := repo.Save(ctx, newOrder("ORD-0000000000000003")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.Save(ctx, newOrder("ORD-0000000000000003")); err == nil {
		t.Fatal("expected duplicate order id to be rejected")
	}
}

func TestPostgresRepository_ListCount(t *testing.T) {
	db := pgtest.Setup(t)
	repo := NewPostgres(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, err := repo.Save(ctx, newOrder(fmt.Sprintf("ORD-%016d", i))); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	count, err := repo.Count(ctx)
	if err != nil || count != 5 {
		t.Fatalf("want count 5, got %d, %v", count, err)
	}

	page, err := repo.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("want 2 orders, got %d", len(page))
	}
	for _, o := range page {
		if len(o.Items) != 2 {
			t.Fatalf("order %s: want items loaded, got %d", o.OrderID, len(o.Items))
		}
	}

	empty, _ := repo.List(ctx, 10, 100)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", empty)
	}
}
