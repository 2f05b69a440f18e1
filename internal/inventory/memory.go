package inventory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MemoryLedger is an arena of per-product atomic counters. The map lock only
// guards counter lookup and creation; reservations themselves are lock-free
// compare-and-swap loops on the product's own counter.
type MemoryLedger struct {
	mu       sync.RWMutex
	counters map[int64]*atomic.Int64
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{counters: make(map[int64]*atomic.Int64)}
}

// Set replaces the available quantity for a product, creating the entry when
// needed.
func (l *MemoryLedger) Set(productID, quantity int64) {
	l.counter(productID, true).Store(quantity)
}

func (l *MemoryLedger) Reserve(_ context.Context, productID, quantity int64) error {
	if err := checkQuantity(productID, quantity); err != nil {
		return err
	}
	c := l.counter(productID, false)
	if c == nil {
		return fmt.Errorf("reserve product %d: %w", productID, ErrUnknownProduct)
	}
	for {
		current := c.Load()
		if current < quantity {
			return fmt.Errorf("reserve product %d: %w", productID, ErrInsufficientStock)
		}
		if c.CompareAndSwap(current, current-quantity) {
			return nil
		}
	}
}

func (l *MemoryLedger) Release(_ context.Context, productID, quantity int64) error {
	return l.add("release", productID, quantity)
}

func (l *MemoryLedger) Restock(_ context.Context, productID, quantity int64) error {
	return l.add("restock", productID, quantity)
}

func (l *MemoryLedger) add(op string, productID, quantity int64) error {
	if err := checkQuantity(productID, quantity); err != nil {
		return err
	}
	c := l.counter(productID, false)
	if c == nil {
		return fmt.Errorf("%s product %d: %w", op, productID, ErrUnknownProduct)
	}
	c.Add(quantity)
	return nil
}

func (l *MemoryLedger) Available(_ context.Context, productID int64) (int64, error) {
	c := l.counter(productID, false)
	if c == nil {
		return 0, fmt.Errorf("product %d: %w", productID, ErrUnknownProduct)
	}
	return c.Load(), nil
}

func (l *MemoryLedger) counter(productID int64, create bool) *atomic.Int64 {
	l.mu.RLock()
	c, ok := l.counters[productID]
	l.mu.RUnlock()
	if ok || !create {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok = l.counters[productID]; ok {
		return c
	}
	c = new(atomic.Int64)
	l.counters[productID] = c
	return c
}
