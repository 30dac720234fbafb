package storage

import (
	"context"
	"sync"

	"github.com/cavestore/orderbot/internal/models"
)

// MemoryStore is a mutex-guarded in-memory Store, used by tests and by runs
// that deliberately skip persistence.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]models.Order)}
}

func (ms *MemoryStore) Get(_ context.Context, id string) (*models.Order, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	order, ok := ms.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &order, nil
}

func (ms *MemoryStore) Add(_ context.Context, order *models.Order) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.orders[order.ID]; ok {
		return ErrAlreadyExists
	}

	ms.orders[order.ID] = *order

	return nil
}

func (ms *MemoryStore) Put(_ context.Context, order *models.Order) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.orders[order.ID] = *order

	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.orders[id]; !ok {
		return ErrNotFound
	}

	delete(ms.orders, id)

	return nil
}

func (ms *MemoryStore) All(_ context.Context) ([]models.Order, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	orders := make([]models.Order, 0, len(ms.orders))
	for _, order := range ms.orders {
		orders = append(orders, order)
	}

	return orders, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
