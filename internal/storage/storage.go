package storage

import (
	"context"
	"errors"

	"github.com/cavestore/orderbot/internal/models"
)

var (
	ErrNotFound      = errors.New("order not found in store")
	ErrAlreadyExists = errors.New("order id already exists in store")
)

// Store is the authoritative home of all order records. Every component reads
// and writes through it; mutations always replace the whole record.
type Store interface {
	Get(ctx context.Context, id string) (*models.Order, error)

	// Add inserts a new record and fails with ErrAlreadyExists when the id
	// is taken; Put replaces an existing record unconditionally.
	Add(ctx context.Context, order *models.Order) error

	Put(ctx context.Context, order *models.Order) error

	Delete(ctx context.Context, id string) error

	All(ctx context.Context) ([]models.Order, error)

	Close() error
}
