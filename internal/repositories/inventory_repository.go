package repositories

import (
	"context"
	"errors"

	"inventory/internal/models"
)

// ErrItemNotFound is returned when no item exists for the requested ID.
var ErrItemNotFound = errors.New("inventory item not found")

// InventoryRepository defines the interface for inventory item data access.
//
// Every list operation returns items ordered by item name ascending, ties
// broken by ID ascending.
type InventoryRepository interface {
	GetAll(ctx context.Context) ([]models.InventoryItem, error)
	GetByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	SearchByName(ctx context.Context, term string) ([]models.InventoryItem, error)
	FindLowStock(ctx context.Context) ([]models.InventoryItem, error)
	Insert(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}
