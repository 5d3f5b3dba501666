package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory/internal/models"

	"gorm.io/gorm"
)

const likeEscape = "!"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// GORMInventoryRepository is a GORM implementation of InventoryRepository.
type GORMInventoryRepository struct {
	db *gorm.DB
}

// NewGORMInventoryRepository creates a new instance of GORMInventoryRepository.
func NewGORMInventoryRepository(db *gorm.DB) *GORMInventoryRepository {
	return &GORMInventoryRepository{
		db: db,
	}
}

// session scopes a fresh GORM session to a single operation.
func (r *GORMInventoryRepository) session(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InventoryItem{})
}

func ordered(tx *gorm.DB) *gorm.DB {
	return tx.Order("item_name ASC").Order("id ASC")
}

// GetAll retrieves every item from the database in a single query.
func (r *GORMInventoryRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	if err := ordered(r.session(ctx)).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get all inventory items: %w", err)
	}
	return items, nil
}

// GetByID retrieves a single item by its ID from the database.
func (r *GORMInventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.session(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item by ID %d: %w", id, err)
	}
	return &item, nil
}

// SearchByName returns items whose name contains term, ignoring case.
func (r *GORMInventoryRepository) SearchByName(ctx context.Context, term string) ([]models.InventoryItem, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	items := []models.InventoryItem{}
	err := ordered(r.session(ctx)).
		Where("LOWER(item_name) LIKE ? ESCAPE '"+likeEscape+"'", pattern).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search inventory items for %q: %w", term, err)
	}
	return items, nil
}

// FindLowStock returns items whose quantity is below their reorder level.
func (r *GORMInventoryRepository) FindLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	if err := ordered(r.session(ctx)).Where("quantity < reorder_level").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", err)
	}
	return items, nil
}

// Insert creates a new item; the database assigns its ID.
func (r *GORMInventoryRepository) Insert(ctx context.Context, item *models.InventoryItem) error {
	item.ID = 0
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

// Update writes every mutable column of an existing item. Unlike Save it
// never falls back to an insert, so a deleted ID stays deleted.
func (r *GORMInventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	res := r.session(ctx).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"item_name":     item.ItemName,
		"quantity":      item.Quantity,
		"reorder_level": item.ReorderLevel,
		"unit_price":    item.UnitPrice,
		"supplier_name": item.SupplierName,
		"updated_date":  item.UpdatedDate,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update inventory item %d: %w", item.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes an item by its ID and reports whether it existed.
func (r *GORMInventoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete inventory item %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Ping checks that the underlying connection pool is reachable.
func (r *GORMInventoryRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
