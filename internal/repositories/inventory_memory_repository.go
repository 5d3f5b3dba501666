package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"inventory/internal/models"
)

// MemoryInventoryRepository is an in-memory implementation of InventoryRepository.
type MemoryInventoryRepository struct {
	items  map[int64]models.InventoryItem
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryInventoryRepository creates a new instance of MemoryInventoryRepository.
func NewMemoryInventoryRepository() *MemoryInventoryRepository {
	return &MemoryInventoryRepository{
		items: make(map[int64]models.InventoryItem),
	}
}

// filter copies matching items under a single read lock and sorts them.
func (r *MemoryInventoryRepository) filter(match func(models.InventoryItem) bool) []models.InventoryItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemList := make([]models.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		if match(item) {
			itemList = append(itemList, item)
		}
	}
	sort.Slice(itemList, func(i, j int) bool {
		if itemList[i].ItemName != itemList[j].ItemName {
			return itemList[i].ItemName < itemList[j].ItemName
		}
		return itemList[i].ID < itemList[j].ID
	})
	return itemList
}

// GetAll returns all items.
func (r *MemoryInventoryRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	return r.filter(func(models.InventoryItem) bool { return true }), nil
}

// GetByID returns an item by its ID.
func (r *MemoryInventoryRepository) GetByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &item, nil
}

// SearchByName returns items whose name contains term, ignoring case.
func (r *MemoryInventoryRepository) SearchByName(ctx context.Context, term string) ([]models.InventoryItem, error) {
	needle := strings.ToLower(term)
	return r.filter(func(item models.InventoryItem) bool {
		return strings.Contains(strings.ToLower(item.ItemName), needle)
	}), nil
}

// FindLowStock returns items whose quantity is below their reorder level.
func (r *MemoryInventoryRepository) FindLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return r.filter(models.InventoryItem.IsLowStock), nil
}

// Insert adds a new item and assigns the next ID. IDs are never reused.
func (r *MemoryInventoryRepository) Insert(ctx context.Context, item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = *item
	return nil
}

// Update replaces an existing item.
func (r *MemoryInventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return ErrItemNotFound
	}
	updated := *item
	updated.CreatedDate = existing.CreatedDate
	r.items[item.ID] = updated
	return nil
}

// Delete removes an item by its ID.
func (r *MemoryInventoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

// Ping always succeeds.
func (r *MemoryInventoryRepository) Ping(ctx context.Context) error {
	return nil
}
