package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory/internal/models"
	"inventory/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher delivers inventory events to downstream consumers.
type EventPublisher interface {
	PublishInventoryEvent(event models.InventoryEvent) error
}

// CreateItemInput carries the fields of a new item. A nil UnitPrice fails
// validation.
type CreateItemInput struct {
	ItemName     string
	Quantity     int
	ReorderLevel int
	UnitPrice    *decimal.Decimal
	SupplierName string
}

// UpdateItemInput carries a partial update; unset fields are left unchanged,
// as are empty ItemName and SupplierName values.
type UpdateItemInput struct {
	ItemName     models.Optional[string]
	Quantity     models.Optional[int]
	ReorderLevel models.Optional[int]
	UnitPrice    models.Optional[decimal.Decimal]
	SupplierName models.Optional[string]
}

// InventoryService handles business logic related to inventory items.
type InventoryService struct {
	repo      repositories.InventoryRepository
	publisher EventPublisher
	logger    *zap.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// Option configures an InventoryService.
type Option func(*InventoryService)

// WithPublisher sets the publisher that receives mutation events.
func WithPublisher(p EventPublisher) Option {
	return func(s *InventoryService) {
		s.publisher = p
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) {
		s.now = now
	}
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(repo repositories.InventoryRepository, logger *zap.Logger, opts ...Option) *InventoryService {
	s := &InventoryService{
		repo:     repo,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is UTC at microsecond precision, which every supported store
// round-trips exactly.
func (s *InventoryService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// ListItems retrieves all items ordered by name.
func (s *InventoryService) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list inventory items", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// GetItem retrieves a single item by its ID.
func (s *InventoryService) GetItem(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrItemNotFound) {
			s.logger.Error("failed to get inventory item", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}
	return item, nil
}

// SearchItems returns items whose name contains term, ignoring case.
// An empty term returns every item.
func (s *InventoryService) SearchItems(ctx context.Context, term string) ([]models.InventoryItem, error) {
	if term == "" {
		return s.ListItems(ctx)
	}
	items, err := s.repo.SearchByName(ctx, term)
	if err != nil {
		s.logger.Error("failed to search inventory items", zap.String("term", term), zap.Error(err))
		return nil, err
	}
	return items, nil
}

// LowStockItems returns items whose quantity is below their reorder level.
func (s *InventoryService) LowStockItems(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("failed to get low stock items", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// Summary aggregates the whole inventory from a single snapshot.
func (s *InventoryService) Summary(ctx context.Context) (models.InventorySummary, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get inventory summary", zap.Error(err))
		return models.InventorySummary{}, err
	}
	return models.Summarize(items), nil
}

// CreateItem validates and persists a new item.
func (s *InventoryService) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	rules := itemRules{
		ItemName:     input.ItemName,
		Quantity:     input.Quantity,
		ReorderLevel: input.ReorderLevel,
		UnitPrice:    input.UnitPrice,
		SupplierName: input.SupplierName,
	}
	if err := validateItem(s.validate, rules); err != nil {
		return nil, err
	}

	now := s.timestamp()
	item := &models.InventoryItem{
		ItemName:     input.ItemName,
		Quantity:     input.Quantity,
		ReorderLevel: input.ReorderLevel,
		UnitPrice:    input.UnitPrice.Round(2),
		SupplierName: input.SupplierName,
		CreatedDate:  now,
		UpdatedDate:  now,
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		s.logger.Error("failed to create inventory item", zap.String("item_name", input.ItemName), zap.Error(err))
		return nil, err
	}

	s.logger.Info("created inventory item", zap.Int64("id", item.ID), zap.String("item_name", item.ItemName))
	s.publish(models.EventItemCreated, *item)
	if item.IsLowStock() {
		s.publish(models.EventItemLowStock, *item)
	}
	return item, nil
}

// UpdateItem applies the supplied fields to an existing item. UpdatedDate
// always advances, even when no value changed.
func (s *InventoryService) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (*models.InventoryItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repositories.ErrItemNotFound) {
			s.logger.Error("failed to load inventory item for update", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}
	wasLow := item.IsLowStock()

	applyText(input.ItemName, &item.ItemName)
	input.Quantity.ApplyTo(&item.Quantity)
	input.ReorderLevel.ApplyTo(&item.ReorderLevel)
	input.UnitPrice.ApplyTo(&item.UnitPrice)
	applyText(input.SupplierName, &item.SupplierName)

	rules := itemRules{
		ItemName:     item.ItemName,
		Quantity:     item.Quantity,
		ReorderLevel: item.ReorderLevel,
		UnitPrice:    &item.UnitPrice,
		SupplierName: item.SupplierName,
	}
	if err := validateItem(s.validate, rules); err != nil {
		return nil, err
	}

	item.UnitPrice = item.UnitPrice.Round(2)
	item.UpdatedDate = s.timestamp()
	if item.UpdatedDate.Before(item.CreatedDate) {
		item.UpdatedDate = item.CreatedDate
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if !errors.Is(err, repositories.ErrItemNotFound) {
			s.logger.Error("failed to update inventory item", zap.Int64("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("updated inventory item", zap.Int64("id", item.ID), zap.String("item_name", item.ItemName))
	s.publish(models.EventItemUpdated, *item)
	if item.IsLowStock() && !wasLow {
		s.publish(models.EventItemLowStock, *item)
	}
	return item, nil
}

// applyText sets dst only for a present, non-empty value.
func applyText(opt models.Optional[string], dst *string) {
	if v, ok := opt.Get(); ok && v != "" {
		*dst = v
	}
}

// DeleteItem removes an item and reports whether it existed.
func (s *InventoryService) DeleteItem(ctx context.Context, id int64) (bool, error) {
	item, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrItemNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("failed to load inventory item for deletion", zap.Int64("id", id), zap.Error(err))
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete inventory item", zap.Int64("id", id), zap.Error(err))
		return false, err
	}
	if !deleted {
		return false, nil
	}

	s.logger.Info("deleted inventory item", zap.Int64("id", id), zap.String("item_name", item.ItemName))
	s.publish(models.EventItemDeleted, *item)
	return true, nil
}

// Ping reports whether the item store is reachable.
func (s *InventoryService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("inventory store unavailable: %w", err)
	}
	return nil
}

// publish sends an event for an already-persisted change. Failures are
// logged and never undo the change.
func (s *InventoryService) publish(eventType models.InventoryEventType, item models.InventoryItem) {
	if s.publisher == nil {
		return
	}
	event := models.InventoryEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		ItemID:       item.ID,
		ItemName:     item.ItemName,
		Quantity:     item.Quantity,
		ReorderLevel: item.ReorderLevel,
		IsLowStock:   item.IsLowStock(),
		OccurredAt:   s.timestamp(),
	}
	if err := s.publisher.PublishInventoryEvent(event); err != nil {
		s.logger.Warn("failed to publish inventory event",
			zap.String("type", string(eventType)),
			zap.Int64("id", item.ID),
			zap.Error(err))
	}
}
