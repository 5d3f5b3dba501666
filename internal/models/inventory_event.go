package models

import "time"

// InventoryEventType names a change that happened to an item.
type InventoryEventType string

const (
	EventItemCreated  InventoryEventType = "inventory.item.created"
	EventItemUpdated  InventoryEventType = "inventory.item.updated"
	EventItemDeleted  InventoryEventType = "inventory.item.deleted"
	EventItemLowStock InventoryEventType = "inventory.item.low_stock"
)

// InventoryEvent is published after a mutation has been persisted.
type InventoryEvent struct {
	ID           string             `json:"id"`
	Type         InventoryEventType `json:"type"`
	ItemID       int64              `json:"itemId"`
	ItemName     string             `json:"itemName"`
	Quantity     int                `json:"quantity"`
	ReorderLevel int                `json:"reorderLevel"`
	IsLowStock   bool               `json:"isLowStock"`
	OccurredAt   time.Time          `json:"occurredAt"`
}
