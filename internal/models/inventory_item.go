package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultReorderLevel is applied when a new item does not specify one.
const DefaultReorderLevel = 10

// InventoryItem represents a tracked stock item.
type InventoryItem struct {
	ID           int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemName     string          `json:"itemName" gorm:"type:varchar(200);not null;index"`
	Quantity     int             `json:"quantity" gorm:"not null;index"`
	ReorderLevel int             `json:"reorderLevel" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unitPrice" gorm:"type:decimal(18,2);not null"`
	SupplierName string          `json:"supplierName" gorm:"type:varchar(200);not null"`
	CreatedDate  time.Time       `json:"createdDate" gorm:"not null;precision:6"`
	UpdatedDate  time.Time       `json:"updatedDate" gorm:"not null;precision:6"`
}

// TableName overrides the table name used by GORM.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock reports whether the item has fallen below its reorder level.
// It is never persisted.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity < i.ReorderLevel
}

// StockValue is UnitPrice * Quantity.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AfterFind normalizes timestamps read back from the store to UTC.
func (i *InventoryItem) AfterFind(tx *gorm.DB) error {
	i.CreatedDate = i.CreatedDate.UTC()
	i.UpdatedDate = i.UpdatedDate.UTC()
	return nil
}

// InventorySummary is the aggregate over the full record set.
type InventorySummary struct {
	TotalItems          int
	TotalQuantity       int64
	LowStockCount       int
	TotalInventoryValue decimal.Decimal
}

// Summarize folds a snapshot of items into an InventorySummary.
func Summarize(items []InventoryItem) InventorySummary {
	summary := InventorySummary{TotalInventoryValue: decimal.Zero}
	for _, item := range items {
		summary.TotalItems++
		summary.TotalQuantity += int64(item.Quantity)
		if item.IsLowStock() {
			summary.LowStockCount++
		}
		summary.TotalInventoryValue = summary.TotalInventoryValue.Add(item.StockValue())
	}
	return summary
}
