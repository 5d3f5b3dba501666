package dto

import (
	"encoding/json"
	"time"

	"inventory/internal/models"
	"inventory/internal/services"

	"github.com/shopspring/decimal"
)

// InventoryItemResponse is the wire representation of an item.
type InventoryItemResponse struct {
	ID           int64       `json:"id"`
	ItemName     string      `json:"itemName"`
	Quantity     int         `json:"quantity"`
	ReorderLevel int         `json:"reorderLevel"`
	UnitPrice    json.Number `json:"unitPrice" swaggertype:"number" example:"12.50"`
	SupplierName string      `json:"supplierName"`
	CreatedDate  time.Time   `json:"createdDate"`
	UpdatedDate  time.Time   `json:"updatedDate"`
	IsLowStock   bool        `json:"isLowStock"`
}

// CreateInventoryItemRequest is the payload accepted when creating an item.
type CreateInventoryItemRequest struct {
	ItemName     string           `json:"itemName"`
	Quantity     *int             `json:"quantity"`
	ReorderLevel *int             `json:"reorderLevel"`
	UnitPrice    *decimal.Decimal `json:"unitPrice" swaggertype:"number" example:"12.50"`
	SupplierName string           `json:"supplierName"`
}

// UpdateInventoryItemRequest is the payload accepted when updating an item.
// Absent or null fields are left unchanged, as are empty names.
type UpdateInventoryItemRequest struct {
	ItemName     models.Optional[string]          `json:"itemName" swaggertype:"string"`
	Quantity     models.Optional[int]             `json:"quantity" swaggertype:"integer"`
	ReorderLevel models.Optional[int]             `json:"reorderLevel" swaggertype:"integer"`
	UnitPrice    models.Optional[decimal.Decimal] `json:"unitPrice" swaggertype:"number"`
	SupplierName models.Optional[string]          `json:"supplierName" swaggertype:"string"`
}

// InventorySummaryResponse is the wire representation of the summary.
type InventorySummaryResponse struct {
	TotalItems          int         `json:"totalItems"`
	TotalQuantity       int64       `json:"totalQuantity"`
	LowStockCount       int         `json:"lowStockCount"`
	TotalInventoryValue json.Number `json:"totalInventoryValue" swaggertype:"number"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// ToItemResponse maps an item to its wire form, deriving isLowStock.
func ToItemResponse(item models.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:           item.ID,
		ItemName:     item.ItemName,
		Quantity:     item.Quantity,
		ReorderLevel: item.ReorderLevel,
		UnitPrice:    money(item.UnitPrice),
		SupplierName: item.SupplierName,
		CreatedDate:  item.CreatedDate.UTC(),
		UpdatedDate:  item.UpdatedDate.UTC(),
		IsLowStock:   item.IsLowStock(),
	}
}

// ToItemResponses maps a list of items, never returning nil.
func ToItemResponses(items []models.InventoryItem) []InventoryItemResponse {
	out := make([]InventoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToItemResponse(item))
	}
	return out
}

// ToSummaryResponse maps the summary to its wire form.
func ToSummaryResponse(s models.InventorySummary) InventorySummaryResponse {
	return InventorySummaryResponse{
		TotalItems:          s.TotalItems,
		TotalQuantity:       s.TotalQuantity,
		LowStockCount:       s.LowStockCount,
		TotalInventoryValue: money(s.TotalInventoryValue),
	}
}

// ToInput applies creation defaults: quantity 0, reorder level 10. An absent
// unit price stays nil and is rejected by validation.
func (r CreateInventoryItemRequest) ToInput() services.CreateItemInput {
	input := services.CreateItemInput{
		ItemName:     r.ItemName,
		ReorderLevel: models.DefaultReorderLevel,
		UnitPrice:    r.UnitPrice,
		SupplierName: r.SupplierName,
	}
	if r.Quantity != nil {
		input.Quantity = *r.Quantity
	}
	if r.ReorderLevel != nil {
		input.ReorderLevel = *r.ReorderLevel
	}
	return input
}

// ToInput converts the payload into a partial update.
func (r UpdateInventoryItemRequest) ToInput() services.UpdateItemInput {
	return services.UpdateItemInput{
		ItemName:     r.ItemName,
		Quantity:     r.Quantity,
		ReorderLevel: r.ReorderLevel,
		UnitPrice:    r.UnitPrice,
		SupplierName: r.SupplierName,
	}
}

// FromValidationError lists every invalid field keyed by its wire name.
func FromValidationError(err *services.ValidationError) ErrorResponse {
	fields := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		fields[f.Field] = f.Message
	}
	return ErrorResponse{Message: "Validation failed", Errors: fields}
}
