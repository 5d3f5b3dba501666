package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"inventory/internal/dto"
	"inventory/internal/repositories"
	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InventoryHandler handles HTTP requests for inventory items.
type InventoryHandler struct {
	service *services.InventoryService
	logger  *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(service *services.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the inventory routes with the Fiber app.
// Fixed segments are registered before /:id so they are not captured by it.
func (h *InventoryHandler) RegisterRoutes(router fiber.Router) {
	inventoryRoutes := router.Group("/inventory")
	inventoryRoutes.Get("/", h.HandleGetItems)
	inventoryRoutes.Get("/search/:term?", h.HandleSearchItems)
	inventoryRoutes.Get("/low-stock", h.HandleGetLowStockItems)
	inventoryRoutes.Get("/summary", h.HandleGetSummary)
	inventoryRoutes.Get("/:id", h.HandleGetItemByID)
	inventoryRoutes.Post("/", h.HandleCreateItem)
	inventoryRoutes.Put("/:id", h.HandleUpdateItem)
	inventoryRoutes.Delete("/:id", h.HandleDeleteItem)
}

func itemID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Message: message})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Message: "Item not found"})
}

// internalError logs the cause and answers with a message that does not leak it.
func (h *InventoryHandler) internalError(c *fiber.Ctx, message string, err error) error {
	h.logger.Error(message,
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Message: message})
}

// HandleGetItems retrieves all items.
//
//	@Summary	List inventory items
//	@Tags		inventory
//	@Produce	json
//	@Success	200	{array}		dto.InventoryItemResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/inventory [get]
func (h *InventoryHandler) HandleGetItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext())
	if err != nil {
		return h.internalError(c, "Error retrieving inventory items", err)
	}
	return c.JSON(dto.ToItemResponses(items))
}

// HandleGetItemByID retrieves a single item by its ID.
//
//	@Summary	Get an inventory item
//	@Tags		inventory
//	@Produce	json
//	@Param		id	path		int	true	"Item ID"
//	@Success	200	{object}	dto.InventoryItemResponse
//	@Failure	400	{object}	dto.ErrorResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/inventory/{id} [get]
func (h *InventoryHandler) HandleGetItemByID(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}
	item, err := h.service.GetItem(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return notFound(c)
		}
		return h.internalError(c, "Error retrieving item", err)
	}
	return c.JSON(dto.ToItemResponse(*item))
}

// HandleSearchItems returns items whose name contains the path term.
// An empty term returns every item.
//
//	@Summary	Search inventory items by name
//	@Tags		inventory
//	@Produce	json
//	@Param		term	path	string	true	"Case-insensitive substring of the item name"
//	@Success	200		{array}		dto.InventoryItemResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	500		{object}	dto.ErrorResponse
//	@Router		/inventory/search/{term} [get]
func (h *InventoryHandler) HandleSearchItems(c *fiber.Ctx) error {
	term, err := url.PathUnescape(c.Params("term"))
	if err != nil {
		return badRequest(c, "Invalid search term")
	}
	items, err := h.service.SearchItems(c.UserContext(), term)
	if err != nil {
		return h.internalError(c, "Error searching items", err)
	}
	return c.JSON(dto.ToItemResponses(items))
}

// HandleGetLowStockItems returns items below their reorder level.
//
//	@Summary	List low stock items
//	@Tags		inventory
//	@Produce	json
//	@Success	200	{array}		dto.InventoryItemResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/inventory/low-stock [get]
func (h *InventoryHandler) HandleGetLowStockItems(c *fiber.Ctx) error {
	items, err := h.service.LowStockItems(c.UserContext())
	if err != nil {
		return h.internalError(c, "Error retrieving low stock items", err)
	}
	return c.JSON(dto.ToItemResponses(items))
}

// HandleGetSummary returns the inventory summary.
//
//	@Summary	Summarize the inventory
//	@Tags		inventory
//	@Produce	json
//	@Success	200	{object}	dto.InventorySummaryResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/inventory/summary [get]
func (h *InventoryHandler) HandleGetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return h.internalError(c, "Error retrieving summary", err)
	}
	return c.JSON(dto.ToSummaryResponse(summary))
}

// HandleCreateItem creates a new item.
//
//	@Summary	Create an inventory item
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		item	body		dto.CreateInventoryItemRequest	true	"New item"
//	@Success	201		{object}	dto.InventoryItemResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	500		{object}	dto.ErrorResponse
//	@Router		/inventory [post]
func (h *InventoryHandler) HandleCreateItem(c *fiber.Ctx) error {
	var req dto.CreateInventoryItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := h.service.CreateItem(c.UserContext(), req.ToInput())
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.FromValidationError(verr))
		}
		return h.internalError(c, "Error creating item", err)
	}

	c.Location(fmt.Sprintf("%s/%d", strings.TrimSuffix(c.Path(), "/"), item.ID))
	return c.Status(fiber.StatusCreated).JSON(dto.ToItemResponse(*item))
}

// HandleUpdateItem applies a partial update to an existing item.
//
//	@Summary	Update an inventory item
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int								true	"Item ID"
//	@Param		item	body		dto.UpdateInventoryItemRequest	true	"Fields to change"
//	@Success	200		{object}	dto.InventoryItemResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	500		{object}	dto.ErrorResponse
//	@Router		/inventory/{id} [put]
func (h *InventoryHandler) HandleUpdateItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}
	var req dto.UpdateInventoryItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	item, err := h.service.UpdateItem(c.UserContext(), id, req.ToInput())
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusBadRequest).JSON(dto.FromValidationError(verr))
		case errors.Is(err, repositories.ErrItemNotFound):
			return notFound(c)
		}
		return h.internalError(c, "Error updating item", err)
	}
	return c.JSON(dto.ToItemResponse(*item))
}

// HandleDeleteItem deletes an item by its ID.
//
//	@Summary	Delete an inventory item
//	@Tags		inventory
//	@Param		id	path	int	true	"Item ID"
//	@Success	204
//	@Failure	400	{object}	dto.ErrorResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Failure	500	{object}	dto.ErrorResponse
//	@Router		/inventory/{id} [delete]
func (h *InventoryHandler) HandleDeleteItem(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return badRequest(c, "Invalid item ID")
	}
	deleted, err := h.service.DeleteItem(c.UserContext(), id)
	if err != nil {
		return h.internalError(c, "Error deleting item", err)
	}
	if !deleted {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
