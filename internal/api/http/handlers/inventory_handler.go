package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticktraq/field-service/internal/api/dto"
	"github.com/ticktraq/field-service/internal/service"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// InventoryHandler exposes the inventory store.
type InventoryHandler struct {
	inventory *service.InventoryStore
}

// NewInventoryHandler constructs handler.
func NewInventoryHandler(inventory *service.InventoryStore) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

// View GET /inventory.
func (h *InventoryHandler) View(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.inventory.View()})
}

// FetchRequests POST /inventory/requests/fetch.
func (h *InventoryHandler) FetchRequests(c *fiber.Ctx) error {
	return h.fetched(c, h.inventory.FetchRequests(c.UserContext()))
}

// FetchReceived POST /inventory/received/fetch.
func (h *InventoryHandler) FetchReceived(c *fiber.Ctx) error {
	return h.fetched(c, h.inventory.FetchReceived(c.UserContext()))
}

// FetchReturns POST /inventory/returns/fetch.
func (h *InventoryHandler) FetchReturns(c *fiber.Ctx) error {
	return h.fetched(c, h.inventory.FetchReturns(c.UserContext()))
}

func (h *InventoryHandler) fetched(c *fiber.Ctx, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.inventory.View()})
}

// AddRequest POST /inventory/requests.
func (h *InventoryHandler) AddRequest(c *fiber.Ctx) error {
	var req dto.AddRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.inventory.AddRequest(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// DeleteRequest DELETE /inventory/requests/:id.
func (h *InventoryHandler) DeleteRequest(c *fiber.Ctx) error {
	if err := h.inventory.DeleteRequest(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptItem POST /inventory/received/:id/accept.
func (h *InventoryHandler) AcceptItem(c *fiber.Ctx) error {
	item, err := h.inventory.AcceptItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": item})
}

// ApplyItem POST /inventory/received/:id/apply.
func (h *InventoryHandler) ApplyItem(c *fiber.Ctx) error {
	var req dto.ApplyItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.inventory.ApplyItem(c.UserContext(), c.Params("id"), req.Input()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReturnItem POST /inventory/received/:id/return.
func (h *InventoryHandler) ReturnItem(c *fiber.Ctx) error {
	var req dto.ReturnItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.inventory.ReturnItem(c.UserContext(), c.Params("id"), req.Input())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": item})
}

// SearchCatalog GET /inventory/catalog?q=.
func (h *InventoryHandler) SearchCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.inventory.SearchCatalog(c.Query("q"))})
}
