package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ticktraq/field-service/internal/api/dto"
	"github.com/ticktraq/field-service/internal/service"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// TicketsHandler exposes the ticket store.
type TicketsHandler struct {
	tickets *service.TicketStore
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketStore) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// ListTickets GET /tickets. Optional q, status and approval query
// parameters update the persistent filters before rendering.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	ctx := c.UserContext()
	view := h.tickets.View()
	if q, ok := query(c, "q"); ok {
		view = h.tickets.SearchTickets(ctx, q)
	}
	if status, ok := query(c, "status"); ok {
		view = h.tickets.FilterByStatus(ctx, status)
	}
	if approval, ok := query(c, "approval"); ok {
		view = h.tickets.FilterByApproval(ctx, approval)
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(view)})
}

// FetchTickets POST /tickets/fetch.
func (h *TicketsHandler) FetchTickets(c *fiber.Ctx) error {
	if err := h.tickets.FetchTickets(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketListResponse(h.tickets.View())})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	ticket, ok := h.tickets.GetTicketByID(id)
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := ticketID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicketStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// BulkUpdate PATCH /tickets.
func (h *TicketsHandler) BulkUpdate(c *fiber.Ctx) error {
	var req dto.BulkUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	n, err := h.tickets.BulkUpdateTickets(c.UserContext(), req.IDs, req.Patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkUpdateResponse{Updated: n}})
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// query reports whether key is present in the query string, even empty.
func query(c *fiber.Ctx, key string) (string, bool) {
	args := c.Context().QueryArgs()
	if !args.Has(key) {
		return "", false
	}
	return string(args.Peek(key)), true
}
