package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ticktraq/field-service/internal/api/dto"
	"github.com/ticktraq/field-service/internal/domain"
	"github.com/ticktraq/field-service/internal/service"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// LogsHandler exposes the daily log timesheet.
type LogsHandler struct {
	logs *service.LogsStore
}

// NewLogsHandler constructs handler.
func NewLogsHandler(logs *service.LogsStore) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// View GET /logs. A q parameter replaces the search query.
func (h *LogsHandler) View(c *fiber.Ctx) error {
	if q, ok := query(c, "q"); ok {
		return c.JSON(fiber.Map{"data": h.logs.SetSearchQuery(c.UserContext(), q)})
	}
	return c.JSON(fiber.Map{"data": h.logs.View()})
}

// AddRow POST /logs.
func (h *LogsHandler) AddRow(c *fiber.Ctx) error {
	row := h.logs.AddLogRow(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": row})
}

// UpdateRow PATCH /logs/:id.
func (h *LogsHandler) UpdateRow(c *fiber.Ctx) error {
	var patch domain.DailyLogPatch
	if err := c.BodyParser(&patch); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	row, err := h.logs.UpdateLogRow(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": row})
}

// DeleteRow DELETE /logs/:id.
func (h *LogsHandler) DeleteRow(c *fiber.Ctx) error {
	if err := h.logs.DeleteLogRow(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveRow POST /logs/:id/save.
func (h *LogsHandler) SaveRow(c *fiber.Ctx) error {
	return h.rowAction(c, h.logs.SaveLogRow)
}

// BeginEdit POST /logs/:id/edit.
func (h *LogsHandler) BeginEdit(c *fiber.Ctx) error {
	return h.rowAction(c, h.logs.BeginEdit)
}

// CancelEdit POST /logs/:id/cancel.
func (h *LogsHandler) CancelEdit(c *fiber.Ctx) error {
	return h.rowAction(c, h.logs.CancelEdit)
}

// AttachDocument POST /logs/:id/attachment.
func (h *LogsHandler) AttachDocument(c *fiber.Ctx) error {
	var req dto.AttachDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.logs.AttachDocument(c.UserContext(), c.Params("id"), req.Name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.logs.View()})
}

func (h *LogsHandler) rowAction(c *fiber.Ctx, fn func(ctx context.Context, id string) error) error {
	if err := fn(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.logs.View()})
}
