package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ticktraq/field-service/internal/api/dto"
	"github.com/ticktraq/field-service/internal/auth"
	"github.com/ticktraq/field-service/internal/service"
	apperrors "github.com/ticktraq/field-service/pkg/util"
)

// SessionHandler exposes the mocked session.
type SessionHandler struct {
	session *service.SessionStore
}

// NewSessionHandler constructs handler.
func NewSessionHandler(session *service.SessionStore) *SessionHandler {
	return &SessionHandler{session: session}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	view, err := h.session.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	resp := fiber.Map{"user": view.User}
	if view.ExpiresAt != nil {
		resp["auth"] = dto.AuthResponse{Token: view.Token, ExpiresAt: *view.ExpiresAt}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Logout handles POST /auth/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.session.Logout(c.UserContext())})
}

// Check handles GET /auth/session.
func (h *SessionHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.session.CheckAuth(c.UserContext())})
}

// Me handles GET /auth/me; it requires a valid bearer token.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "bearer token required")
	}
	id, err := claims.UserID()
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid subject")
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		UserID: id,
		Email:  claims.Email,
		Name:   claims.Name,
		Role:   string(claims.Role),
	}})
}
