package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AuthHandler manages login endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// LoginUser POST /auth/users/login.
func (h *AuthHandler) LoginUser(c *fiber.Ctx) error {
	email, password, err := parseLogin(c)
	if err != nil {
		return err
	}
	token, expiresAt, err := h.service.LoginUser(c.UserContext(), email, password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{AccessToken: token, ExpiresAt: expiresAt}})
}

// LoginAdmin POST /auth/admins/login.
func (h *AuthHandler) LoginAdmin(c *fiber.Ctx) error {
	email, password, err := parseLogin(c)
	if err != nil {
		return err
	}
	token, expiresAt, err := h.service.LoginAdmin(c.UserContext(), email, password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{AccessToken: token, ExpiresAt: expiresAt}})
}

func parseLogin(c *fiber.Ctx) (string, string, error) {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "", apperrors.NewValidationError("invalid payload", nil)
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return "", "", apperrors.NewValidationError("email and password required", nil)
	}
	return email, req.Password, nil
}
