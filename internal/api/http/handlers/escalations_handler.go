package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// EscalationsHandler manages escalation endpoints.
type EscalationsHandler struct {
	service *service.EscalationService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(escalationService *service.EscalationService) *EscalationsHandler {
	return &EscalationsHandler{service: escalationService}
}

// Escalate POST /admin/tickets/:id/escalate.
func (h *EscalationsHandler) Escalate(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.CreateEscalationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	escalation, err := h.service.Escalate(c.UserContext(), c.Params("id"), admin.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// Resolve POST /admin/escalations/:id/resolve.
func (h *EscalationsHandler) Resolve(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.ResolveEscalationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ResolutionNote) == "" {
		return apperrors.NewValidationError("resolution_note required", nil)
	}
	escalation, err := h.service.ResolveEscalation(c.UserContext(), c.Params("id"), admin.ID, req.ResolutionNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// OpenForTicket GET /admin/tickets/:id/escalation.
func (h *EscalationsHandler) OpenForTicket(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	escalation, err := h.service.OpenForTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if escalation == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": escalationResponse(escalation)})
}

// List GET /admin/escalations.
func (h *EscalationsHandler) List(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var escalatedBy *string
	if c.Query("mine") == "true" {
		escalatedBy = &admin.ID
	}
	var status *domain.EscalationStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.EscalationStatus(strings.ToUpper(raw))
		if s == domain.EscalationStatusOpen || s == domain.EscalationStatusResolved {
			status = &s
		}
	}
	escalations, err := h.service.List(c.UserContext(), escalatedBy, status)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(escalations))
	for i := range escalations {
		items = append(items, escalationResponse(&escalations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
