package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AdminTicketsHandler manages administrator-facing ticket endpoints.
type AdminTicketsHandler struct {
	lifecycle     *service.LifecycleService
	notifications *service.NotificationService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(lifecycle *service.LifecycleService, notifications *service.NotificationService) *AdminTicketsHandler {
	return &AdminTicketsHandler{lifecycle: lifecycle, notifications: notifications}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	filter := parseTicketQuery(c)
	if c.Query("mine") == "true" {
		principal, _ := auth.PrincipalFromContext(c)
		filter.AssignedAdminID = &principal.Admin.ID
	}
	tickets, err := h.lifecycle.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	ticket, err := h.lifecycle.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CountsByStatus GET /admin/tickets/counts.
func (h *AdminTicketsHandler) CountsByStatus(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	var departmentID *string
	if raw := c.Query("department_id"); raw != "" {
		departmentID = &raw
	}
	counts, err := h.lifecycle.CountsByStatus(c.UserContext(), departmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusCountsResponse{
		Open:       counts[domain.TicketStatusOpen],
		InProgress: counts[domain.TicketStatusInProgress],
		Resolved:   counts[domain.TicketStatusResolved],
		Closed:     counts[domain.TicketStatusClosed],
	}})
}

// AssignTicket POST /admin/tickets/:id/assign. The caller claims the ticket
// for themselves.
func (h *AdminTicketsHandler) AssignTicket(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	ticket, err := h.lifecycle.Assign(c.UserContext(), c.Params("id"), admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ResolveTicket POST /admin/tickets/:id/resolve.
func (h *AdminTicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.ResolveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ResolutionNote) == "" {
		return apperrors.NewValidationError("resolution_note required", nil)
	}
	ticket, err := h.lifecycle.Resolve(c.UserContext(), c.Params("id"), admin.ID, req.ResolutionNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// EditDetails PATCH /admin/tickets/:id/details.
func (h *AdminTicketsHandler) EditDetails(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.EditDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.lifecycle.EditDetails(c.UserContext(), c.Params("id"), admin.ID, domain.TicketDetails{
		Classification: strings.TrimSpace(req.Classification),
		Category:       strings.TrimSpace(req.Category),
		Module:         strings.TrimSpace(req.Module),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddMessage POST /admin/tickets/:id/messages.
func (h *AdminTicketsHandler) AddMessage(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	msg, err := h.lifecycle.AddMessage(c.UserContext(), domain.AuthorTypeAdmin, admin.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// ListMessages GET /admin/tickets/:id/messages. Marks the conversation read
// for the viewing admin.
func (h *AdminTicketsHandler) ListMessages(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	msgs, err := h.lifecycle.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.notifications.MarkConversationRead(c.UserContext(), admin.ID, c.Params("id")); err != nil {
		return err
	}
	items := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, ticketMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListActivity GET /admin/tickets/:id/activity.
func (h *AdminTicketsHandler) ListActivity(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	records, err := h.lifecycle.ListActivity(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": activityResponses(records)})
}

func requireAdmin(c *fiber.Ctx) (*domain.Admin, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return nil, apperrors.NewUnauthorized("administrator required")
	}
	return principal.Admin, nil
}
