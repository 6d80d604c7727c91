package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	lifecycle     *service.LifecycleService
	notifications *service.NotificationService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lifecycle *service.LifecycleService, notifications *service.NotificationService) *TicketsHandler {
	return &TicketsHandler{lifecycle: lifecycle, notifications: notifications}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("department_id, title, description required", nil)
	}

	attachments := make([]domain.AttachmentReference, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, domain.AttachmentReference{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	ticket, err := h.lifecycle.CreateTicket(c.UserContext(), principal.User.ID, service.TicketCreateInput{
		DepartmentID: req.DepartmentID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Attachments:  attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseTicketQuery(c)
	filter.CreatorID = &principal.User.ID
	tickets, err := h.lifecycle.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.lifecycle.GetTicketForUser(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.lifecycle.Close(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if _, err := h.lifecycle.GetTicketForUser(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	ticket, err := h.lifecycle.Reopen(c.UserContext(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("body required", nil)
	}
	msg, err := h.lifecycle.AddMessage(c.UserContext(), domain.AuthorTypeUser, principal.User.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg)})
}

// ListMessages GET /tickets/:id/messages. Marks the conversation read for the
// viewer.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.lifecycle.GetTicketForUser(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	msgs, err := h.lifecycle.ListMessages(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkConversationRead(c.UserContext(), principal.User.ID, ticket.ID); err != nil {
		return err
	}
	items := make([]dto.TicketMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, ticketMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCounts POST /tickets/unread-counts.
func (h *TicketsHandler) UnreadCounts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UnreadCountsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	counts, err := h.notifications.UnreadCounts(c.UserContext(), principal.User.ID, req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountsResponse{Counts: counts}})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{Limit: 50}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			switch status {
			case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed:
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}
	if raw := c.Query("q"); raw != "" {
		term := strings.TrimSpace(raw)
		filter.SearchTerm = &term
	}
	if raw := c.Query("department_id"); raw != "" {
		dept := raw
		filter.DepartmentID = &dept
	}
	if raw := c.Query("created_from"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if raw := c.Query("created_to"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.CreatedTo = &ts
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	return filter
}
