package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// NotificationsHandler serves admin-dashboard alert aggregates.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// DepartmentAlerts GET /admin/alerts/departments.
func (h *NotificationsHandler) DepartmentAlerts(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	alerts, err := h.service.DepartmentAlerts(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, dto.DepartmentAlertResponse{
			DepartmentID: alert.DepartmentID,
			OpenCount:    alert.OpenCount,
			Tickets:      ticketSummaries(alert.Tickets),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// UserAlerts GET /admin/alerts/users.
func (h *NotificationsHandler) UserAlerts(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	alerts, err := h.service.UserAlerts(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserAlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		items = append(items, dto.UserAlertResponse{
			UserID:    alert.UserID,
			OpenCount: alert.OpenCount,
			Latest:    alert.Latest,
			Tickets:   ticketSummaries(alert.Tickets),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ReferralBadges GET /admin/alerts/referrals.
func (h *NotificationsHandler) ReferralBadges(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	badges, err := h.service.ReferralBadges(c.UserContext(), admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReferralBadgesResponse{
		InboundPending:   badges.InboundPending,
		OutboundAccepted: badges.OutboundAccepted,
	}})
}

// UnreadCounts POST /admin/alerts/unread-counts.
func (h *NotificationsHandler) UnreadCounts(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.UnreadCountsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	counts, err := h.service.UnreadCounts(c.UserContext(), admin.ID, req.TicketIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UnreadCountsResponse{Counts: counts}})
}
