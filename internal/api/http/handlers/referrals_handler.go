package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ReferralsHandler manages the referral protocol endpoints.
type ReferralsHandler struct {
	service *service.ReferralService
}

// NewReferralsHandler constructs handler.
func NewReferralsHandler(referralService *service.ReferralService) *ReferralsHandler {
	return &ReferralsHandler{service: referralService}
}

// CreateReferral POST /admin/tickets/:id/referrals.
func (h *ReferralsHandler) CreateReferral(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.CreateReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReferredToID == "" {
		return apperrors.NewValidationError("referred_to_id required", nil)
	}
	referral, err := h.service.CreateReferral(c.UserContext(), c.Params("id"), admin.ID, req.ReferredToID, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": referralResponse(referral)})
}

// CheckCooldown GET /admin/tickets/:id/referrals/cooldown. Advisory only; the
// store re-checks on create.
func (h *ReferralsHandler) CheckCooldown(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	remaining, err := h.service.CheckCooldown(c.UserContext(), c.Params("id"), admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CooldownResponse{
		Clear:             remaining <= 0,
		RetryAfterSeconds: int(remaining.Round(time.Second).Seconds()),
	}})
}

// ListForTicket GET /admin/tickets/:id/referrals.
func (h *ReferralsHandler) ListForTicket(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	refs, err := h.service.ListForTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referralResponses(refs)})
}

// Respond POST /admin/referrals/:id/respond.
func (h *ReferralsHandler) Respond(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.RespondReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	referral, err := h.service.Respond(c.UserContext(), c.Params("id"), admin.ID, req.Accept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referralResponse(referral)})
}

// ListInbound GET /admin/referrals/inbound.
func (h *ReferralsHandler) ListInbound(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	pendingOnly := c.Query("pending") == "true"
	refs, err := h.service.ListInbound(c.UserContext(), admin.ID, pendingOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referralResponses(refs)})
}

// ListOutbound GET /admin/referrals/outbound.
func (h *ReferralsHandler) ListOutbound(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	refs, err := h.service.ListOutbound(c.UserContext(), admin.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": referralResponses(refs)})
}
