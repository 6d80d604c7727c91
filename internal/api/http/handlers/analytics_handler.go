package handlers

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AnalyticsHandler serves administrator performance metrics.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analyticsService}
}

// TeamRollup GET /admin/analytics/team.
func (h *AnalyticsHandler) TeamRollup(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	rollup, err := h.service.TeamRollup(c.UserContext(), from, to)
	if err != nil {
		return err
	}
	items := make([]dto.AdminPerformanceResponse, 0, len(rollup))
	for _, perf := range rollup {
		items = append(items, adminPerformanceResponse(perf))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].AdminID < items[j].AdminID })
	return c.JSON(fiber.Map{"data": items})
}

// AdminPerformance GET /admin/analytics/admins/:id.
func (h *AnalyticsHandler) AdminPerformance(c *fiber.Ctx) error {
	if _, err := requireAdmin(c); err != nil {
		return err
	}
	from, to, err := parseRange(c)
	if err != nil {
		return err
	}
	perf, err := h.service.AdminPerformance(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": adminPerformanceResponse(perf)})
}

func parseRange(c *fiber.Ctx) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid from timestamp", nil)
		}
		from = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid to timestamp", nil)
		}
		to = &ts
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, apperrors.NewValidationError("to precedes from", nil)
	}
	return from, to, nil
}
