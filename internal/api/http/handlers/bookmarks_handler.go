package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/service"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// BookmarksHandler manages administrator ticket pins.
type BookmarksHandler struct {
	service *service.BookmarkService
}

// NewBookmarksHandler constructs handler.
func NewBookmarksHandler(bookmarkService *service.BookmarkService) *BookmarksHandler {
	return &BookmarksHandler{service: bookmarkService}
}

// Create POST /admin/bookmarks.
func (h *BookmarksHandler) Create(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	var req dto.CreateBookmarkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" {
		return apperrors.NewValidationError("ticket_id required", nil)
	}
	bookmark, err := h.service.Add(c.UserContext(), admin.ID, req.TicketID, req.CustomTitle)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": bookmarkResponse(bookmark)})
}

// Delete DELETE /admin/bookmarks/:id.
func (h *BookmarksHandler) Delete(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	if err := h.service.Remove(c.UserContext(), admin.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List GET /admin/bookmarks.
func (h *BookmarksHandler) List(c *fiber.Ctx) error {
	admin, err := requireAdmin(c)
	if err != nil {
		return err
	}
	bookmarks, err := h.service.List(c.UserContext(), admin.ID)
	if err != nil {
		return err
	}
	items := make([]dto.BookmarkResponse, 0, len(bookmarks))
	for i := range bookmarks {
		items = append(items, bookmarkResponse(&bookmarks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
