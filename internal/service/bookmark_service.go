package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// BookmarkService lets an administrator pin tickets for quick recall. The
// pinned snapshot is denormalized from ticket state at pin time and is
// independent of later status changes.
type BookmarkService struct {
	bookmarks repository.BookmarkRepository
	tickets   repository.TicketRepository
}

// NewBookmarkService constructs the service.
func NewBookmarkService(bookmarks repository.BookmarkRepository, tickets repository.TicketRepository) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, tickets: tickets}
}

// Add pins a ticket for the admin. Re-pinning updates the custom title.
func (s *BookmarkService) Add(ctx context.Context, adminID, ticketID, customTitle string) (*domain.Bookmark, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	bookmark := &domain.Bookmark{
		AdminID:      adminID,
		TicketID:     ticket.ID,
		SequenceNo:   ticket.SequenceNo,
		TicketTitle:  ticket.Title,
		TicketStatus: ticket.Status,
		DepartmentID: ticket.DepartmentID,
		CustomTitle:  strings.TrimSpace(customTitle),
	}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, apperrors.MapError(err)
	}
	return bookmark, nil
}

// Remove deletes a bookmark owned by the admin.
func (s *BookmarkService) Remove(ctx context.Context, adminID, bookmarkID string) error {
	deleted, err := s.bookmarks.Delete(ctx, bookmarkID, adminID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("bookmark", map[string]any{"bookmark_id": bookmarkID})
	}
	return nil
}

// List returns the admin's bookmarks, newest first.
func (s *BookmarkService) List(ctx context.Context, adminID string) ([]domain.Bookmark, error) {
	bookmarks, err := s.bookmarks.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return bookmarks, nil
}
