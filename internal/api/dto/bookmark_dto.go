package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateBookmarkRequest payload.
type CreateBookmarkRequest struct {
	TicketID    string `json:"ticket_id"`
	CustomTitle string `json:"custom_title"`
}

// BookmarkResponse represents a pinned ticket.
type BookmarkResponse struct {
	ID           string              `json:"id"`
	TicketID     string              `json:"ticket_id"`
	SequenceNo   string              `json:"sequence_no"`
	TicketTitle  string              `json:"ticket_title"`
	TicketStatus domain.TicketStatus `json:"ticket_status"`
	DepartmentID string              `json:"department_id"`
	CustomTitle  string              `json:"custom_title,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}
