package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateEscalationRequest payload.
type CreateEscalationRequest struct {
	Reason string `json:"reason"`
}

// ResolveEscalationRequest payload.
type ResolveEscalationRequest struct {
	ResolutionNote string `json:"resolution_note"`
}

// EscalationResponse represents an escalation.
type EscalationResponse struct {
	ID             string                  `json:"id"`
	TicketID       string                  `json:"ticket_id"`
	EscalatedByID  string                  `json:"escalated_by_id"`
	Reason         string                  `json:"reason"`
	Status         domain.EscalationStatus `json:"status"`
	ResolutionNote string                  `json:"resolution_note,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	ResolvedAt     *time.Time              `json:"resolved_at"`
}
