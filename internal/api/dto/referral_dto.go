package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateReferralRequest payload.
type CreateReferralRequest struct {
	ReferredToID string `json:"referred_to_id"`
	Message      string `json:"message"`
}

// RespondReferralRequest payload.
type RespondReferralRequest struct {
	Accept bool `json:"accept"`
}

// ReferralResponse represents a referral.
type ReferralResponse struct {
	ID           string                `json:"id"`
	TicketID     string                `json:"ticket_id"`
	ReferredByID string                `json:"referred_by_id"`
	ReferredToID string                `json:"referred_to_id"`
	Status       domain.ReferralStatus `json:"status"`
	Message      string                `json:"message"`
	CreatedAt    time.Time             `json:"created_at"`
	RespondedAt  *time.Time            `json:"responded_at"`
}

// CooldownResponse reports whether a referral may be created now.
type CooldownResponse struct {
	Clear             bool `json:"clear"`
	RetryAfterSeconds int  `json:"retry_after_seconds"`
}
