package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketAssigned       EventType = "ticket_assigned"
	EventTicketResolved       EventType = "ticket_resolved"
	EventTicketClosed         EventType = "ticket_closed"
	EventTicketReopened       EventType = "ticket_reopened"
	EventTicketDetailsUpdated EventType = "ticket_details_updated"
	EventReferralCreated      EventType = "referral_created"
	EventReferralResponded    EventType = "referral_responded"
	EventTicketEscalated      EventType = "ticket_escalated"
	EventEscalationResolved   EventType = "escalation_resolved"
	EventTicketMessageAdded   EventType = "ticket_message_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	AdminID *string            `json:"admin_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignedAdminID string `json:"assigned_admin_id"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	AdminID       string `json:"admin_id"`
	ViaEscalation bool   `json:"via_escalation"`
}

// TicketStatusPayload payload for close/reopen.
type TicketStatusPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketDetailsUpdatedPayload payload.
type TicketDetailsUpdatedPayload struct {
	Description string               `json:"description"`
	Old         domain.TicketDetails `json:"old"`
	New         domain.TicketDetails `json:"new"`
}

// ReferralCreatedPayload payload.
type ReferralCreatedPayload struct {
	ReferralID   string `json:"referral_id"`
	ReferredByID string `json:"referred_by_id"`
	ReferredToID string `json:"referred_to_id"`
}

// ReferralRespondedPayload payload.
type ReferralRespondedPayload struct {
	ReferralID string                `json:"referral_id"`
	Status     domain.ReferralStatus `json:"status"`
}

// EscalationPayload payload for escalate/resolve-escalation.
type EscalationPayload struct {
	EscalationID  string `json:"escalation_id"`
	EscalatedByID string `json:"escalated_by_id"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID  string                   `json:"message_id"`
	Seq        int64                    `json:"seq"`
	AuthorType domain.MessageAuthorType `json:"author_type"`
}
