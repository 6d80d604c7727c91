package domain

import "time"

// EscalationStatus enumerates escalation states.
type EscalationStatus string

const (
	EscalationStatusOpen     EscalationStatus = "ESCALATED"
	EscalationStatusResolved EscalationStatus = "RESOLVED"
)

// Escalation is a hold placed on a ticket routing it to an external team.
// While open, only the escalating administrator may resolve the ticket, and
// resolve/refer actions by anyone else are blocked.
type Escalation struct {
	ID             string
	TicketID       string
	EscalatedByID  string
	Reason         string
	Status         EscalationStatus
	ResolutionNote string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}
