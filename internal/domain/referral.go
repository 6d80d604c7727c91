package domain

import "time"

// ReferralStatus enumerates referral lifecycle states. Accepted and declined
// are terminal.
type ReferralStatus string

const (
	ReferralStatusPending  ReferralStatus = "PENDING"
	ReferralStatusAccepted ReferralStatus = "ACCEPTED"
	ReferralStatusDeclined ReferralStatus = "DECLINED"
)

// Referral is a proposed hand-off of a ticket from one administrator to
// another. A ticket may accumulate many referrals over its life, each
// independent.
type Referral struct {
	ID           string
	TicketID     string
	ReferredByID string
	ReferredToID string
	Status       ReferralStatus
	Message      string
	CreatedAt    time.Time
	RespondedAt  *time.Time
}
