package domain

import "time"

// ActivityType captures what a log entry records.
type ActivityType string

const (
	ActivityAssigned           ActivityType = "assigned"
	ActivityResolved           ActivityType = "resolved"
	ActivityReferred           ActivityType = "referred"
	ActivityReferralAccepted   ActivityType = "referral_accepted"
	ActivityReferralDeclined   ActivityType = "referral_declined"
	ActivityEscalated          ActivityType = "escalated"
	ActivityEscalationResolved ActivityType = "escalation_resolved"
	ActivityDetailsUpdated     ActivityType = "details_updated"
)

// ActivityRecord is an immutable, append-only log entry. Records are created
// only by protocol operations and are the system of record for all timing
// analytics.
type ActivityRecord struct {
	ID          string
	TicketID    string
	ActorID     string
	Type        ActivityType
	Description string
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
