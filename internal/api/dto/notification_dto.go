package dto

import "time"

// DepartmentAlertResponse summarizes open tickets for one department.
type DepartmentAlertResponse struct {
	DepartmentID string          `json:"department_id"`
	OpenCount    int             `json:"open_count"`
	Tickets      []TicketSummary `json:"tickets"`
}

// UserAlertResponse summarizes a creator's recent open tickets.
type UserAlertResponse struct {
	UserID    string          `json:"user_id"`
	OpenCount int             `json:"open_count"`
	Latest    time.Time       `json:"latest"`
	Tickets   []TicketSummary `json:"tickets"`
}

// ReferralBadgesResponse carries the per-admin referral counters.
type ReferralBadgesResponse struct {
	InboundPending   int `json:"inbound_pending"`
	OutboundAccepted int `json:"outbound_accepted"`
}

// UnreadCountsRequest payload.
type UnreadCountsRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// UnreadCountsResponse maps ticket id to unread message count.
type UnreadCountsResponse struct {
	Counts map[string]int `json:"counts"`
}
