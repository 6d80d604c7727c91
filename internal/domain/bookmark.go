package domain

import "time"

// Bookmark is a per-administrator pin on a ticket. Ticket fields are
// denormalized at pin time so the list renders without a join; the bookmark
// is independent of later ticket status changes.
type Bookmark struct {
	ID           string
	AdminID      string
	TicketID     string
	SequenceNo   string
	TicketTitle  string
	TicketStatus TicketStatus
	DepartmentID string
	CustomTitle  string
	CreatedAt    time.Time
}
