package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketDetails is the structured classification metadata an assignee may
// edit while working a ticket.
type TicketDetails struct {
	Classification string `json:"classification"`
	Category       string `json:"category"`
	Module         string `json:"module"`
}

// ResolutionNote is one entry in a ticket's ordered resolution-notes list.
type ResolutionNote struct {
	Note      string    `json:"note"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentReference stores metadata for files attached to a ticket.
type AttachmentReference struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Ticket is the aggregate for support requests. Status only moves forward
// along OPEN -> IN_PROGRESS -> RESOLVED -> CLOSED; Reopen returns a
// RESOLVED or CLOSED ticket to OPEN and sets the Reopened flag permanently.
type Ticket struct {
	ID              string
	SequenceNo      string
	CreatorID       string
	DepartmentID    string
	AssignedAdminID *string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	Details         TicketDetails
	ResolutionNotes []ResolutionNote
	Attachments     []AttachmentReference
	Reopened        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	AdminResolvedAt *time.Time
	UserClosedAt    *time.Time
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusResolved},
	TicketStatusResolved:   {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:     {TicketStatusOpen},
}

// IsValidTransition reports whether a status change is legal.
func IsValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsAssignedTo reports whether adminID currently holds the ticket.
func (t *Ticket) IsAssignedTo(adminID string) bool {
	return t.AssignedAdminID != nil && *t.AssignedAdminID == adminID
}
