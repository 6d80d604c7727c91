package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID string                `json:"department_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Attachments  []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest describes one uploaded file reference.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionNote string `json:"resolution_note"`
}

// EditDetailsRequest payload.
type EditDetailsRequest struct {
	Classification string `json:"classification"`
	Category       string `json:"category"`
	Module         string `json:"module"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// TicketSummary response.
type TicketSummary struct {
	ID              string                `json:"id"`
	SequenceNo      string                `json:"sequence_no"`
	DepartmentID    string                `json:"department_id"`
	AssignedAdminID *string               `json:"assigned_admin_id"`
	Title           string                `json:"title"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Reopened        bool                  `json:"reopened"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	CreatorID       string                   `json:"creator_id"`
	Description     string                   `json:"description"`
	Details         domain.TicketDetails     `json:"details"`
	ResolutionNotes []ResolutionNoteResponse `json:"resolution_notes"`
	Attachments     []AttachmentResponse     `json:"attachments"`
	ResolvedAt      *time.Time               `json:"resolved_at"`
	AdminResolvedAt *time.Time               `json:"admin_resolved_at"`
	UserClosedAt    *time.Time               `json:"user_closed_at"`
}

// ResolutionNoteResponse is one resolution-notes entry.
type ResolutionNoteResponse struct {
	Note      string    `json:"note"`
	AdminID   string    `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse describes one stored file reference.
type AttachmentResponse struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TicketMessageResponse represents a conversation message.
type TicketMessageResponse struct {
	ID         string                   `json:"id"`
	Seq        int64                    `json:"seq"`
	AuthorType domain.MessageAuthorType `json:"author_type"`
	AuthorID   string                   `json:"author_id"`
	Body       string                   `json:"body"`
	CreatedAt  time.Time                `json:"created_at"`
}

// ActivityResponse represents one activity-log entry.
type ActivityResponse struct {
	ID          string              `json:"id"`
	ActorID     string              `json:"actor_id"`
	Type        domain.ActivityType `json:"type"`
	Description string              `json:"description"`
	OldValue    map[string]any      `json:"old_value,omitempty"`
	NewValue    map[string]any      `json:"new_value,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// StatusCountsResponse maps status to ticket count.
type StatusCountsResponse struct {
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}
