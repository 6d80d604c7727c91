package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// LifecycleService owns the ticket status field and the rules for legal
// transitions and ownership. Every accepted mutation writes one activity
// record and publishes a domain event.
type LifecycleService struct {
	tickets     repository.TicketRepository
	activity    repository.ActivityRepository
	escalations repository.EscalationRepository
	messages    repository.TicketMessageRepository
	departments repository.DepartmentRepository
	dispatcher  events.Dispatcher
}

// LifecycleDependencies bundles repositories for the lifecycle service.
type LifecycleDependencies struct {
	TicketRepo     repository.TicketRepository
	ActivityRepo   repository.ActivityRepository
	EscalationRepo repository.EscalationRepository
	MessageRepo    repository.TicketMessageRepository
	DepartmentRepo repository.DepartmentRepository
	Dispatcher     events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	DepartmentID string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	Attachments  []domain.AttachmentReference
}

// TicketListFilter describes listing filters exposed to the API layer.
type TicketListFilter struct {
	CreatorID       *string
	DepartmentID    *string
	AssignedAdminID *string
	Statuses        []domain.TicketStatus
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Limit           int
	Offset          int
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		tickets:     deps.TicketRepo,
		activity:    deps.ActivityRepo,
		escalations: deps.EscalationRepo,
		messages:    deps.MessageRepo,
		departments: deps.DepartmentRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// CreateTicket files a new ticket for a user.
func (s *LifecycleService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewValidationError("department inactive", map[string]any{"department_id": dept.ID})
	}

	ticket := &domain.Ticket{
		CreatorID:    userID,
		DepartmentID: input.DepartmentID,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Status:       domain.TicketStatusOpen,
		Priority:     input.Priority,
		Attachments:  input.Attachments,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    userActor(userID),
	})
	return ticket, nil
}

// Assign claims an open, unassigned ticket for adminID. The precondition is
// enforced by the store in a single conditional update: of two concurrent
// callers exactly one wins, the other gets InvalidTransition. A lost race is
// reported, never retried, since retrying would violate single-assignee
// semantics.
func (s *LifecycleService) Assign(ctx context.Context, ticketID, adminID string) (*domain.Ticket, error) {
	won, err := s.tickets.Assign(ctx, ticketID, adminID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		if _, err := s.getTicket(ctx, ticketID); err != nil {
			return nil, err
		}
		return nil, apperrors.NewInvalidTransition("ticket is not open and unassigned", map[string]any{"ticket_id": ticketID})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, &domain.ActivityRecord{
		TicketID:    ticketID,
		ActorID:     adminID,
		Type:        domain.ActivityAssigned,
		Description: fmt.Sprintf("ticket %s assigned", ticket.SequenceNo),
		OldValue:    map[string]any{"status": domain.TicketStatusOpen, "assigned_admin_id": nil},
		NewValue:    map[string]any{"status": domain.TicketStatusInProgress, "assigned_admin_id": adminID},
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    adminActor(adminID),
		Payload:  events.TicketAssignedPayload{AssignedAdminID: adminID},
	})
	return ticket, nil
}

// Resolve finishes an in-progress ticket held by adminID. Blocked while an
// escalation is open, even for the escalator, who must go through
// ResolveEscalation instead.
func (s *LifecycleService) Resolve(ctx context.Context, ticketID, adminID, resolutionNote string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	escalation, err := s.escalations.OpenByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if escalation != nil {
		return nil, apperrors.NewBlocked("ticket is escalated; only the escalating administrator may resolve it", map[string]any{
			"escalation_id": escalation.ID,
		})
	}
	if !ticket.IsAssignedTo(adminID) {
		return nil, apperrors.NewForbidden("only the assigned administrator may resolve this ticket")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition("ticket is not in progress", map[string]any{"status": ticket.Status})
	}
	return s.resolve(ctx, ticketID, adminID, resolutionNote, domain.ActivityResolved)
}

// resolve is the shared resolution path used by direct resolution and by
// escalation resolution; activityType tags the two apart for analytics.
func (s *LifecycleService) resolve(ctx context.Context, ticketID, adminID, resolutionNote string, activityType domain.ActivityType) (*domain.Ticket, error) {
	note := domain.ResolutionNote{
		Note:      strings.TrimSpace(resolutionNote),
		AdminID:   adminID,
		CreatedAt: time.Now().UTC(),
	}
	won, err := s.tickets.MarkResolved(ctx, ticketID, adminID, note)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewInvalidTransition("ticket state changed before resolution landed", map[string]any{"ticket_id": ticketID})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, &domain.ActivityRecord{
		TicketID:    ticketID,
		ActorID:     adminID,
		Type:        activityType,
		Description: fmt.Sprintf("ticket %s resolved", ticket.SequenceNo),
		OldValue:    map[string]any{"status": domain.TicketStatusInProgress},
		NewValue:    map[string]any{"status": domain.TicketStatusResolved},
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticketID,
		Actor:    adminActor(adminID),
		Payload: events.TicketResolvedPayload{
			AdminID:       adminID,
			ViaEscalation: activityType == domain.ActivityEscalationResolved,
		},
	})
	return ticket, nil
}

// Close moves a resolved ticket to closed. Only the ticket creator may close.
func (s *LifecycleService) Close(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != actorID {
		return nil, apperrors.NewForbidden("only the ticket creator may close it")
	}
	won, err := s.tickets.MarkClosed(ctx, ticketID, time.Now().UTC())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewInvalidTransition("only resolved tickets can be closed", map[string]any{"status": ticket.Status})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticketID,
		Actor:    userActor(actorID),
		Payload:  events.TicketStatusPayload{OldStatus: domain.TicketStatusResolved, NewStatus: domain.TicketStatusClosed},
	})
	return s.getTicket(ctx, ticketID)
}

// Reopen returns a resolved or closed ticket to open, releasing the assignee
// and setting the reopened flag permanently.
func (s *LifecycleService) Reopen(ctx context.Context, ticketID, actorID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	oldStatus := ticket.Status
	won, err := s.tickets.MarkReopened(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewInvalidTransition("only resolved or closed tickets can be reopened", map[string]any{"status": ticket.Status})
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticketID,
		Actor:    userActor(actorID),
		Payload:  events.TicketStatusPayload{OldStatus: oldStatus, NewStatus: domain.TicketStatusOpen},
	})
	return s.getTicket(ctx, ticketID)
}

// EditDetails updates the structured classification metadata. Writes one
// activity record describing only the fields that changed; a call with
// identical values is a silent no-op.
func (s *LifecycleService) EditDetails(ctx context.Context, ticketID, adminID string, details domain.TicketDetails) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsAssignedTo(adminID) {
		return nil, apperrors.NewForbidden("only the assigned administrator may edit ticket details")
	}
	if ticket.Status != domain.TicketStatusOpen && ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition("details can only be edited while the ticket is open or in progress", map[string]any{"status": ticket.Status})
	}

	description := diffDetails(ticket.Details, details)
	if description == "" {
		return ticket, nil
	}

	if err := s.tickets.UpdateDetails(ctx, ticketID, details); err != nil {
		return nil, apperrors.MapError(err)
	}
	old := ticket.Details
	ticket.Details = details
	if err := s.record(ctx, &domain.ActivityRecord{
		TicketID:    ticketID,
		ActorID:     adminID,
		Type:        domain.ActivityDetailsUpdated,
		Description: description,
		OldValue:    detailsMap(old),
		NewValue:    detailsMap(details),
	}); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketDetailsUpdated,
		TicketID: ticketID,
		Actor:    adminActor(adminID),
		Payload:  events.TicketDetailsUpdatedPayload{Description: description, Old: old, New: details},
	})
	return ticket, nil
}

// GetTicketForUser fetches a ticket ensuring ownership.
func (s *LifecycleService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != userID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetTicket fetches a ticket for an administrator.
func (s *LifecycleService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.getTicket(ctx, ticketID)
}

// ListTickets returns tickets matching the filter.
func (s *LifecycleService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CreatorID:       filter.CreatorID,
		DepartmentID:    filter.DepartmentID,
		AssignedAdminID: filter.AssignedAdminID,
		Statuses:        filter.Statuses,
		SearchTerm:      filter.SearchTerm,
		CreatedFrom:     filter.CreatedFrom,
		CreatedTo:       filter.CreatedTo,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// CountsByStatus returns per-status ticket counts, optionally scoped to a
// department.
func (s *LifecycleService) CountsByStatus(ctx context.Context, departmentID *string) (map[domain.TicketStatus]int, error) {
	counts, err := s.tickets.CountByStatus(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

// AddMessage appends a conversation message to a ticket.
func (s *LifecycleService) AddMessage(ctx context.Context, authorType domain.MessageAuthorType, authorID, ticketID, body string) (*domain.TicketMessage, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if authorType == domain.AuthorTypeUser && ticket.CreatorID != authorID {
		return nil, apperrors.NewForbidden("access denied")
	}
	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorType: authorType,
		AuthorID:   authorID,
		Body:       strings.TrimSpace(body),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    actorFor(authorType, authorID),
		Payload:  events.TicketMessageAddedPayload{MessageID: msg.ID, Seq: msg.Seq, AuthorType: authorType},
	})
	return msg, nil
}

// ListMessages returns a ticket's conversation.
func (s *LifecycleService) ListMessages(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

// ListActivity returns a ticket's activity log.
func (s *LifecycleService) ListActivity(ctx context.Context, ticketID string) ([]domain.ActivityRecord, error) {
	records, err := s.activity.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

func (s *LifecycleService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *LifecycleService) record(ctx context.Context, record *domain.ActivityRecord) error {
	if err := s.activity.Create(ctx, record); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

// diffDetails renders a per-field old->new description, empty when nothing
// changed.
func diffDetails(old, next domain.TicketDetails) string {
	var parts []string
	if old.Classification != next.Classification {
		parts = append(parts, fmt.Sprintf("classification: %s→%s", old.Classification, next.Classification))
	}
	if old.Category != next.Category {
		parts = append(parts, fmt.Sprintf("category: %s→%s", old.Category, next.Category))
	}
	if old.Module != next.Module {
		parts = append(parts, fmt.Sprintf("module: %s→%s", old.Module, next.Module))
	}
	return strings.Join(parts, "; ")
}

func detailsMap(d domain.TicketDetails) map[string]any {
	return map[string]any{
		"classification": d.Classification,
		"category":       d.Category,
		"module":         d.Module,
	}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

func adminActor(adminID string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeAdmin, AdminID: &adminID}
}

func actorFor(authorType domain.MessageAuthorType, id string) events.Actor {
	if authorType == domain.AuthorTypeAdmin {
		return adminActor(id)
	}
	return userActor(id)
}
