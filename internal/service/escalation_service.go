package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// EscalationService hands a ticket to an external development queue. While an
// escalation is open the ticket is a hard single-owner lock: only the
// escalating administrator may resolve it, and resolve/refer by anyone else
// is blocked.
type EscalationService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	activity    repository.ActivityRepository
	lifecycle   *LifecycleService
	dispatcher  events.Dispatcher
}

// EscalationDependencies bundles repositories for the escalation service.
type EscalationDependencies struct {
	TicketRepo     repository.TicketRepository
	EscalationRepo repository.EscalationRepository
	ActivityRepo   repository.ActivityRepository
	Lifecycle      *LifecycleService
	Dispatcher     events.Dispatcher
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		tickets:     deps.TicketRepo,
		escalations: deps.EscalationRepo,
		activity:    deps.ActivityRepo,
		lifecycle:   deps.Lifecycle,
		dispatcher:  deps.Dispatcher,
	}
}

// Escalate places an escalation hold. Only the current assignee may escalate
// their own ticket.
func (s *EscalationService) Escalate(ctx context.Context, ticketID, escalatingAdminID, reason string) (*domain.Escalation, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !ticket.IsAssignedTo(escalatingAdminID) {
		return nil, apperrors.NewForbidden("only the assigned administrator may escalate this ticket")
	}
	if ticket.Status != domain.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition("only in-progress tickets can be escalated", map[string]any{"status": ticket.Status})
	}
	existing, err := s.escalations.OpenByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewBlocked("ticket is already escalated", map[string]any{"escalation_id": existing.ID})
	}

	escalation := &domain.Escalation{
		TicketID:      ticketID,
		EscalatedByID: escalatingAdminID,
		Reason:        reason,
	}
	if err := s.escalations.Create(ctx, escalation); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.activity.Create(ctx, &domain.ActivityRecord{
		TicketID:    ticketID,
		ActorID:     escalatingAdminID,
		Type:        domain.ActivityEscalated,
		Description: fmt.Sprintf("ticket %s escalated", ticket.SequenceNo),
		NewValue:    map[string]any{"escalation_id": escalation.ID, "reason": reason},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticketID,
		Actor:    adminActor(escalatingAdminID),
		Payload:  events.EscalationPayload{EscalationID: escalation.ID, EscalatedByID: escalatingAdminID},
	})
	return escalation, nil
}

// ResolveEscalation closes the hold and resolves the underlying ticket
// through the shared resolution path, tagged escalation_resolved so
// analytics can separate escalation-path resolutions from direct ones. This
// is a hard single-owner lock, not a queue: any caller other than the
// escalator gets Forbidden.
func (s *EscalationService) ResolveEscalation(ctx context.Context, escalationID, adminID, resolutionNote string) (*domain.Escalation, error) {
	escalation, err := s.escalations.GetByID(ctx, escalationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("escalation", map[string]any{"escalation_id": escalationID})
		}
		return nil, apperrors.MapError(err)
	}
	if escalation.EscalatedByID != adminID {
		return nil, apperrors.NewForbidden("only the escalating administrator may resolve this escalation")
	}
	if escalation.Status != domain.EscalationStatusOpen {
		return nil, apperrors.NewInvalidTransition("escalation already resolved", map[string]any{"status": escalation.Status})
	}

	now := time.Now().UTC()
	won, err := s.escalations.MarkResolved(ctx, escalationID, resolutionNote, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewInvalidTransition("escalation already resolved", map[string]any{"escalation_id": escalationID})
	}
	escalation.Status = domain.EscalationStatusResolved
	escalation.ResolutionNote = resolutionNote
	escalation.ResolvedAt = &now

	if _, err := s.lifecycle.resolve(ctx, escalation.TicketID, adminID, resolutionNote, domain.ActivityEscalationResolved); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventEscalationResolved,
		TicketID: escalation.TicketID,
		Actor:    adminActor(adminID),
		Payload:  events.EscalationPayload{EscalationID: escalation.ID, EscalatedByID: escalation.EscalatedByID},
	})
	return escalation, nil
}

// OpenForTicket returns the ticket's open escalation, if any.
func (s *EscalationService) OpenForTicket(ctx context.Context, ticketID string) (*domain.Escalation, error) {
	escalation, err := s.escalations.OpenByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return escalation, nil
}

// List returns escalations, optionally filtered by escalator and status.
func (s *EscalationService) List(ctx context.Context, escalatedByID *string, status *domain.EscalationStatus) ([]domain.Escalation, error) {
	escalations, err := s.escalations.List(ctx, escalatedByID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return escalations, nil
}
