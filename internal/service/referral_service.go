package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// ReferralService coordinates handing a ticket from one administrator to
// another. A per-(ticket, referring admin) cooldown keeps an administrator
// from re-referring the same ticket to game who-touched-it-last semantics or
// flood a peer with duplicate prompts.
type ReferralService struct {
	tickets     repository.TicketRepository
	referrals   repository.ReferralRepository
	escalations repository.EscalationRepository
	admins      repository.AdminRepository
	activity    repository.ActivityRepository
	dispatcher  events.Dispatcher
	cooldown    time.Duration
	logger      *zap.Logger
}

// ReferralDependencies bundles repositories for the referral service.
type ReferralDependencies struct {
	TicketRepo     repository.TicketRepository
	ReferralRepo   repository.ReferralRepository
	EscalationRepo repository.EscalationRepository
	AdminRepo      repository.AdminRepository
	ActivityRepo   repository.ActivityRepository
	Dispatcher     events.Dispatcher
	Cooldown       time.Duration
	Logger         *zap.Logger
}

// NewReferralService constructs the service.
func NewReferralService(deps ReferralDependencies) *ReferralService {
	cooldown := deps.Cooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{
		tickets:     deps.TicketRepo,
		referrals:   deps.ReferralRepo,
		escalations: deps.EscalationRepo,
		admins:      deps.AdminRepo,
		activity:    deps.ActivityRepo,
		dispatcher:  deps.Dispatcher,
		cooldown:    cooldown,
		logger:      logger,
	}
}

// CanRefer reports whether the ticket is currently referable: resolved and
// closed tickets have finalized metrics, and escalated tickets are held
// exclusively by the escalator.
func (s *ReferralService) CanRefer(ctx context.Context, ticketID string) (bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return false, apperrors.MapError(err)
	}
	if ticket.Status == domain.TicketStatusResolved || ticket.Status == domain.TicketStatusClosed {
		return false, nil
	}
	escalation, err := s.escalations.OpenByTicket(ctx, ticketID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return escalation == nil, nil
}

// CheckCooldown is the advisory client-facing check: it returns the
// remaining wait, zero when clear. The authoritative enforcement happens in
// CreateReferral at the store.
func (s *ReferralService) CheckCooldown(ctx context.Context, ticketID, referringAdminID string) (time.Duration, error) {
	latest, err := s.referrals.LatestCreatedAt(ctx, ticketID, referringAdminID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if latest == nil {
		return 0, nil
	}
	remaining := s.cooldown - time.Since(*latest)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// CreateReferral proposes a hand-off. The cooldown is re-checked by the
// store inside a transactional check-and-insert, so two rapid calls from the
// same session cannot both land.
func (s *ReferralService) CreateReferral(ctx context.Context, ticketID, referringAdminID, referredAdminID, message string) (*domain.Referral, error) {
	if referringAdminID == referredAdminID {
		return nil, apperrors.NewValidationError("cannot refer a ticket to yourself", nil)
	}
	referable, err := s.CanRefer(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !referable {
		return nil, apperrors.NewNotReferable("ticket is resolved, closed, or escalated")
	}

	target, err := s.admins.GetByID(ctx, referredAdminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("admin", map[string]any{"admin_id": referredAdminID})
		}
		return nil, apperrors.MapError(err)
	}
	if !target.Active {
		return nil, apperrors.NewValidationError("referred administrator is deactivated", map[string]any{"admin_id": target.ID})
	}

	referral := &domain.Referral{
		TicketID:     ticketID,
		ReferredByID: referringAdminID,
		ReferredToID: referredAdminID,
		Message:      message,
	}
	inserted, err := s.referrals.CreateIfCooldownClear(ctx, referral, s.cooldown)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !inserted {
		remaining, err := s.CheckCooldown(ctx, ticketID, referringAdminID)
		if err != nil {
			return nil, err
		}
		if remaining <= 0 {
			remaining = time.Second
		}
		return nil, apperrors.NewCooldownActive(remaining)
	}

	if err := s.activity.Create(ctx, &domain.ActivityRecord{
		TicketID:    ticketID,
		ActorID:     referringAdminID,
		Type:        domain.ActivityReferred,
		Description: fmt.Sprintf("referred to %s", target.Name),
		NewValue:    map[string]any{"referral_id": referral.ID, "referred_to_id": referredAdminID},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventReferralCreated,
		TicketID: ticketID,
		Actor:    adminActor(referringAdminID),
		Payload: events.ReferralCreatedPayload{
			ReferralID:   referral.ID,
			ReferredByID: referringAdminID,
			ReferredToID: referredAdminID,
		},
	})
	return referral, nil
}

// Respond accepts or declines a pending referral. Only the referred
// administrator may respond; the accept timestamp becomes the response-time
// anchor for analytics.
func (s *ReferralService) Respond(ctx context.Context, referralID, responderAdminID string, accept bool) (*domain.Referral, error) {
	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("referral", map[string]any{"referral_id": referralID})
		}
		return nil, apperrors.MapError(err)
	}
	if referral.ReferredToID != responderAdminID {
		return nil, apperrors.NewForbidden("only the referred administrator may respond")
	}
	if referral.Status != domain.ReferralStatusPending {
		return nil, apperrors.NewInvalidTransition("referral already responded to", map[string]any{"status": referral.Status})
	}

	status := domain.ReferralStatusDeclined
	activityType := domain.ActivityReferralDeclined
	if accept {
		status = domain.ReferralStatusAccepted
		activityType = domain.ActivityReferralAccepted
	}
	respondedAt := time.Now().UTC()
	won, err := s.referrals.MarkResponded(ctx, referralID, status, respondedAt)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !won {
		return nil, apperrors.NewInvalidTransition("referral already responded to", map[string]any{"referral_id": referralID})
	}
	referral.Status = status
	referral.RespondedAt = &respondedAt

	if accept {
		// Hand the ticket over only while it is still in progress under the
		// referrer; a ticket resolved or reopened in the meantime keeps its
		// state and the acceptance is recorded without ownership transfer.
		moved, err := s.tickets.Reassign(ctx, referral.TicketID, referral.ReferredByID, responderAdminID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !moved {
			s.logger.Info("referral accepted without ownership transfer",
				zap.String("referral_id", referralID),
				zap.String("ticket_id", referral.TicketID))
		}
	}

	if err := s.activity.Create(ctx, &domain.ActivityRecord{
		TicketID:    referral.TicketID,
		ActorID:     responderAdminID,
		Type:        activityType,
		Description: fmt.Sprintf("referral %s", status),
		OldValue:    map[string]any{"referral_id": referral.ID, "status": domain.ReferralStatusPending},
		NewValue:    map[string]any{"referral_id": referral.ID, "status": status},
	}); err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventReferralResponded,
		TicketID: referral.TicketID,
		Actor:    adminActor(responderAdminID),
		Payload:  events.ReferralRespondedPayload{ReferralID: referral.ID, Status: status},
	})
	return referral, nil
}

// ListInbound returns referrals addressed to the admin.
func (s *ReferralService) ListInbound(ctx context.Context, adminID string, pendingOnly bool) ([]domain.Referral, error) {
	refs, err := s.referrals.ListInbound(ctx, adminID, pendingOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return refs, nil
}

// ListOutbound returns referrals created by the admin.
func (s *ReferralService) ListOutbound(ctx context.Context, adminID string) ([]domain.Referral, error) {
	refs, err := s.referrals.ListOutbound(ctx, adminID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return refs, nil
}

// ListForTicket returns a ticket's referral history.
func (s *ReferralService) ListForTicket(ctx context.Context, ticketID string) ([]domain.Referral, error) {
	refs, err := s.referrals.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return refs, nil
}
