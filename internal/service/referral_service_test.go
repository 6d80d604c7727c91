package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

func newReferralForTest(tickets *fakeTicketRepo, referrals *fakeReferralRepo, escalations *fakeEscalationRepo, admins *fakeAdminRepo) (*ReferralService, *recordingActivityRepo, *recordingDispatcher) {
	activity := &recordingActivityRepo{}
	dispatcher := &recordingDispatcher{}
	if escalations == nil {
		escalations = &fakeEscalationRepo{}
	}
	if admins == nil {
		admins = &fakeAdminRepo{
			GetByIDFn: func(ctx context.Context, id string) (*domain.Admin, error) {
				return &domain.Admin{ID: id, Name: "taylor", Active: true}, nil
			},
		}
	}
	svc := NewReferralService(ReferralDependencies{
		TicketRepo:     tickets,
		ReferralRepo:   referrals,
		EscalationRepo: escalations,
		AdminRepo:      admins,
		ActivityRepo:   activity,
		Dispatcher:     dispatcher,
		Cooldown:       5 * time.Minute,
	})
	return svc, activity, dispatcher
}

func TestCreateReferralRejectsSelfReferral(t *testing.T) {
	svc, _, _ := newReferralForTest(&fakeTicketRepo{}, &fakeReferralRepo{}, nil, nil)

	_, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-1", "")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCreateReferralNotReferableWhenResolved(t *testing.T) {
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			ticket := inProgressTicket(id, "admin-1")
			ticket.Status = domain.TicketStatusResolved
			return ticket, nil
		},
	}
	svc, _, _ := newReferralForTest(tickets, &fakeReferralRepo{}, nil, nil)

	_, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-2", "")
	assertCode(t, err, "NOT_REFERABLE")
}

func TestCreateReferralNotReferableWhileEscalated(t *testing.T) {
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return inProgressTicket(id, "admin-1"), nil
		},
	}
	escalations := &fakeEscalationRepo{
		OpenByTicketFn: func(ctx context.Context, ticketID string) (*domain.Escalation, error) {
			return &domain.Escalation{ID: "e1", Status: domain.EscalationStatusOpen}, nil
		},
	}
	svc, _, _ := newReferralForTest(tickets, &fakeReferralRepo{}, escalations, nil)

	_, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-2", "")
	assertCode(t, err, "NOT_REFERABLE")
}

func TestCreateReferralCooldownActiveCarriesRetryAfter(t *testing.T) {
	recent := time.Now().Add(-time.Minute)
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return inProgressTicket(id, "admin-1"), nil
		},
	}
	referrals := &fakeReferralRepo{
		CreateIfCooldownClearFn: func(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error) {
			return false, nil
		},
		LatestCreatedAtFn: func(ctx context.Context, ticketID, referredByID string) (*time.Time, error) {
			return &recent, nil
		},
	}
	svc, activity, _ := newReferralForTest(tickets, referrals, nil, nil)

	_, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-2", "take this one")
	assertCode(t, err, "COOLDOWN_ACTIVE")

	var domainErr *apperrors.DomainError
	errors.As(err, &domainErr)
	retry, ok := domainErr.Details["retry_after_seconds"].(int)
	if !ok {
		t.Fatalf("missing retry_after_seconds in %v", domainErr.Details)
	}
	// About four minutes remain on a five minute window.
	if retry < 200 || retry > 300 {
		t.Fatalf("retry_after_seconds = %d", retry)
	}
	if len(activity.records) != 0 {
		t.Fatal("rejected referral must not write activity")
	}
}

func TestCreateReferralClearAfterWindow(t *testing.T) {
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return inProgressTicket(id, "admin-1"), nil
		},
	}
	referrals := &fakeReferralRepo{
		CreateIfCooldownClearFn: func(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error) {
			referral.ID = "r1"
			referral.Status = domain.ReferralStatusPending
			referral.CreatedAt = time.Now()
			return true, nil
		},
	}
	svc, activity, dispatcher := newReferralForTest(tickets, referrals, nil, nil)

	referral, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-2", "please")
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	if referral.Status != domain.ReferralStatusPending {
		t.Fatalf("status = %s", referral.Status)
	}
	records := activity.byType(domain.ActivityReferred)
	if len(records) != 1 {
		t.Fatalf("expected 1 referred record, got %d", len(records))
	}
	if records[0].NewValue["referral_id"] != "r1" {
		t.Fatalf("referred record must embed the referral id: %v", records[0].NewValue)
	}
	if len(dispatcher.published(events.EventReferralCreated)) != 1 {
		t.Fatal("expected referral created event")
	}
}

func TestCreateReferralToDeactivatedAdmin(t *testing.T) {
	tickets := &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return inProgressTicket(id, "admin-1"), nil
		},
	}
	admins := &fakeAdminRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Admin, error) {
			return &domain.Admin{ID: id, Name: "casey", Active: false}, nil
		},
	}
	svc, _, _ := newReferralForTest(tickets, &fakeReferralRepo{}, nil, admins)

	_, err := svc.CreateReferral(context.Background(), "t1", "admin-1", "admin-2", "")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestRespondOnlyRecipient(t *testing.T) {
	referrals := &fakeReferralRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Referral, error) {
			return &domain.Referral{ID: id, TicketID: "t1", ReferredByID: "admin-1", ReferredToID: "admin-2", Status: domain.ReferralStatusPending}, nil
		},
	}
	svc, _, _ := newReferralForTest(&fakeTicketRepo{}, referrals, nil, nil)

	_, err := svc.Respond(context.Background(), "r1", "admin-3", true)
	assertCode(t, err, "FORBIDDEN")
}

func TestRespondPendingOnly(t *testing.T) {
	referrals := &fakeReferralRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Referral, error) {
			return &domain.Referral{ID: id, TicketID: "t1", ReferredToID: "admin-2", Status: domain.ReferralStatusDeclined}, nil
		},
	}
	svc, _, _ := newReferralForTest(&fakeTicketRepo{}, referrals, nil, nil)

	_, err := svc.Respond(context.Background(), "r1", "admin-2", true)
	assertCode(t, err, "INVALID_TRANSITION")
}

func TestRespondAcceptTransfersOwnership(t *testing.T) {
	var reassignedFrom, reassignedTo string
	tickets := &fakeTicketRepo{
		ReassignFn: func(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error) {
			reassignedFrom, reassignedTo = fromAdminID, toAdminID
			return true, nil
		},
	}
	referrals := &fakeReferralRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Referral, error) {
			return &domain.Referral{ID: id, TicketID: "t1", ReferredByID: "admin-1", ReferredToID: "admin-2", Status: domain.ReferralStatusPending}, nil
		},
		MarkRespondedFn: func(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	svc, activity, dispatcher := newReferralForTest(tickets, referrals, nil, nil)

	referral, err := svc.Respond(context.Background(), "r1", "admin-2", true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if referral.Status != domain.ReferralStatusAccepted || referral.RespondedAt == nil {
		t.Fatalf("unexpected referral %+v", referral)
	}
	if reassignedFrom != "admin-1" || reassignedTo != "admin-2" {
		t.Fatalf("reassign %s -> %s", reassignedFrom, reassignedTo)
	}
	records := activity.byType(domain.ActivityReferralAccepted)
	if len(records) != 1 {
		t.Fatalf("expected 1 accepted record, got %d", len(records))
	}
	if records[0].NewValue["referral_id"] != "r1" {
		t.Fatalf("accepted record must embed the referral id: %v", records[0].NewValue)
	}
	if len(dispatcher.published(events.EventReferralResponded)) != 1 {
		t.Fatal("expected responded event")
	}
}

func TestRespondDeclineLeavesOwnership(t *testing.T) {
	reassigned := false
	tickets := &fakeTicketRepo{
		ReassignFn: func(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error) {
			reassigned = true
			return true, nil
		},
	}
	referrals := &fakeReferralRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Referral, error) {
			return &domain.Referral{ID: id, TicketID: "t1", ReferredByID: "admin-1", ReferredToID: "admin-2", Status: domain.ReferralStatusPending}, nil
		},
		MarkRespondedFn: func(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	svc, activity, _ := newReferralForTest(tickets, referrals, nil, nil)

	referral, err := svc.Respond(context.Background(), "r1", "admin-2", false)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if referral.Status != domain.ReferralStatusDeclined {
		t.Fatalf("status = %s", referral.Status)
	}
	if reassigned {
		t.Fatal("decline must not transfer ownership")
	}
	if len(activity.byType(domain.ActivityReferralDeclined)) != 1 {
		t.Fatal("expected declined record")
	}
}

func TestRespondAcceptSurvivesMovedTicket(t *testing.T) {
	tickets := &fakeTicketRepo{
		ReassignFn: func(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error) {
			// Ticket was resolved or reopened meanwhile; conditional update
			// found no matching row.
			return false, nil
		},
	}
	referrals := &fakeReferralRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Referral, error) {
			return &domain.Referral{ID: id, TicketID: "t1", ReferredByID: "admin-1", ReferredToID: "admin-2", Status: domain.ReferralStatusPending}, nil
		},
		MarkRespondedFn: func(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error) {
			return true, nil
		},
	}
	svc, activity, _ := newReferralForTest(tickets, referrals, nil, nil)

	referral, err := svc.Respond(context.Background(), "r1", "admin-2", true)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if referral.Status != domain.ReferralStatusAccepted {
		t.Fatalf("status = %s", referral.Status)
	}
	if len(activity.byType(domain.ActivityReferralAccepted)) != 1 {
		t.Fatal("acceptance must still be recorded")
	}
}

func TestCheckCooldownRemainingWindow(t *testing.T) {
	latest := time.Now().Add(-2 * time.Minute)
	referrals := &fakeReferralRepo{
		LatestCreatedAtFn: func(ctx context.Context, ticketID, referredByID string) (*time.Time, error) {
			return &latest, nil
		},
	}
	svc, _, _ := newReferralForTest(&fakeTicketRepo{}, referrals, nil, nil)

	remaining, err := svc.CheckCooldown(context.Background(), "t1", "admin-1")
	if err != nil {
		t.Fatalf("check cooldown: %v", err)
	}
	if remaining < 2*time.Minute+50*time.Second || remaining > 3*time.Minute {
		t.Fatalf("remaining = %s", remaining)
	}
}

func TestCheckCooldownClearWhenNoHistory(t *testing.T) {
	svc, _, _ := newReferralForTest(&fakeTicketRepo{}, &fakeReferralRepo{}, nil, nil)

	remaining, err := svc.CheckCooldown(context.Background(), "t1", "admin-1")
	if err != nil {
		t.Fatalf("check cooldown: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("remaining = %s", remaining)
	}
}
