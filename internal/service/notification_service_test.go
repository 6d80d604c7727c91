package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

func openTicket(id, creatorID, departmentID string, createdAt time.Time) domain.Ticket {
	return domain.Ticket{
		ID:           id,
		CreatorID:    creatorID,
		DepartmentID: departmentID,
		Status:       domain.TicketStatusOpen,
		CreatedAt:    createdAt,
	}
}

func newNotificationForTest(tickets *fakeTicketRepo, referrals *fakeReferralRepo, messages *fakeMessageRepo) (*NotificationService, *fakeReadMarkerRepo) {
	markers := newFakeReadMarkerRepo()
	if referrals == nil {
		referrals = &fakeReferralRepo{}
	}
	if messages == nil {
		messages = &fakeMessageRepo{}
	}
	svc := NewNotificationService(NotificationDependencies{
		TicketRepo:      tickets,
		ReferralRepo:    referrals,
		MessageRepo:     messages,
		ReadMarkerRepo:  markers,
		UserAlertWindow: 24 * time.Hour,
		UserAlertLimit:  15,
	})
	return svc, markers
}

func TestDepartmentAlertsGroupAndRank(t *testing.T) {
	now := time.Now()
	tickets := &fakeTicketRepo{
		ListWithFilterFn: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
			return []domain.Ticket{
				openTicket("t1", "u1", "billing", now),
				openTicket("t2", "u2", "billing", now),
				openTicket("t3", "u3", "support", now),
			}, nil
		},
	}
	svc, _ := newNotificationForTest(tickets, nil, nil)

	alerts, err := svc.DepartmentAlerts(context.Background())
	if err != nil {
		t.Fatalf("department alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(alerts))
	}
	if alerts[0].DepartmentID != "billing" || alerts[0].OpenCount != 2 {
		t.Fatalf("unexpected top alert %+v", alerts[0])
	}
	if alerts[1].DepartmentID != "support" || alerts[1].OpenCount != 1 {
		t.Fatalf("unexpected second alert %+v", alerts[1])
	}
}

func TestDepartmentAlertsPageThroughLargeBacklogs(t *testing.T) {
	now := time.Now()
	tickets := &fakeTicketRepo{
		ListWithFilterFn: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
			switch filter.Offset {
			case 0:
				page := make([]domain.Ticket, openTicketsPageSize)
				for i := range page {
					page[i] = openTicket(fmt.Sprintf("t%d", i), "u1", "support", now)
				}
				return page, nil
			case openTicketsPageSize:
				return []domain.Ticket{
					openTicket("overflow-1", "u2", "billing", now),
					openTicket("overflow-2", "u2", "billing", now),
					openTicket("overflow-3", "u2", "billing", now),
				}, nil
			default:
				t.Fatalf("unexpected offset %d", filter.Offset)
				return nil, nil
			}
		},
	}
	svc, _ := newNotificationForTest(tickets, nil, nil)

	alerts, err := svc.DepartmentAlerts(context.Background())
	if err != nil {
		t.Fatalf("department alerts: %v", err)
	}
	total := 0
	for _, alert := range alerts {
		total += alert.OpenCount
	}
	if total != openTicketsPageSize+3 {
		t.Fatalf("total open = %d, want %d", total, openTicketsPageSize+3)
	}
}

func TestUserAlertsWindowFilterFlowsToStore(t *testing.T) {
	var gotFrom *time.Time
	tickets := &fakeTicketRepo{
		ListWithFilterFn: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
			gotFrom = filter.CreatedFrom
			return nil, nil
		},
	}
	svc, _ := newNotificationForTest(tickets, nil, nil)

	if _, err := svc.UserAlerts(context.Background()); err != nil {
		t.Fatalf("user alerts: %v", err)
	}
	if gotFrom == nil {
		t.Fatal("user alerts must filter by creation window")
	}
	age := time.Since(*gotFrom)
	if age < 23*time.Hour || age > 25*time.Hour {
		t.Fatalf("cutoff age = %s", age)
	}
}

func TestUserAlertsRankAndCap(t *testing.T) {
	now := time.Now()
	var all []domain.Ticket
	// 20 users with one open ticket each, plus one heavy user with three.
	for i := 0; i < 20; i++ {
		user := fmt.Sprintf("user-%02d", i)
		all = append(all, openTicket("t-"+user, user, "support", now.Add(-time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 3; i++ {
		all = append(all, openTicket(fmt.Sprintf("t-heavy-%d", i), "heavy", "support", now))
	}
	tickets := &fakeTicketRepo{
		ListWithFilterFn: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
			return all, nil
		},
	}
	svc, _ := newNotificationForTest(tickets, nil, nil)

	alerts, err := svc.UserAlerts(context.Background())
	if err != nil {
		t.Fatalf("user alerts: %v", err)
	}
	if len(alerts) != 15 {
		t.Fatalf("expected cap of 15, got %d", len(alerts))
	}
	if alerts[0].UserID != "heavy" || alerts[0].OpenCount != 3 {
		t.Fatalf("unexpected top alert %+v", alerts[0])
	}
}

func TestUnreadCountsUseWatermarks(t *testing.T) {
	messages := &fakeMessageRepo{
		CountAfterFn: func(ctx context.Context, ticketID string, afterSeq int64) (int, error) {
			if ticketID == "t1" && afterSeq == 5 {
				return 2, nil
			}
			if ticketID == "t2" && afterSeq == 0 {
				return 7, nil
			}
			t.Fatalf("unexpected CountAfter(%s, %d)", ticketID, afterSeq)
			return 0, nil
		},
	}
	svc, markers := newNotificationForTest(&fakeTicketRepo{}, nil, messages)
	_ = markers.SetWatermark(context.Background(), "viewer", "t1", 5)

	counts, err := svc.UnreadCounts(context.Background(), "viewer", []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("unread counts: %v", err)
	}
	if counts["t1"] != 2 || counts["t2"] != 7 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestMarkConversationReadAdvancesWatermark(t *testing.T) {
	messages := &fakeMessageRepo{
		LatestSeqFn: func(ctx context.Context, ticketID string) (int64, error) {
			return 9, nil
		},
	}
	svc, markers := newNotificationForTest(&fakeTicketRepo{}, nil, messages)

	if err := svc.MarkConversationRead(context.Background(), "viewer", "t1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	seq, _ := markers.GetWatermark(context.Background(), "viewer", "t1")
	if seq != 9 {
		t.Fatalf("watermark = %d", seq)
	}
}

func TestReferralBadges(t *testing.T) {
	referrals := &fakeReferralRepo{
		CountPendingInboundFn: func(ctx context.Context, adminID string) (int, error) {
			return 3, nil
		},
		CountOutboundAcceptedSinceFn: func(ctx context.Context, adminID string, since time.Time) (int, error) {
			if time.Since(since) > 25*time.Hour {
				t.Fatalf("accepted window too wide: %s", time.Since(since))
			}
			return 2, nil
		},
	}
	svc, _ := newNotificationForTest(&fakeTicketRepo{}, referrals, nil)

	badges, err := svc.ReferralBadges(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("badges: %v", err)
	}
	if badges.InboundPending != 3 || badges.OutboundAccepted != 2 {
		t.Fatalf("badges = %+v", badges)
	}
}
