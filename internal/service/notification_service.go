package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// NotificationService derives alert counts from ticket and referral state.
// It holds no state of its own: every read recomputes from the source
// tables, so duplicate change-feed deliveries cannot cause drift.
type NotificationService struct {
	tickets     repository.TicketRepository
	referrals   repository.ReferralRepository
	messages    repository.TicketMessageRepository
	readMarkers repository.ReadMarkerRepository

	userAlertWindow time.Duration
	userAlertLimit  int
}

// NotificationDependencies bundles repositories for the aggregator.
type NotificationDependencies struct {
	TicketRepo      repository.TicketRepository
	ReferralRepo    repository.ReferralRepository
	MessageRepo     repository.TicketMessageRepository
	ReadMarkerRepo  repository.ReadMarkerRepository
	UserAlertWindow time.Duration
	UserAlertLimit  int
}

// DepartmentAlert is the open-ticket summary for one department.
type DepartmentAlert struct {
	DepartmentID string
	OpenCount    int
	Tickets      []domain.Ticket
}

// UserAlert is the recent open-ticket summary for one creator.
type UserAlert struct {
	UserID    string
	OpenCount int
	Latest    time.Time
	Tickets   []domain.Ticket
}

// ReferralBadges carries the per-admin referral counters.
type ReferralBadges struct {
	InboundPending   int
	OutboundAccepted int
}

// NewNotificationService constructs the aggregator.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	window := deps.UserAlertWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	limit := deps.UserAlertLimit
	if limit <= 0 {
		limit = 15
	}
	return &NotificationService{
		tickets:         deps.TicketRepo,
		referrals:       deps.ReferralRepo,
		messages:        deps.MessageRepo,
		readMarkers:     deps.ReadMarkerRepo,
		userAlertWindow: window,
		userAlertLimit:  limit,
	}
}

// DepartmentAlerts groups open tickets by department.
func (s *NotificationService) DepartmentAlerts(ctx context.Context) ([]DepartmentAlert, error) {
	open, err := s.openTickets(ctx, nil)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.Ticket)
	for _, ticket := range open {
		grouped[ticket.DepartmentID] = append(grouped[ticket.DepartmentID], ticket)
	}
	alerts := make([]DepartmentAlert, 0, len(grouped))
	for dept, tickets := range grouped {
		alerts = append(alerts, DepartmentAlert{
			DepartmentID: dept,
			OpenCount:    len(tickets),
			Tickets:      tickets,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].OpenCount != alerts[j].OpenCount {
			return alerts[i].OpenCount > alerts[j].OpenCount
		}
		return alerts[i].DepartmentID < alerts[j].DepartmentID
	})
	return alerts, nil
}

// UserAlerts ranks creators by open tickets filed within the alert window,
// capped at the configured limit. A user's alert expires implicitly: once
// their most recent open ticket ages past the window the age filter drops
// them on the next recomputation, and a new open ticket re-includes them.
func (s *NotificationService) UserAlerts(ctx context.Context) ([]UserAlert, error) {
	cutoff := time.Now().Add(-s.userAlertWindow)
	open, err := s.openTickets(ctx, &cutoff)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*UserAlert)
	for _, ticket := range open {
		alert, ok := grouped[ticket.CreatorID]
		if !ok {
			alert = &UserAlert{UserID: ticket.CreatorID}
			grouped[ticket.CreatorID] = alert
		}
		alert.OpenCount++
		alert.Tickets = append(alert.Tickets, ticket)
		if ticket.CreatedAt.After(alert.Latest) {
			alert.Latest = ticket.CreatedAt
		}
	}

	alerts := make([]UserAlert, 0, len(grouped))
	for _, alert := range grouped {
		alerts = append(alerts, *alert)
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].OpenCount != alerts[j].OpenCount {
			return alerts[i].OpenCount > alerts[j].OpenCount
		}
		return alerts[i].Latest.After(alerts[j].Latest)
	})
	if len(alerts) > s.userAlertLimit {
		alerts = alerts[:s.userAlertLimit]
	}
	return alerts, nil
}

// UnreadCounts maps ticket id to the number of conversation messages past
// the viewer's watermark.
func (s *NotificationService) UnreadCounts(ctx context.Context, viewerID string, ticketIDs []string) (map[string]int, error) {
	watermarks, err := s.readMarkers.GetWatermarks(ctx, viewerID, ticketIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	counts := make(map[string]int, len(ticketIDs))
	for _, ticketID := range ticketIDs {
		count, err := s.messages.CountAfter(ctx, ticketID, watermarks[ticketID])
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		counts[ticketID] = count
	}
	return counts, nil
}

// MarkConversationRead acknowledges the conversation up to the latest
// message present at open time. Messages arriving afterwards count as unread
// again.
func (s *NotificationService) MarkConversationRead(ctx context.Context, viewerID, ticketID string) error {
	latest, err := s.messages.LatestSeq(ctx, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.readMarkers.SetWatermark(ctx, viewerID, ticketID, latest); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ReferralBadges returns the admin's pending inbound count and the count of
// their own referrals recently accepted.
func (s *NotificationService) ReferralBadges(ctx context.Context, adminID string) (ReferralBadges, error) {
	inbound, err := s.referrals.CountPendingInbound(ctx, adminID)
	if err != nil {
		return ReferralBadges{}, apperrors.MapError(err)
	}
	accepted, err := s.referrals.CountOutboundAcceptedSince(ctx, adminID, time.Now().Add(-s.userAlertWindow))
	if err != nil {
		return ReferralBadges{}, apperrors.MapError(err)
	}
	return ReferralBadges{InboundPending: inbound, OutboundAccepted: accepted}, nil
}

// openTicketsPageSize bounds one repository page while deriving alerts.
const openTicketsPageSize = 500

// openTickets walks every page of open tickets so the derived counts stay
// exact regardless of backlog size.
func (s *NotificationService) openTickets(ctx context.Context, createdFrom *time.Time) ([]domain.Ticket, error) {
	var all []domain.Ticket
	for offset := 0; ; offset += openTicketsPageSize {
		page, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
			Statuses:    []domain.TicketStatus{domain.TicketStatusOpen},
			CreatedFrom: createdFrom,
			Limit:       openTicketsPageSize,
			Offset:      offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		all = append(all, page...)
		if len(page) < openTicketsPageSize {
			return all, nil
		}
	}
}
