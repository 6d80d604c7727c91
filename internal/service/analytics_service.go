package service

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AnalyticsService replays the activity log to compute per-administrator
// response and resolution metrics. The log is the sole source of truth: all
// timing math is done at second granularity from recorded timestamps.
type AnalyticsService struct {
	activity repository.ActivityRepository
	tickets  repository.TicketRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(activity repository.ActivityRepository, tickets repository.TicketRepository) *AnalyticsService {
	return &AnalyticsService{activity: activity, tickets: tickets}
}

// AdminPerformance is the per-administrator rollup.
type AdminPerformance struct {
	AdminID             string
	TicketsCatered      int
	InProgress          int
	Resolved            int
	EscalationsResolved int
	TicketsEscalated    int
	TicketsReferred     int
	AvgResponseTime     time.Duration
	AvgResolutionTime   time.Duration
	AvgResponseLabel    string
	AvgResolutionLabel  string
}

// replayState tracks one ticket's position while walking the log.
type replayState struct {
	ownerID        string
	ownStart       time.Time
	firstAssigned  bool
	escalationOpen bool
	escalatedByID  string
	referrals      map[string]time.Time
}

// timingSample keeps the originating ticket with each duration so samples on
// a ticket whose escalation is still open can be excluded from the
// escalator's averages at aggregation time.
type timingSample struct {
	ticketID string
	seconds  float64
}

type adminAccumulator struct {
	catered     map[string]struct{}
	escalated   map[string]struct{}
	referred    map[string]struct{}
	resolved    int
	escResolved int
	response    []timingSample
	resolution  []timingSample
}

// TeamRollup replays activity records in [from, to] and returns metrics for
// every administrator that appears in the log.
func (s *AnalyticsService) TeamRollup(ctx context.Context, from, to *time.Time) (map[string]*AdminPerformance, error) {
	records, err := s.activity.ListInRange(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticketIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, record := range records {
		if _, ok := seen[record.TicketID]; !ok {
			seen[record.TicketID] = struct{}{}
			ticketIDs = append(ticketIDs, record.TicketID)
		}
	}
	ticketsByID := make(map[string]domain.Ticket, len(ticketIDs))
	tickets, err := s.tickets.ListByIDs(ctx, ticketIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, ticket := range tickets {
		ticketsByID[ticket.ID] = ticket
	}

	states := make(map[string]*replayState)
	accs := make(map[string]*adminAccumulator)

	state := func(ticketID string) *replayState {
		st, ok := states[ticketID]
		if !ok {
			st = &replayState{referrals: make(map[string]time.Time)}
			states[ticketID] = st
		}
		return st
	}
	acc := func(adminID string) *adminAccumulator {
		a, ok := accs[adminID]
		if !ok {
			a = &adminAccumulator{
				catered:   make(map[string]struct{}),
				escalated: make(map[string]struct{}),
				referred:  make(map[string]struct{}),
			}
			accs[adminID] = a
		}
		return a
	}

	for _, record := range records {
		st := state(record.TicketID)
		switch record.Type {
		case domain.ActivityAssigned:
			a := acc(record.ActorID)
			a.catered[record.TicketID] = struct{}{}
			if !st.firstAssigned {
				st.firstAssigned = true
				if ticket, ok := ticketsByID[record.TicketID]; ok {
					a.response = append(a.response, timingSample{record.TicketID, record.CreatedAt.Sub(ticket.CreatedAt).Seconds()})
				}
			}
			st.ownerID = record.ActorID
			st.ownStart = record.CreatedAt

		case domain.ActivityReferred:
			acc(record.ActorID).referred[record.TicketID] = struct{}{}
			if id, ok := record.NewValue["referral_id"].(string); ok {
				st.referrals[id] = record.CreatedAt
			}

		case domain.ActivityReferralAccepted:
			a := acc(record.ActorID)
			a.catered[record.TicketID] = struct{}{}
			// Response time anchored on the referral, not ticket creation.
			if id, ok := record.NewValue["referral_id"].(string); ok {
				if createdAt, ok := st.referrals[id]; ok {
					a.response = append(a.response, timingSample{record.TicketID, record.CreatedAt.Sub(createdAt).Seconds()})
				}
			}
			st.ownerID = record.ActorID
			st.ownStart = record.CreatedAt

		case domain.ActivityReferralDeclined:
			// no response-time credit

		case domain.ActivityEscalated:
			acc(record.ActorID).escalated[record.TicketID] = struct{}{}
			st.escalationOpen = true
			st.escalatedByID = record.ActorID

		case domain.ActivityResolved:
			a := acc(record.ActorID)
			a.resolved++
			if st.ownerID == record.ActorID && !st.ownStart.IsZero() {
				a.resolution = append(a.resolution, timingSample{record.TicketID, record.CreatedAt.Sub(st.ownStart).Seconds()})
			}

		case domain.ActivityEscalationResolved:
			// Attributed separately so escalation-path resolutions do not
			// vanish from team-wide rollups.
			a := acc(record.ActorID)
			a.escResolved++
			st.escalationOpen = false
			if st.ownerID == record.ActorID && !st.ownStart.IsZero() {
				a.resolution = append(a.resolution, timingSample{record.TicketID, record.CreatedAt.Sub(st.ownStart).Seconds()})
			}
		}
	}

	result := make(map[string]*AdminPerformance, len(accs))
	for adminID, a := range accs {
		inProgress, err := s.tickets.CountAssigned(ctx, adminID, domain.TicketStatusInProgress)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		perf := &AdminPerformance{
			AdminID:             adminID,
			TicketsCatered:      len(a.catered),
			InProgress:          inProgress,
			Resolved:            a.resolved,
			EscalationsResolved: a.escResolved,
			TicketsEscalated:    len(a.escalated),
			TicketsReferred:     len(a.referred),
			AvgResponseTime:     averageDuration(creditedSeconds(a.response, adminID, states)),
			AvgResolutionTime:   averageDuration(creditedSeconds(a.resolution, adminID, states)),
		}
		perf.AvgResponseLabel = FormatDuration(perf.AvgResponseTime)
		perf.AvgResolutionLabel = FormatDuration(perf.AvgResolutionTime)
		result[adminID] = perf
	}
	return result, nil
}

// AdminPerformance returns metrics for one administrator, zero-valued when
// the admin has no activity in range.
func (s *AnalyticsService) AdminPerformance(ctx context.Context, adminID string, from, to *time.Time) (*AdminPerformance, error) {
	rollup, err := s.TeamRollup(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if perf, ok := rollup[adminID]; ok {
		return perf, nil
	}
	inProgress, err := s.tickets.CountAssigned(ctx, adminID, domain.TicketStatusInProgress)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AdminPerformance{
		AdminID:            adminID,
		InProgress:         inProgress,
		AvgResponseLabel:   FormatDuration(0),
		AvgResolutionLabel: FormatDuration(0),
	}, nil
}

// creditedSeconds drops an admin's samples from tickets they escalated while
// the escalation is still open at the end of the replay window. The samples
// come back on the next rollup after the escalation resolves.
func creditedSeconds(samples []timingSample, adminID string, states map[string]*replayState) []float64 {
	seconds := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if st, ok := states[sample.ticketID]; ok && st.escalationOpen && st.escalatedByID == adminID {
			continue
		}
		seconds = append(seconds, sample.seconds)
	}
	return seconds
}

func averageDuration(seconds []float64) time.Duration {
	if len(seconds) == 0 {
		return 0
	}
	var sum float64
	for _, s := range seconds {
		sum += s
	}
	return time.Duration(sum/float64(len(seconds))) * time.Second
}

// FormatDuration renders a duration at second granularity, e.g. "25s",
// "1m 15s", "2h 3m 4s".
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
