package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

type fakeTicketRepo struct {
	CreateFn         func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFn        func(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilterFn func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
	CountByStatusFn  func(ctx context.Context, departmentID *string) (map[domain.TicketStatus]int, error)
	ListByIDsFn      func(ctx context.Context, ids []string) ([]domain.Ticket, error)
	CountAssignedFn  func(ctx context.Context, adminID string, status domain.TicketStatus) (int, error)
	AssignFn         func(ctx context.Context, ticketID, adminID string) (bool, error)
	ReassignFn       func(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error)
	MarkResolvedFn   func(ctx context.Context, ticketID, adminID string, note domain.ResolutionNote) (bool, error)
	MarkClosedFn     func(ctx context.Context, ticketID string, closedAt time.Time) (bool, error)
	MarkReopenedFn   func(ctx context.Context, ticketID string) (bool, error)
	UpdateDetailsFn  func(ctx context.Context, ticketID string, details domain.TicketDetails) error
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	return f.CreateFn(ctx, ticket)
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return f.ListWithFilterFn(ctx, filter)
}

func (f *fakeTicketRepo) CountByStatus(ctx context.Context, departmentID *string) (map[domain.TicketStatus]int, error) {
	return f.CountByStatusFn(ctx, departmentID)
}

func (f *fakeTicketRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if f.ListByIDsFn == nil {
		return nil, nil
	}
	return f.ListByIDsFn(ctx, ids)
}

func (f *fakeTicketRepo) CountAssigned(ctx context.Context, adminID string, status domain.TicketStatus) (int, error) {
	if f.CountAssignedFn == nil {
		return 0, nil
	}
	return f.CountAssignedFn(ctx, adminID, status)
}

func (f *fakeTicketRepo) Assign(ctx context.Context, ticketID, adminID string) (bool, error) {
	return f.AssignFn(ctx, ticketID, adminID)
}

func (f *fakeTicketRepo) Reassign(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error) {
	return f.ReassignFn(ctx, ticketID, fromAdminID, toAdminID)
}

func (f *fakeTicketRepo) MarkResolved(ctx context.Context, ticketID, adminID string, note domain.ResolutionNote) (bool, error) {
	return f.MarkResolvedFn(ctx, ticketID, adminID, note)
}

func (f *fakeTicketRepo) MarkClosed(ctx context.Context, ticketID string, closedAt time.Time) (bool, error) {
	return f.MarkClosedFn(ctx, ticketID, closedAt)
}

func (f *fakeTicketRepo) MarkReopened(ctx context.Context, ticketID string) (bool, error) {
	return f.MarkReopenedFn(ctx, ticketID)
}

func (f *fakeTicketRepo) UpdateDetails(ctx context.Context, ticketID string, details domain.TicketDetails) error {
	return f.UpdateDetailsFn(ctx, ticketID, details)
}

// recordingActivityRepo appends every record, for asserting what the protocol
// wrote.
type recordingActivityRepo struct {
	mu      sync.Mutex
	records []domain.ActivityRecord

	ListInRangeFn func(ctx context.Context, from, to *time.Time) ([]domain.ActivityRecord, error)
}

func (f *recordingActivityRepo) Create(ctx context.Context, record *domain.ActivityRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *recordingActivityRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActivityRecord
	for _, r := range f.records {
		if r.TicketID == ticketID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *recordingActivityRepo) ListInRange(ctx context.Context, from, to *time.Time) ([]domain.ActivityRecord, error) {
	if f.ListInRangeFn != nil {
		return f.ListInRangeFn(ctx, from, to)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ActivityRecord{}, f.records...), nil
}

func (f *recordingActivityRepo) byType(t domain.ActivityType) []domain.ActivityRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActivityRecord
	for _, r := range f.records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

type fakeReferralRepo struct {
	CreateIfCooldownClearFn      func(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error)
	LatestCreatedAtFn            func(ctx context.Context, ticketID, referredByID string) (*time.Time, error)
	GetByIDFn                    func(ctx context.Context, id string) (*domain.Referral, error)
	MarkRespondedFn              func(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error)
	ListInboundFn                func(ctx context.Context, adminID string, pendingOnly bool) ([]domain.Referral, error)
	ListOutboundFn               func(ctx context.Context, adminID string) ([]domain.Referral, error)
	ListByTicketFn               func(ctx context.Context, ticketID string) ([]domain.Referral, error)
	CountPendingInboundFn        func(ctx context.Context, adminID string) (int, error)
	CountOutboundAcceptedSinceFn func(ctx context.Context, adminID string, since time.Time) (int, error)
}

func (f *fakeReferralRepo) CreateIfCooldownClear(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error) {
	return f.CreateIfCooldownClearFn(ctx, referral, window)
}

func (f *fakeReferralRepo) LatestCreatedAt(ctx context.Context, ticketID, referredByID string) (*time.Time, error) {
	if f.LatestCreatedAtFn == nil {
		return nil, nil
	}
	return f.LatestCreatedAtFn(ctx, ticketID, referredByID)
}

func (f *fakeReferralRepo) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeReferralRepo) MarkResponded(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error) {
	return f.MarkRespondedFn(ctx, id, status, respondedAt)
}

func (f *fakeReferralRepo) ListInbound(ctx context.Context, adminID string, pendingOnly bool) ([]domain.Referral, error) {
	return f.ListInboundFn(ctx, adminID, pendingOnly)
}

func (f *fakeReferralRepo) ListOutbound(ctx context.Context, adminID string) ([]domain.Referral, error) {
	return f.ListOutboundFn(ctx, adminID)
}

func (f *fakeReferralRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Referral, error) {
	return f.ListByTicketFn(ctx, ticketID)
}

func (f *fakeReferralRepo) CountPendingInbound(ctx context.Context, adminID string) (int, error) {
	if f.CountPendingInboundFn == nil {
		return 0, nil
	}
	return f.CountPendingInboundFn(ctx, adminID)
}

func (f *fakeReferralRepo) CountOutboundAcceptedSince(ctx context.Context, adminID string, since time.Time) (int, error) {
	if f.CountOutboundAcceptedSinceFn == nil {
		return 0, nil
	}
	return f.CountOutboundAcceptedSinceFn(ctx, adminID, since)
}

type fakeEscalationRepo struct {
	CreateFn       func(ctx context.Context, escalation *domain.Escalation) error
	GetByIDFn      func(ctx context.Context, id string) (*domain.Escalation, error)
	OpenByTicketFn func(ctx context.Context, ticketID string) (*domain.Escalation, error)
	MarkResolvedFn func(ctx context.Context, id, resolutionNote string, resolvedAt time.Time) (bool, error)
	ListFn         func(ctx context.Context, escalatedByID *string, status *domain.EscalationStatus) ([]domain.Escalation, error)
}

func (f *fakeEscalationRepo) Create(ctx context.Context, escalation *domain.Escalation) error {
	return f.CreateFn(ctx, escalation)
}

func (f *fakeEscalationRepo) GetByID(ctx context.Context, id string) (*domain.Escalation, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeEscalationRepo) OpenByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error) {
	if f.OpenByTicketFn == nil {
		return nil, nil
	}
	return f.OpenByTicketFn(ctx, ticketID)
}

func (f *fakeEscalationRepo) MarkResolved(ctx context.Context, id, resolutionNote string, resolvedAt time.Time) (bool, error) {
	return f.MarkResolvedFn(ctx, id, resolutionNote, resolvedAt)
}

func (f *fakeEscalationRepo) List(ctx context.Context, escalatedByID *string, status *domain.EscalationStatus) ([]domain.Escalation, error) {
	return f.ListFn(ctx, escalatedByID, status)
}

type fakeMessageRepo struct {
	CreateFn       func(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicketFn func(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
	LatestSeqFn    func(ctx context.Context, ticketID string) (int64, error)
	CountAfterFn   func(ctx context.Context, ticketID string, afterSeq int64) (int, error)
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.TicketMessage) error {
	return f.CreateFn(ctx, msg)
}

func (f *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	return f.ListByTicketFn(ctx, ticketID)
}

func (f *fakeMessageRepo) LatestSeq(ctx context.Context, ticketID string) (int64, error) {
	return f.LatestSeqFn(ctx, ticketID)
}

func (f *fakeMessageRepo) CountAfter(ctx context.Context, ticketID string, afterSeq int64) (int, error) {
	return f.CountAfterFn(ctx, ticketID, afterSeq)
}

type fakeAdminRepo struct {
	GetByIDFn    func(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.Admin, error)
	ListActiveFn func(ctx context.Context) ([]domain.Admin, error)
}

func (f *fakeAdminRepo) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeAdminRepo) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if f.GetByEmailFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByEmailFn(ctx, email)
}

func (f *fakeAdminRepo) ListActive(ctx context.Context) ([]domain.Admin, error) {
	return f.ListActiveFn(ctx)
}

type fakeUserRepo struct {
	GetByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.GetByEmailFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByEmailFn(ctx, email)
}

type fakeDepartmentRepo struct {
	GetByIDFn func(ctx context.Context, id string) (*domain.Department, error)
	ListFn    func(ctx context.Context) ([]domain.Department, error)
}

func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if f.GetByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeDepartmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	return f.ListFn(ctx)
}

type fakeBookmarkRepo struct {
	CreateFn      func(ctx context.Context, bookmark *domain.Bookmark) error
	DeleteFn      func(ctx context.Context, id, adminID string) (bool, error)
	ListByAdminFn func(ctx context.Context, adminID string) ([]domain.Bookmark, error)
}

func (f *fakeBookmarkRepo) Create(ctx context.Context, bookmark *domain.Bookmark) error {
	return f.CreateFn(ctx, bookmark)
}

func (f *fakeBookmarkRepo) Delete(ctx context.Context, id, adminID string) (bool, error) {
	return f.DeleteFn(ctx, id, adminID)
}

func (f *fakeBookmarkRepo) ListByAdmin(ctx context.Context, adminID string) ([]domain.Bookmark, error) {
	return f.ListByAdminFn(ctx, adminID)
}

type fakeReadMarkerRepo struct {
	mu    sync.Mutex
	marks map[string]map[string]int64
}

func newFakeReadMarkerRepo() *fakeReadMarkerRepo {
	return &fakeReadMarkerRepo{marks: make(map[string]map[string]int64)}
}

func (f *fakeReadMarkerRepo) SetWatermark(ctx context.Context, viewerID, ticketID string, seq int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[viewerID] == nil {
		f.marks[viewerID] = make(map[string]int64)
	}
	f.marks[viewerID][ticketID] = seq
	return nil
}

func (f *fakeReadMarkerRepo) GetWatermark(ctx context.Context, viewerID, ticketID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[viewerID][ticketID], nil
}

func (f *fakeReadMarkerRepo) GetWatermarks(ctx context.Context, viewerID string, ticketIDs []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(ticketIDs))
	for _, id := range ticketIDs {
		out[id] = f.marks[viewerID][id]
	}
	return out, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
