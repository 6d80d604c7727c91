package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketFilter captures list/search parameters.
type TicketFilter struct {
	CreatorID       *string
	DepartmentID    *string
	AssignedAdminID *string
	Statuses        []domain.TicketStatus
	Priorities      []domain.TicketPriority
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence. The Assign, MarkResolved,
// MarkClosed and MarkReopened methods are conditional single-statement
// updates: the precondition is evaluated by the store, not by application
// code, so concurrent callers cannot both win. A false return means the
// precondition did not hold at write time.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, departmentID *string) (map[domain.TicketStatus]int, error)

	ListByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error)
	CountAssigned(ctx context.Context, adminID string, status domain.TicketStatus) (int, error)

	Assign(ctx context.Context, ticketID, adminID string) (bool, error)
	Reassign(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error)
	MarkResolved(ctx context.Context, ticketID, adminID string, note domain.ResolutionNote) (bool, error)
	MarkClosed(ctx context.Context, ticketID string, closedAt time.Time) (bool, error)
	MarkReopened(ctx context.Context, ticketID string) (bool, error)
	UpdateDetails(ctx context.Context, ticketID string, details domain.TicketDetails) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, seq, creator_user_id, department_id, assigned_admin_id,
       title, description, status, priority, details, resolution_notes, attachments,
       reopened, created_at, updated_at, resolved_at, admin_resolved_at, user_closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (creator_user_id, department_id, title, description, status, priority, details, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, seq, created_at, updated_at`
	var seq int64
	if err := r.pool.QueryRow(ctx, query,
		ticket.CreatorID,
		ticket.DepartmentID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Details,
		ticket.Attachments,
	).Scan(&ticket.ID, &seq, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}
	ticket.SequenceNo = formatSequenceNo(seq)
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

// Assign claims an open, unassigned ticket. The WHERE clause is the
// compare-and-set: exactly one of two concurrent callers sees a row updated.
func (r *ticketRepository) Assign(ctx context.Context, ticketID, adminID string) (bool, error) {
	const query = `
        UPDATE tickets
        SET status=$2, assigned_admin_id=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4 AND assigned_admin_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, ticketID, domain.TicketStatusInProgress, adminID, domain.TicketStatusOpen)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// Reassign hands an in-progress ticket from one administrator to another,
// used when a referral is accepted. The guard on the current holder keeps a
// stale accept from clobbering a later hand-off.
func (r *ticketRepository) Reassign(ctx context.Context, ticketID, fromAdminID, toAdminID string) (bool, error) {
	const query = `
        UPDATE tickets
        SET assigned_admin_id=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4 AND assigned_admin_id=$2`
	cmd, err := r.pool.Exec(ctx, query, ticketID, fromAdminID, toAdminID, domain.TicketStatusInProgress)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkResolved resolves a ticket held by adminID, appending the resolution
// note in the same statement.
func (r *ticketRepository) MarkResolved(ctx context.Context, ticketID, adminID string, note domain.ResolutionNote) (bool, error) {
	const query = `
        UPDATE tickets
        SET status=$2,
            resolution_notes = resolution_notes || $3::jsonb,
            resolved_at=$4, admin_resolved_at=$4, updated_at=NOW()
        WHERE id=$1 AND status=$5 AND assigned_admin_id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticketID,
		domain.TicketStatusResolved,
		[]domain.ResolutionNote{note},
		note.CreatedAt,
		domain.TicketStatusInProgress,
		adminID,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) MarkClosed(ctx context.Context, ticketID string, closedAt time.Time) (bool, error) {
	const query = `
        UPDATE tickets
        SET status=$2, user_closed_at=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, ticketID, domain.TicketStatusClosed, closedAt, domain.TicketStatusResolved)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkReopened returns a resolved or closed ticket to open. The assignee is
// released and the reopened flag sticks permanently.
func (r *ticketRepository) MarkReopened(ctx context.Context, ticketID string) (bool, error) {
	const query = `
        UPDATE tickets
        SET status=$2, assigned_admin_id=NULL, reopened=TRUE,
            resolved_at=NULL, admin_resolved_at=NULL, user_closed_at=NULL, updated_at=NOW()
        WHERE id=$1 AND status = ANY($3)`
	cmd, err := r.pool.Exec(ctx, query, ticketID, domain.TicketStatusOpen,
		[]domain.TicketStatus{domain.TicketStatusResolved, domain.TicketStatusClosed})
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *ticketRepository) UpdateDetails(ctx context.Context, ticketID string, details domain.TicketDetails) error {
	const query = `UPDATE tickets SET details=$2, updated_at=NOW() WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, ticketID, details)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id = ANY($1)`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountAssigned(ctx context.Context, adminID string, status domain.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE assigned_admin_id=$1 AND status=$2`
	var count int
	err := r.pool.QueryRow(ctx, query, adminID, status).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, departmentID *string) (map[domain.TicketStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tickets`
	args := []any{}
	if departmentID != nil {
		query += ` WHERE department_id=$1`
		args = append(args, *departmentID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_user_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedAdminID != nil {
		args = append(args, *filter.AssignedAdminID)
		clauses = append(clauses, fmt.Sprintf("assigned_admin_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var seq int64
	if err := row.Scan(
		&ticket.ID,
		&seq,
		&ticket.CreatorID,
		&ticket.DepartmentID,
		&ticket.AssignedAdminID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Details,
		&ticket.ResolutionNotes,
		&ticket.Attachments,
		&ticket.Reopened,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.AdminResolvedAt,
		&ticket.UserClosedAt,
	); err != nil {
		return nil, err
	}
	ticket.SequenceNo = formatSequenceNo(seq)
	return &ticket, nil
}

func formatSequenceNo(seq int64) string {
	return fmt.Sprintf("HD-%05d", seq)
}
