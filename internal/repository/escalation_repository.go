package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EscalationRepository persists escalation holds. At most one open escalation
// exists per ticket (enforced by a partial unique index).
type EscalationRepository interface {
	Create(ctx context.Context, escalation *domain.Escalation) error
	GetByID(ctx context.Context, id string) (*domain.Escalation, error)
	OpenByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error)
	MarkResolved(ctx context.Context, id, resolutionNote string, resolvedAt time.Time) (bool, error)
	List(ctx context.Context, escalatedByID *string, status *domain.EscalationStatus) ([]domain.Escalation, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

const escalationColumns = `id, ticket_id, escalated_by_id, reason, status, resolution_note, created_at, resolved_at`

func (r *escalationRepository) Create(ctx context.Context, escalation *domain.Escalation) error {
	const query = `
        INSERT INTO escalations (ticket_id, escalated_by_id, reason, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, query,
		escalation.TicketID,
		escalation.EscalatedByID,
		escalation.Reason,
		domain.EscalationStatusOpen,
	).Scan(&escalation.ID, &escalation.CreatedAt); err != nil {
		return err
	}
	escalation.Status = domain.EscalationStatusOpen
	return nil
}

func (r *escalationRepository) GetByID(ctx context.Context, id string) (*domain.Escalation, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalations WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

// OpenByTicket returns the ticket's open escalation, or nil when none exists.
func (r *escalationRepository) OpenByTicket(ctx context.Context, ticketID string) (*domain.Escalation, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalations WHERE ticket_id=$1 AND status=$2`
	escalation, err := r.fetchSingle(ctx, query, ticketID, domain.EscalationStatusOpen)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return escalation, err
}

func (r *escalationRepository) MarkResolved(ctx context.Context, id, resolutionNote string, resolvedAt time.Time) (bool, error) {
	const query = `
        UPDATE escalations SET status=$2, resolution_note=$3, resolved_at=$4
        WHERE id=$1 AND status=$5`
	cmd, err := r.pool.Exec(ctx, query, id, domain.EscalationStatusResolved, resolutionNote, resolvedAt, domain.EscalationStatusOpen)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *escalationRepository) List(ctx context.Context, escalatedByID *string, status *domain.EscalationStatus) ([]domain.Escalation, error) {
	query := `SELECT ` + escalationColumns + ` FROM escalations WHERE 1=1`
	args := []any{}
	if escalatedByID != nil {
		args = append(args, *escalatedByID)
		query += ` AND escalated_by_id=$1`
	}
	if status != nil {
		args = append(args, *status)
		if len(args) == 1 {
			query += ` AND status=$1`
		} else {
			query += ` AND status=$2`
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var escalation domain.Escalation
		if err := rows.Scan(
			&escalation.ID,
			&escalation.TicketID,
			&escalation.EscalatedByID,
			&escalation.Reason,
			&escalation.Status,
			&escalation.ResolutionNote,
			&escalation.CreatedAt,
			&escalation.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, escalation)
	}
	return result, rows.Err()
}

func (r *escalationRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Escalation, error) {
	var escalation domain.Escalation
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&escalation.ID,
		&escalation.TicketID,
		&escalation.EscalatedByID,
		&escalation.Reason,
		&escalation.Status,
		&escalation.ResolutionNote,
		&escalation.CreatedAt,
		&escalation.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &escalation, nil
}
