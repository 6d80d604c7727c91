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

// ActivityRepository stores the append-only activity log. There is no update
// or delete: records are written once by protocol operations and replayed by
// analytics.
type ActivityRepository interface {
	Create(ctx context.Context, record *domain.ActivityRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityRecord, error)
	ListInRange(ctx context.Context, from, to *time.Time) ([]domain.ActivityRecord, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, record *domain.ActivityRecord) error {
	const query = `
        INSERT INTO activity_records (ticket_id, actor_id, activity_type, description, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.ActorID,
		record.Type,
		record.Description,
		record.OldValue,
		record.NewValue,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ActivityRecord, error) {
	const query = `
        SELECT id, ticket_id, actor_id, activity_type, description, old_value, new_value, created_at
        FROM activity_records WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityRecords(rows)
}

func (r *activityRepository) ListInRange(ctx context.Context, from, to *time.Time) ([]domain.ActivityRecord, error) {
	base := `SELECT id, ticket_id, actor_id, activity_type, description, old_value, new_value, created_at
             FROM activity_records`
	clauses := []string{"1=1"}
	args := []any{}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY created_at ASC", base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityRecords(rows)
}

func scanActivityRecords(rows pgx.Rows) ([]domain.ActivityRecord, error) {
	var result []domain.ActivityRecord
	for rows.Next() {
		var record domain.ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.ActorID,
			&record.Type,
			&record.Description,
			&record.OldValue,
			&record.NewValue,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
