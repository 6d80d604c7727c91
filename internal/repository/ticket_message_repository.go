package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TicketMessageRepository manages ticket conversation messages. The Seq
// column is a bigserial: LatestSeq and CountAfter implement the last-message
// watermark unread semantics.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
	LatestSeq(ctx context.Context, ticketID string) (int64, error)
	CountAfter(ctx context.Context, ticketID string, afterSeq int64) (int, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_type, author_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, seq, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorType,
		msg.AuthorID,
		msg.Body,
	).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, seq, ticket_id, author_type, author_id, body, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.Seq,
			&msg.TicketID,
			&msg.AuthorType,
			&msg.AuthorID,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

// LatestSeq returns 0 for a ticket with no messages.
func (r *ticketMessageRepository) LatestSeq(ctx context.Context, ticketID string) (int64, error) {
	const query = `SELECT seq FROM ticket_messages WHERE ticket_id=$1 ORDER BY seq DESC LIMIT 1`
	var seq int64
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&seq)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return seq, err
}

func (r *ticketMessageRepository) CountAfter(ctx context.Context, ticketID string, afterSeq int64) (int, error) {
	const query = `SELECT COUNT(*) FROM ticket_messages WHERE ticket_id=$1 AND seq > $2`
	var count int
	err := r.pool.QueryRow(ctx, query, ticketID, afterSeq).Scan(&count)
	return count, err
}
