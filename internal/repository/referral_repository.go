package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// ReferralRepository persists referral hand-offs. CreateIfCooldownClear is
// the authoritative cooldown check: it runs as a transactional
// check-and-insert under an advisory lock keyed on (ticket, referring admin),
// so two racing requests from the same admin cannot both pass the window
// check before either insert lands.
type ReferralRepository interface {
	CreateIfCooldownClear(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error)
	LatestCreatedAt(ctx context.Context, ticketID, referredByID string) (*time.Time, error)
	GetByID(ctx context.Context, id string) (*domain.Referral, error)
	MarkResponded(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error)
	ListInbound(ctx context.Context, adminID string, pendingOnly bool) ([]domain.Referral, error)
	ListOutbound(ctx context.Context, adminID string) ([]domain.Referral, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Referral, error)
	CountPendingInbound(ctx context.Context, adminID string) (int, error)
	CountOutboundAcceptedSince(ctx context.Context, adminID string, since time.Time) (int, error)
}

type referralRepository struct {
	pool *pgxpool.Pool
}

// NewReferralRepository instantiates repository.
func NewReferralRepository(pool *pgxpool.Pool) ReferralRepository {
	return &referralRepository{pool: pool}
}

const referralColumns = `id, ticket_id, referred_by_id, referred_to_id, status, message, created_at, responded_at`

func (r *referralRepository) CreateIfCooldownClear(ctx context.Context, referral *domain.Referral, window time.Duration) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize racing referrals for the same (ticket, admin) pair. The lock
	// is released at commit/rollback.
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1 || ':' || $2))`
	if _, err := tx.Exec(ctx, lockQuery, referral.TicketID, referral.ReferredByID); err != nil {
		return false, err
	}

	const checkQuery = `
        SELECT created_at FROM referrals
        WHERE ticket_id=$1 AND referred_by_id=$2
        ORDER BY created_at DESC LIMIT 1`
	var latest time.Time
	err = tx.QueryRow(ctx, checkQuery, referral.TicketID, referral.ReferredByID).Scan(&latest)
	switch {
	case err == nil:
		if time.Since(latest) < window {
			return false, nil
		}
	case errors.Is(err, pgx.ErrNoRows):
		// no prior referral, cooldown clear
	default:
		return false, err
	}

	const insertQuery = `
        INSERT INTO referrals (ticket_id, referred_by_id, referred_to_id, status, message)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertQuery,
		referral.TicketID,
		referral.ReferredByID,
		referral.ReferredToID,
		domain.ReferralStatusPending,
		referral.Message,
	).Scan(&referral.ID, &referral.CreatedAt); err != nil {
		return false, err
	}
	referral.Status = domain.ReferralStatusPending

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// LatestCreatedAt backs the advisory client-facing cooldown check. Returns
// nil when the pair has never referred this ticket.
func (r *referralRepository) LatestCreatedAt(ctx context.Context, ticketID, referredByID string) (*time.Time, error) {
	const query = `
        SELECT created_at FROM referrals
        WHERE ticket_id=$1 AND referred_by_id=$2
        ORDER BY created_at DESC LIMIT 1`
	var latest time.Time
	err := r.pool.QueryRow(ctx, query, ticketID, referredByID).Scan(&latest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &latest, nil
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE id=$1`
	var ref domain.Referral
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ref.ID,
		&ref.TicketID,
		&ref.ReferredByID,
		&ref.ReferredToID,
		&ref.Status,
		&ref.Message,
		&ref.CreatedAt,
		&ref.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &ref, nil
}

// MarkResponded finalizes a pending referral. The status guard makes the
// terminal transition first-writer-wins.
func (r *referralRepository) MarkResponded(ctx context.Context, id string, status domain.ReferralStatus, respondedAt time.Time) (bool, error) {
	const query = `
        UPDATE referrals SET status=$2, responded_at=$3
        WHERE id=$1 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query, id, status, respondedAt, domain.ReferralStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *referralRepository) ListInbound(ctx context.Context, adminID string, pendingOnly bool) ([]domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE referred_to_id=$1`
	args := []any{adminID}
	if pendingOnly {
		query += ` AND status=$2`
		args = append(args, domain.ReferralStatusPending)
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *referralRepository) ListOutbound(ctx context.Context, adminID string) ([]domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE referred_by_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, adminID)
}

func (r *referralRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Referral, error) {
	query := `SELECT ` + referralColumns + ` FROM referrals WHERE ticket_id=$1 ORDER BY created_at ASC`
	return r.list(ctx, query, ticketID)
}

func (r *referralRepository) CountPendingInbound(ctx context.Context, adminID string) (int, error) {
	const query = `SELECT COUNT(*) FROM referrals WHERE referred_to_id=$1 AND status=$2`
	var count int
	err := r.pool.QueryRow(ctx, query, adminID, domain.ReferralStatusPending).Scan(&count)
	return count, err
}

func (r *referralRepository) CountOutboundAcceptedSince(ctx context.Context, adminID string, since time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM referrals
        WHERE referred_by_id=$1 AND status=$2 AND responded_at >= $3`
	var count int
	err := r.pool.QueryRow(ctx, query, adminID, domain.ReferralStatusAccepted, since).Scan(&count)
	return count, err
}

func (r *referralRepository) list(ctx context.Context, query string, args ...any) ([]domain.Referral, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(
			&ref.ID,
			&ref.TicketID,
			&ref.ReferredByID,
			&ref.ReferredToID,
			&ref.Status,
			&ref.Message,
			&ref.CreatedAt,
			&ref.RespondedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ref)
	}
	return result, rows.Err()
}
