package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// BookmarkRepository persists per-administrator ticket pins.
type BookmarkRepository interface {
	Create(ctx context.Context, bookmark *domain.Bookmark) error
	Delete(ctx context.Context, id, adminID string) (bool, error)
	ListByAdmin(ctx context.Context, adminID string) ([]domain.Bookmark, error)
}

type bookmarkRepository struct {
	pool *pgxpool.Pool
}

// NewBookmarkRepository instantiates repository.
func NewBookmarkRepository(pool *pgxpool.Pool) BookmarkRepository {
	return &bookmarkRepository{pool: pool}
}

func (r *bookmarkRepository) Create(ctx context.Context, bookmark *domain.Bookmark) error {
	const query = `
        INSERT INTO bookmarks (admin_id, ticket_id, sequence_no, ticket_title, ticket_status, department_id, custom_title)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (admin_id, ticket_id) DO UPDATE SET custom_title=EXCLUDED.custom_title
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		bookmark.AdminID,
		bookmark.TicketID,
		bookmark.SequenceNo,
		bookmark.TicketTitle,
		bookmark.TicketStatus,
		bookmark.DepartmentID,
		bookmark.CustomTitle,
	).Scan(&bookmark.ID, &bookmark.CreatedAt)
}

// Delete removes a bookmark only when owned by adminID.
func (r *bookmarkRepository) Delete(ctx context.Context, id, adminID string) (bool, error) {
	const query = `DELETE FROM bookmarks WHERE id=$1 AND admin_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, adminID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *bookmarkRepository) ListByAdmin(ctx context.Context, adminID string) ([]domain.Bookmark, error) {
	const query = `
        SELECT id, admin_id, ticket_id, sequence_no, ticket_title, ticket_status, department_id, custom_title, created_at
        FROM bookmarks WHERE admin_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Bookmark
	for rows.Next() {
		var bookmark domain.Bookmark
		if err := rows.Scan(
			&bookmark.ID,
			&bookmark.AdminID,
			&bookmark.TicketID,
			&bookmark.SequenceNo,
			&bookmark.TicketTitle,
			&bookmark.TicketStatus,
			&bookmark.DepartmentID,
			&bookmark.CustomTitle,
			&bookmark.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, bookmark)
	}
	return result, rows.Err()
}
