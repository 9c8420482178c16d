package postgres

import (
	"context"
	"time"

	"toolshed-backend/internal/domain"
)

type historyRepository struct {
	db DBTX
}

func (r *historyRepository) Create(ctx context.Context, h *domain.RentalHistory) error {
	query := `INSERT INTO rental_history (rental_id, actor_id, action, comment, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_on`
	err := r.db.QueryRowContext(ctx, query, h.RentalID, h.ActorID, h.Action, nullString(h.Comment), time.Now()).
		Scan(&h.ID, &h.CreatedOn)
	return translateError(err)
}

func (r *historyRepository) ListByRental(ctx context.Context, rentalID int32) ([]domain.RentalHistory, error) {
	query := `SELECT id, rental_id, actor_id, action, COALESCE(comment, ''), created_on
	          FROM rental_history WHERE rental_id = $1 ORDER BY created_on DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	records := []domain.RentalHistory{}
	for rows.Next() {
		var h domain.RentalHistory
		if err := rows.Scan(&h.ID, &h.RentalID, &h.ActorID, &h.Action, &h.Comment, &h.CreatedOn); err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

func (r *historyRepository) DeleteByRental(ctx context.Context, rentalID int32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rental_history WHERE rental_id = $1`, rentalID)
	return translateError(err)
}
