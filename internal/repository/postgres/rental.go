package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type rentalRepository struct {
	db DBTX
}

const rentalColumns = `id, tool_id, member_id, start_date, end_date, status, total_price,
	actual_return_date, COALESCE(return_comment, ''), created_by, created_on, updated_on`

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	err := row.Scan(&rt.ID, &rt.ToolID, &rt.MemberID, &rt.StartDate, &rt.EndDate, &rt.Status, &rt.TotalPrice,
		&rt.ActualReturnDate, &rt.ReturnComment, &rt.CreatedBy, &rt.CreatedOn, &rt.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	logger.EnterMethod("rentalRepository.Create", "toolID", rt.ToolID, "memberID", rt.MemberID)

	now := time.Now()
	query := `INSERT INTO rentals (tool_id, member_id, start_date, end_date, status, total_price, created_by, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, rt.ToolID, rt.MemberID, domain.DateOnly(rt.StartDate), domain.DateOnly(rt.EndDate),
		rt.Status, rt.TotalPrice, rt.CreatedBy, now, now).Scan(&rt.ID)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.Create", err, "toolID", rt.ToolID)
		return translateError(err)
	}
	rt.CreatedOn, rt.UpdatedOn = now, now

	logger.ExitMethod("rentalRepository.Create", "rentalID", rt.ID)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	rt, err := scanRental(r.db.QueryRowContext(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("rental", id, err)
	}
	return rt, nil
}

func (r *rentalRepository) LockByID(ctx context.Context, id int32) (*domain.Rental, error) {
	logger.DatabaseCall("LockByID", "SELECT rentals FOR UPDATE", "rentalID", id)
	rt, err := scanRental(r.db.QueryRowContext(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("rental", id, err)
	}
	return rt, nil
}

// Update writes the mutable workflow fields. Price and period never change.
func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental, from domain.RentalStatus) error {
	rt.UpdatedOn = time.Now()
	query := `UPDATE rentals SET status = $1, actual_return_date = $2, return_comment = $3, updated_on = $4
	          WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, rt.Status, rt.ActualReturnDate, nullString(rt.ReturnComment), rt.UpdatedOn, rt.ID, from)
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: rental %d is no longer %s", domain.ErrInvalidState, rt.ID, from)
	}
	return nil
}

func (r *rentalRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "rental", id)
}

func (r *rentalRepository) ListNonTerminalByTool(ctx context.Context, toolID int32) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE tool_id = $1 AND status = ANY($2) ORDER BY start_date`
	return r.query(ctx, query, toolID, pq.Array(statusStrings(domain.NonTerminalRentalStatuses)))
}

func (r *rentalRepository) ListActiveEndingBefore(ctx context.Context, date time.Time) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 AND end_date < $2 ORDER BY end_date`
	return r.query(ctx, query, domain.RentalStatusActive, domain.DateOnly(date))
}

func (r *rentalRepository) List(ctx context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	logger.EnterMethod("rentalRepository.List", "memberID", f.MemberID, "toolID", f.ToolID)
	f.Normalize()

	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(statusStrings(f.Statuses)))
	}
	if f.MemberID > 0 {
		add("member_id = $%d", f.MemberID)
	}
	if f.ToolID > 0 {
		add("tool_id = $%d", f.ToolID)
	}
	if f.From != nil {
		add("end_date > $%d", domain.DateOnly(*f.From))
	}
	if f.To != nil {
		add("start_date < $%d", domain.DateOnly(*f.To))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM rentals`+where, args...).Scan(&count); err != nil {
		logger.ExitMethodWithError("rentalRepository.List", err)
		return nil, 0, translateError(err)
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals` + where +
		fmt.Sprintf(` ORDER BY start_date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rentals, err := r.query(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("rentalRepository.List", err)
		return nil, 0, err
	}

	logger.ExitMethod("rentalRepository.List", "count", len(rentals), "total", count)
	return rentals, count, nil
}

func (r *rentalRepository) query(ctx context.Context, query string, args ...any) ([]domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}
