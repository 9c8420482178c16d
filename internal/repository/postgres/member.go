package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type memberRepository struct {
	db DBTX
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	query := `INSERT INTO members (name, email, membership_expires_on, debt, created_on)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_on`
	err := r.db.QueryRowContext(ctx, query, m.Name, m.Email, domain.DateOnly(m.MembershipExpiresOn), m.Debt, time.Now()).
		Scan(&m.ID, &m.CreatedOn)
	return translateError(err)
}

func (r *memberRepository) GetByID(ctx context.Context, id int32) (*domain.Member, error) {
	m := &domain.Member{}
	query := `SELECT id, name, email, membership_expires_on, debt, created_on FROM members WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Email, &m.MembershipExpiresOn, &m.Debt, &m.CreatedOn)
	if err != nil {
		return nil, notFound("member", id, err)
	}
	return m, nil
}

func (r *memberRepository) AdjustDebt(ctx context.Context, id int32, delta decimal.Decimal) error {
	query := `UPDATE members SET debt = debt + $1 WHERE id = $2`
	logger.DatabaseCall("AdjustDebt", query, "memberID", id, "delta", delta.String())

	res, err := r.db.ExecContext(ctx, query, delta, id)
	if err != nil {
		logger.DatabaseResult("AdjustDebt", 0, err, "memberID", id)
		return translateError(err)
	}
	return checkAffected(res, "member", id)
}

func (r *memberRepository) UpdateExpiry(ctx context.Context, id int32, expiresOn time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET membership_expires_on = $1 WHERE id = $2`, domain.DateOnly(expiresOn), id)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "member", id)
}
