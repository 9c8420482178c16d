package postgres

import (
	"context"
	"time"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type ledgerRepository struct {
	db DBTX
}

const transactionColumns = `id, member_id, rental_id, amount, type, status, tool_returned,
	COALESCE(description, ''), created_on, updated_on`

func scanTransaction(row rowScanner) (*domain.LedgerTransaction, error) {
	tx := &domain.LedgerTransaction{}
	err := row.Scan(&tx.ID, &tx.MemberID, &tx.RentalID, &tx.Amount, &tx.Type, &tx.Status, &tx.ToolReturned,
		&tx.Description, &tx.CreatedOn, &tx.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *ledgerRepository) Create(ctx context.Context, tx *domain.LedgerTransaction) error {
	logger.EnterMethod("ledgerRepository.Create", "memberID", tx.MemberID, "type", tx.Type)

	now := time.Now()
	query := `INSERT INTO ledger_transactions (member_id, rental_id, amount, type, status, tool_returned, description, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, tx.MemberID, tx.RentalID, tx.Amount, tx.Type, tx.Status, tx.ToolReturned,
		nullString(tx.Description), now, now).Scan(&tx.ID)
	if err != nil {
		logger.ExitMethodWithError("ledgerRepository.Create", err, "memberID", tx.MemberID)
		return translateError(err)
	}
	tx.CreatedOn, tx.UpdatedOn = now, now

	logger.ExitMethod("ledgerRepository.Create", "transactionID", tx.ID)
	return nil
}

func (r *ledgerRepository) GetByID(ctx context.Context, id int32) (*domain.LedgerTransaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM ledger_transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("transaction", id, err)
	}
	return tx, nil
}

func (r *ledgerRepository) GetChargeByRentalID(ctx context.Context, rentalID int32) (*domain.LedgerTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE rental_id = $1 AND type = $2`
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, rentalID, domain.TransactionTypeRentalCharge))
	if err != nil {
		return nil, notFound("rental charge for rental", rentalID, err)
	}
	return tx, nil
}

func (r *ledgerRepository) Update(ctx context.Context, tx *domain.LedgerTransaction) error {
	tx.UpdatedOn = time.Now()
	query := `UPDATE ledger_transactions SET status = $1, tool_returned = $2, description = $3, updated_on = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query, tx.Status, tx.ToolReturned, nullString(tx.Description), tx.UpdatedOn, tx.ID)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "transaction", tx.ID)
}

func (r *ledgerRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "transaction", id)
}

func (r *ledgerRepository) ListByMember(ctx context.Context, memberID int32, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_transactions WHERE member_id = $1`, memberID).Scan(&count); err != nil {
		return nil, 0, translateError(err)
	}

	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE member_id = $1
	          ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, memberID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	txs := []domain.LedgerTransaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *tx)
	}
	return txs, count, rows.Err()
}
