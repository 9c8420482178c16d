package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/repository"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the postgres backed repository.Store.
type Store struct {
	db   *sql.DB
	inTx bool

	tools   *toolRepository
	members *memberRepository
	rentals *rentalRepository
	ledger  *ledgerRepository
	history *historyRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return newStore(db, db, false)
}

func newStore(db *sql.DB, q DBTX, inTx bool) *Store {
	return &Store{
		db:      db,
		inTx:    inTx,
		tools:   &toolRepository{db: q},
		members: &memberRepository{db: q},
		rentals: &rentalRepository{db: q},
		ledger:  &ledgerRepository{db: q},
		history: &historyRepository{db: q},
	}
}

// Open connects and verifies the connection with a ping.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (s *Store) DB() *sql.DB                                  { return s.db }
func (s *Store) Tools() repository.ToolRepository            { return s.tools }
func (s *Store) Members() repository.MemberRepository        { return s.members }
func (s *Store) Rentals() repository.RentalRepository        { return s.rentals }
func (s *Store) Ledger() repository.LedgerRepository         { return s.ledger }
func (s *Store) History() repository.RentalHistoryRepository { return s.history }

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn in a read committed transaction. Rental writers take a row
// lock on the tool first, which is what serializes them. A nested call joins
// the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newStore(s.db, tx, true)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("rollback failed", "error", rbErr)
		}
		return translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return translateError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

const (
	pqExclusionViolation   = "23P01"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// translateError maps driver errors onto domain error kinds. Errors that
// already carry a domain kind pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqExclusionViolation:
			return fmt.Errorf("%w: overlapping rental for the tool (%s)", domain.ErrConflict, pqErr.Constraint)
		case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Message)
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Message)
		}
	}
	return err
}

func notFound(entity string, id int32, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, entity, id)
	}
	return translateError(err)
}

// checkAffected turns an update that touched no row into ErrNotFound.
func checkAffected(res sql.Result, entity string, id int32) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, entity, id)
	}
	return nil
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func statusStrings[T ~string](statuses []T) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
