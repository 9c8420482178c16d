package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository/postgres"
)

const (
	sqlRentalByID    = `SELECT (.+) FROM rentals WHERE id = \$1$`
	sqlRentalLock    = `SELECT (.+) FROM rentals WHERE id = \$1 FOR UPDATE`
	sqlToolLock      = `SELECT (.+) FROM tools WHERE id = \$1 FOR UPDATE`
	sqlMemberByID    = `SELECT (.+) FROM members WHERE id = \$1`
	sqlToolStatus    = `UPDATE tools SET status = \$1 WHERE id = \$2`
	sqlRentalGuarded = `UPDATE rentals SET status = \$1, (.+) WHERE id = \$5 AND status = \$6`
	sqlHistoryInsert = `INSERT INTO rental_history`
	postgresRentalID = int32(11)
	postgresToolID   = int32(2)
	postgresMemberID = int32(3)
)

func newPostgresRentalService(t *testing.T) (RentalService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewRentalService(postgres.NewStore(db), notification.LogNotifier{}, WithClock(func() time.Time { return today }))
	return svc, mock
}

func pgRentalRow(status domain.RentalStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "tool_id", "member_id", "start_date", "end_date", "status", "total_price",
		"actual_return_date", "return_comment", "created_by", "created_on", "updated_on"}).
		AddRow(postgresRentalID, postgresToolID, postgresMemberID, week(0), week(1), string(status), "15.00",
			nil, "", postgresMemberID, today, today)
}

func pgToolRow(status domain.ToolStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "status", "weekly_rate", "maintenance_importance",
		"maintenance_interval_months", "last_maintenance_date", "created_on", "deleted_on"}).
		AddRow(postgresToolID, "Table saw", "", string(status), "15.00", "LOW", nil, nil, today, nil)
}

func pgMemberRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "membership_expires_on", "debt", "created_on"}).
		AddRow(postgresMemberID, "Ada", "ada@example.com", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "15.00", today)
}

// expectLoad is the read sequence every transition starts with: locate the
// tool, lock it, then read the rental again under its own row lock.
func expectLoad(mock sqlmock.Sqlmock, before, locked domain.RentalStatus) {
	mock.ExpectBegin()
	mock.ExpectQuery(sqlRentalByID).WithArgs(postgresRentalID).WillReturnRows(pgRentalRow(before))
	mock.ExpectQuery(sqlToolLock).WithArgs(postgresToolID).WillReturnRows(pgToolRow(domain.ToolStatusAvailable))
	mock.ExpectQuery(sqlRentalLock).WithArgs(postgresRentalID).WillReturnRows(pgRentalRow(locked))
	mock.ExpectQuery(sqlMemberByID).WithArgs(postgresMemberID).WillReturnRows(pgMemberRow())
}

func TestApproveRental_Postgres(t *testing.T) {
	ctx := context.Background()

	t.Run("Decides on the rental read under the tool lock", func(t *testing.T) {
		svc, mock := newPostgresRentalService(t)
		expectLoad(mock, domain.RentalStatusPending, domain.RentalStatusPending)
		mock.ExpectExec(sqlToolStatus).WithArgs(domain.ToolStatusRented, postgresToolID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(sqlRentalGuarded).
			WithArgs(domain.RentalStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), postgresRentalID, domain.RentalStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(sqlHistoryInsert).
			WithArgs(postgresRentalID, adminActor.UserID, domain.HistoryActionApproved, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_on"}).AddRow(1, today))
		mock.ExpectCommit()

		rental, err := svc.ApproveRental(ctx, adminActor, postgresRentalID)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusActive, rental.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rental rejected while waiting for the lock", func(t *testing.T) {
		svc, mock := newPostgresRentalService(t)
		expectLoad(mock, domain.RentalStatusPending, domain.RentalStatusRejected)
		mock.ExpectRollback()

		_, err := svc.ApproveRental(ctx, adminActor, postgresRentalID)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Status guard refuses a stale update", func(t *testing.T) {
		svc, mock := newPostgresRentalService(t)
		expectLoad(mock, domain.RentalStatusPending, domain.RentalStatusPending)
		mock.ExpectExec(sqlToolStatus).WithArgs(domain.ToolStatusRented, postgresToolID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(sqlRentalGuarded).
			WithArgs(domain.RentalStatusActive, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), postgresRentalID, domain.RentalStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := svc.ApproveRental(ctx, adminActor, postgresRentalID)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRejectRental_Postgres_SecondRejectLoses(t *testing.T) {
	svc, mock := newPostgresRentalService(t)
	expectLoad(mock, domain.RentalStatusPending, domain.RentalStatusRejected)
	mock.ExpectRollback()

	_, err := svc.RejectRental(context.Background(), adminActor, postgresRentalID, "duplicate")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}
