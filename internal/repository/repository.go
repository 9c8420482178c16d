package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
)

type ToolRepository interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id int32) (*domain.Tool, error)
	// LockByID reads the tool and holds a row lock until the surrounding
	// transaction ends. Rental writes for one tool serialize on this lock.
	LockByID(ctx context.Context, id int32) (*domain.Tool, error)
	UpdateStatus(ctx context.Context, id int32, status domain.ToolStatus) error
	RecordMaintenance(ctx context.Context, id int32, performedOn time.Time) error
	List(ctx context.Context, includeDeleted bool) ([]domain.Tool, error)
	SoftDelete(ctx context.Context, id int32, deletedOn time.Time) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id int32) (*domain.Member, error)
	// AdjustDebt applies debt = debt + delta in the store.
	AdjustDebt(ctx context.Context, id int32, delta decimal.Decimal) error
	UpdateExpiry(ctx context.Context, id int32, expiresOn time.Time) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int32) (*domain.Rental, error)
	// LockByID reads the rental under a row lock. Callers take the tool
	// lock first.
	LockByID(ctx context.Context, id int32) (*domain.Rental, error)
	// Update writes the workflow fields only while the stored status is
	// still from; otherwise it returns ErrInvalidState.
	Update(ctx context.Context, rental *domain.Rental, from domain.RentalStatus) error
	Delete(ctx context.Context, id int32) error
	ListNonTerminalByTool(ctx context.Context, toolID int32) ([]domain.Rental, error)
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	ListActiveEndingBefore(ctx context.Context, date time.Time) ([]domain.Rental, error)
}

type LedgerRepository interface {
	Create(ctx context.Context, tx *domain.LedgerTransaction) error
	GetByID(ctx context.Context, id int32) (*domain.LedgerTransaction, error)
	// GetChargeByRentalID returns the rental charge booked for a rental.
	GetChargeByRentalID(ctx context.Context, rentalID int32) (*domain.LedgerTransaction, error)
	Update(ctx context.Context, tx *domain.LedgerTransaction) error
	Delete(ctx context.Context, id int32) error
	ListByMember(ctx context.Context, memberID int32, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
}

type RentalHistoryRepository interface {
	Create(ctx context.Context, h *domain.RentalHistory) error
	// ListByRental returns the newest record first.
	ListByRental(ctx context.Context, rentalID int32) ([]domain.RentalHistory, error)
	DeleteByRental(ctx context.Context, rentalID int32) error
}

// Store groups the repositories and runs units of work against them.
// Repositories handed to the WithTx callback share one transaction: either
// every write made through them commits or none does.
type Store interface {
	Tools() ToolRepository
	Members() MemberRepository
	Rentals() RentalRepository
	Ledger() LedgerRepository
	History() RentalHistoryRepository
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
