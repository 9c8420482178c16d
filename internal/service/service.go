package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
)

type CreateRentalInput struct {
	ToolID    int32
	MemberID  int32
	StartDate time.Time
	EndDate   time.Time
	// PriceOverride replaces the computed price. Administrators only.
	PriceOverride *decimal.Decimal
}

// RentalService is the rental lifecycle engine. Every state change runs as
// one transaction covering the rental, tool, member debt, ledger and history.
type RentalService interface {
	CreateRental(ctx context.Context, actor domain.Actor, in CreateRentalInput) (*domain.Rental, error)
	ApproveRental(ctx context.Context, actor domain.Actor, rentalID int32) (*domain.Rental, error)
	RejectRental(ctx context.Context, actor domain.Actor, rentalID int32, comment string) (*domain.Rental, error)
	ReturnRental(ctx context.Context, actor domain.Actor, rentalID int32, actualReturnDate *time.Time, comment string) (*domain.Rental, error)
	DeleteRental(ctx context.Context, actor domain.Actor, rentalID int32) error

	GetRental(ctx context.Context, actor domain.Actor, rentalID int32) (*domain.Rental, error)
	ListRentals(ctx context.Context, actor domain.Actor, filter domain.RentalFilter) ([]domain.Rental, int32, error)
	GetRentalHistory(ctx context.Context, actor domain.Actor, rentalID int32) ([]domain.RentalHistory, error)
}

type ChargeInput struct {
	MemberID    int32
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
}

type LedgerService interface {
	ChargeMember(ctx context.Context, actor domain.Actor, in ChargeInput) (*domain.LedgerTransaction, error)
	RecordPayment(ctx context.Context, actor domain.Actor, memberID int32, amount decimal.Decimal, description string) (*domain.LedgerTransaction, error)
	SettleTransaction(ctx context.Context, actor domain.Actor, transactionID int32) (*domain.LedgerTransaction, error)
	ListTransactions(ctx context.Context, actor domain.Actor, memberID int32, page, pageSize int32) ([]domain.LedgerTransaction, int32, error)
}

type MaintenanceInput struct {
	ToolID      int32
	PerformedOn time.Time
	// RepairCost, when set, is charged to ChargeMemberID.
	RepairCost     *decimal.Decimal
	ChargeMemberID int32
	Note           string
}

type ToolService interface {
	AddTool(ctx context.Context, actor domain.Actor, tool *domain.Tool) error
	GetTool(ctx context.Context, id int32) (*domain.Tool, error)
	ListTools(ctx context.Context) ([]domain.Tool, error)
	SetToolStatus(ctx context.Context, actor domain.Actor, id int32, status domain.ToolStatus) (*domain.Tool, error)
	RecordMaintenance(ctx context.Context, actor domain.Actor, in MaintenanceInput) (*domain.Tool, error)
	DeleteTool(ctx context.Context, actor domain.Actor, id int32) error
	// MaintenanceDue lists the tools the maintenance gate currently blocks.
	MaintenanceDue(ctx context.Context) ([]domain.Tool, error)
}

type MemberService interface {
	AddMember(ctx context.Context, actor domain.Actor, member *domain.Member) error
	GetMember(ctx context.Context, actor domain.Actor, id int32) (*domain.Member, error)
	RenewMembership(ctx context.Context, actor domain.Actor, id int32, expiresOn time.Time, fee *decimal.Decimal) (*domain.Member, error)
}
