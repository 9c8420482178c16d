package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeRentalCharge  TransactionType = "RENTAL_CHARGE"
	TransactionTypeMembershipFee TransactionType = "MEMBERSHIP_FEE"
	TransactionTypeRepairCost    TransactionType = "REPAIR_COST"
	TransactionTypePayment       TransactionType = "PAYMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeRentalCharge, TransactionTypeMembershipFee, TransactionTypeRepairCost, TransactionTypePayment:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusPaid    TransactionStatus = "PAID"
)

type LedgerTransaction struct {
	ID       int32 `json:"id"`
	MemberID int32 `json:"member_id"`
	// RentalID links a rental charge to its rental.
	RentalID     *int32            `json:"rental_id,omitempty"`
	Amount       decimal.Decimal   `json:"amount"` // positive adds to debt, negative reduces it
	Type         TransactionType   `json:"type"`
	Status       TransactionStatus `json:"status"`
	ToolReturned bool              `json:"tool_returned"`
	Description  string            `json:"description"`
	CreatedOn    time.Time         `json:"created_on"`
	UpdatedOn    time.Time         `json:"updated_on"`
}
