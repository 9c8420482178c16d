package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/repository"
)

type ledgerService struct {
	store repository.Store
}

func NewLedgerService(store repository.Store) LedgerService {
	return &ledgerService{store: store}
}

// bookTransaction moves the member debt by the entry amount and records the
// entry. Debt is only ever changed together with a ledger entry.
func bookTransaction(ctx context.Context, tx repository.Store, entry *domain.LedgerTransaction) error {
	if err := tx.Members().AdjustDebt(ctx, entry.MemberID, entry.Amount); err != nil {
		return err
	}
	return tx.Ledger().Create(ctx, entry)
}

// reverseRentalCharge undoes the charge booked when the rental was created.
// A rental whose charge is already gone is left alone.
func reverseRentalCharge(ctx context.Context, tx repository.Store, rentalID int32) error {
	charge, err := tx.Ledger().GetChargeByRentalID(ctx, rentalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Members().AdjustDebt(ctx, charge.MemberID, charge.Amount.Neg()); err != nil {
		return err
	}
	return tx.Ledger().Delete(ctx, charge.ID)
}

func (s *ledgerService) ChargeMember(ctx context.Context, actor domain.Actor, in ChargeInput) (*domain.LedgerTransaction, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can charge members", domain.ErrForbidden)
	}
	switch in.Type {
	case domain.TransactionTypeMembershipFee, domain.TransactionTypeRepairCost:
	default:
		return nil, fmt.Errorf("%w: cannot book a %q charge directly", domain.ErrValidation, in.Type)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: charge amount must be positive", domain.ErrValidation)
	}

	entry := &domain.LedgerTransaction{
		MemberID:    in.MemberID,
		Amount:      in.Amount.Round(2),
		Type:        in.Type,
		Status:      domain.TransactionStatusPending,
		Description: in.Description,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return bookTransaction(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "member charged", "member_id", in.MemberID, "type", in.Type, "amount", entry.Amount.String())
	return entry, nil
}

func (s *ledgerService) RecordPayment(ctx context.Context, actor domain.Actor, memberID int32, amount decimal.Decimal, description string) (*domain.LedgerTransaction, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can record payments", domain.ErrForbidden)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrValidation)
	}
	if description == "" {
		description = "Payment"
	}

	entry := &domain.LedgerTransaction{
		MemberID:    memberID,
		Amount:      amount.Round(2).Neg(),
		Type:        domain.TransactionTypePayment,
		Status:      domain.TransactionStatusPaid,
		Description: description,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		return bookTransaction(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SettleTransaction marks a pending charge paid and books the matching payment.
func (s *ledgerService) SettleTransaction(ctx context.Context, actor domain.Actor, transactionID int32) (*domain.LedgerTransaction, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can settle transactions", domain.ErrForbidden)
	}

	var charge *domain.LedgerTransaction
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		charge, err = tx.Ledger().GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if charge.Type == domain.TransactionTypePayment {
			return fmt.Errorf("%w: transaction %d is a payment", domain.ErrValidation, transactionID)
		}
		if charge.Status == domain.TransactionStatusPaid {
			return fmt.Errorf("%w: transaction %d is already paid", domain.ErrInvalidState, transactionID)
		}

		charge.Status = domain.TransactionStatusPaid
		if err := tx.Ledger().Update(ctx, charge); err != nil {
			return err
		}
		return bookTransaction(ctx, tx, &domain.LedgerTransaction{
			MemberID:    charge.MemberID,
			Amount:      charge.Amount.Neg(),
			Type:        domain.TransactionTypePayment,
			Status:      domain.TransactionStatusPaid,
			Description: fmt.Sprintf("Payment for transaction #%d", charge.ID),
		})
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, actor domain.Actor, memberID int32, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	if !actor.CanActFor(memberID) {
		return nil, 0, fmt.Errorf("%w: members can only see their own transactions", domain.ErrForbidden)
	}
	return s.store.Ledger().ListByMember(ctx, memberID, page, pageSize)
}
