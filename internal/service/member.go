package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/repository"
)

type memberService struct {
	store repository.Store
}

func NewMemberService(store repository.Store) MemberService {
	return &memberService{store: store}
}

func (s *memberService) AddMember(ctx context.Context, actor domain.Actor, m *domain.Member) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can add members", domain.ErrForbidden)
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("%w: member name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", domain.ErrValidation, m.Email)
	}
	if m.MembershipExpiresOn.IsZero() {
		return fmt.Errorf("%w: membership expiry date is required", domain.ErrValidation)
	}
	// Debt starts at zero and only moves with ledger entries.
	m.Debt = decimal.Zero
	return s.store.Members().Create(ctx, m)
}

func (s *memberService) GetMember(ctx context.Context, actor domain.Actor, id int32) (*domain.Member, error) {
	if !actor.CanActFor(id) {
		return nil, fmt.Errorf("%w: members can only see their own account", domain.ErrForbidden)
	}
	return s.store.Members().GetByID(ctx, id)
}

// RenewMembership moves the expiry date and books the optional fee in the
// same transaction.
func (s *memberService) RenewMembership(ctx context.Context, actor domain.Actor, id int32, expiresOn time.Time, fee *decimal.Decimal) (*domain.Member, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can renew memberships", domain.ErrForbidden)
	}
	if expiresOn.IsZero() {
		return nil, fmt.Errorf("%w: new expiry date is required", domain.ErrValidation)
	}
	if fee != nil && fee.IsNegative() {
		return nil, fmt.Errorf("%w: membership fee must not be negative", domain.ErrValidation)
	}

	var member *domain.Member
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		current, err := tx.Members().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !domain.DateOnly(expiresOn).After(domain.DateOnly(current.MembershipExpiresOn)) {
			return fmt.Errorf("%w: new expiry %s must be after the current one %s", domain.ErrValidation,
				expiresOn.Format(domain.DateLayout), current.MembershipExpiresOn.Format(domain.DateLayout))
		}
		if err := tx.Members().UpdateExpiry(ctx, id, expiresOn); err != nil {
			return err
		}
		if fee != nil && fee.IsPositive() {
			err := bookTransaction(ctx, tx, &domain.LedgerTransaction{
				MemberID:    id,
				Amount:      fee.Round(2),
				Type:        domain.TransactionTypeMembershipFee,
				Status:      domain.TransactionStatusPending,
				Description: fmt.Sprintf("Membership until %s", expiresOn.Format(domain.DateLayout)),
			})
			if err != nil {
				return err
			}
		}
		member, err = tx.Members().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}
