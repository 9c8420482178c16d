package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"toolshed-backend/internal/domain"
)

type toolRepository struct{ v *view }

func (r *toolRepository) Create(_ context.Context, tool *domain.Tool) error {
	return r.v.do(func(t *tables) error {
		tool.ID = t.id("tools")
		tool.CreatedOn = time.Now()
		t.tools[tool.ID] = *tool
		return nil
	})
}

func (r *toolRepository) GetByID(_ context.Context, id int32) (*domain.Tool, error) {
	var out domain.Tool
	err := r.v.do(func(t *tables) error {
		tool, ok := t.tools[id]
		if !ok {
			return notFound("tool", id)
		}
		out = tool
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockByID is GetByID: the transaction already holds the store lock.
func (r *toolRepository) LockByID(ctx context.Context, id int32) (*domain.Tool, error) {
	return r.GetByID(ctx, id)
}

func (r *toolRepository) update(id int32, fn func(tool *domain.Tool)) error {
	return r.v.do(func(t *tables) error {
		tool, ok := t.tools[id]
		if !ok {
			return notFound("tool", id)
		}
		fn(&tool)
		t.tools[id] = tool
		return nil
	})
}

func (r *toolRepository) UpdateStatus(_ context.Context, id int32, status domain.ToolStatus) error {
	return r.update(id, func(tool *domain.Tool) { tool.Status = status })
}

func (r *toolRepository) RecordMaintenance(_ context.Context, id int32, performedOn time.Time) error {
	d := domain.DateOnly(performedOn)
	return r.update(id, func(tool *domain.Tool) { tool.LastMaintenanceDate = &d })
}

func (r *toolRepository) List(_ context.Context, includeDeleted bool) ([]domain.Tool, error) {
	out := []domain.Tool{}
	err := r.v.do(func(t *tables) error {
		for _, tool := range t.tools {
			if includeDeleted || tool.DeletedOn == nil {
				out = append(out, tool)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Tool) int { return int(a.ID - b.ID) })
	return out, err
}

func (r *toolRepository) SoftDelete(_ context.Context, id int32, deletedOn time.Time) error {
	return r.v.do(func(t *tables) error {
		tool, ok := t.tools[id]
		if !ok || tool.DeletedOn != nil {
			return notFound("tool", id)
		}
		tool.DeletedOn = &deletedOn
		tool.Status = domain.ToolStatusUnavailable
		t.tools[id] = tool
		return nil
	})
}

type memberRepository struct{ v *view }

func (r *memberRepository) Create(_ context.Context, m *domain.Member) error {
	return r.v.do(func(t *tables) error {
		for _, existing := range t.members {
			if existing.Email == m.Email {
				return fmt.Errorf("%w: member email %s already registered", domain.ErrConflict, m.Email)
			}
		}
		m.ID = t.id("members")
		m.CreatedOn = time.Now()
		m.MembershipExpiresOn = domain.DateOnly(m.MembershipExpiresOn)
		t.members[m.ID] = *m
		return nil
	})
}

func (r *memberRepository) GetByID(_ context.Context, id int32) (*domain.Member, error) {
	var out domain.Member
	err := r.v.do(func(t *tables) error {
		m, ok := t.members[id]
		if !ok {
			return notFound("member", id)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *memberRepository) AdjustDebt(_ context.Context, id int32, delta decimal.Decimal) error {
	return r.v.do(func(t *tables) error {
		m, ok := t.members[id]
		if !ok {
			return notFound("member", id)
		}
		m.Debt = m.Debt.Add(delta)
		t.members[id] = m
		return nil
	})
}

func (r *memberRepository) UpdateExpiry(_ context.Context, id int32, expiresOn time.Time) error {
	return r.v.do(func(t *tables) error {
		m, ok := t.members[id]
		if !ok {
			return notFound("member", id)
		}
		m.MembershipExpiresOn = domain.DateOnly(expiresOn)
		t.members[id] = m
		return nil
	})
}

type rentalRepository struct{ v *view }

// checkOverlap mirrors the exclusion constraint of the postgres schema.
func checkOverlap(t *tables, rt *domain.Rental) error {
	if rt.Status.Terminal() {
		return nil
	}
	for _, other := range t.rentals {
		if other.ID == rt.ID || other.ToolID != rt.ToolID || other.Status.Terminal() {
			continue
		}
		if rt.StartDate.Before(other.EndDate) && other.StartDate.Before(rt.EndDate) {
			return fmt.Errorf("%w: overlapping rental %d for tool %d", domain.ErrConflict, other.ID, rt.ToolID)
		}
	}
	return nil
}

func (r *rentalRepository) Create(_ context.Context, rt *domain.Rental) error {
	return r.v.do(func(t *tables) error {
		if _, ok := t.tools[rt.ToolID]; !ok {
			return notFound("tool", rt.ToolID)
		}
		if _, ok := t.members[rt.MemberID]; !ok {
			return notFound("member", rt.MemberID)
		}
		rt.StartDate, rt.EndDate = domain.DateOnly(rt.StartDate), domain.DateOnly(rt.EndDate)
		if err := checkOverlap(t, rt); err != nil {
			return err
		}
		rt.ID = t.id("rentals")
		rt.CreatedOn = time.Now()
		rt.UpdatedOn = rt.CreatedOn
		t.rentals[rt.ID] = *rt
		return nil
	})
}

func (r *rentalRepository) GetByID(_ context.Context, id int32) (*domain.Rental, error) {
	var out domain.Rental
	err := r.v.do(func(t *tables) error {
		rt, ok := t.rentals[id]
		if !ok {
			return notFound("rental", id)
		}
		out = rt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockByID is GetByID: the transaction already holds the store lock.
func (r *rentalRepository) LockByID(ctx context.Context, id int32) (*domain.Rental, error) {
	return r.GetByID(ctx, id)
}

func (r *rentalRepository) Update(_ context.Context, rt *domain.Rental, from domain.RentalStatus) error {
	return r.v.do(func(t *tables) error {
		stored, ok := t.rentals[rt.ID]
		if !ok {
			return notFound("rental", rt.ID)
		}
		if stored.Status != from {
			return fmt.Errorf("%w: rental %d is no longer %s", domain.ErrInvalidState, rt.ID, from)
		}
		stored.Status = rt.Status
		stored.ActualReturnDate = rt.ActualReturnDate
		stored.ReturnComment = rt.ReturnComment
		stored.UpdatedOn = time.Now()
		if err := checkOverlap(t, &stored); err != nil {
			return err
		}
		t.rentals[rt.ID] = stored
		rt.UpdatedOn = stored.UpdatedOn
		return nil
	})
}

func (r *rentalRepository) Delete(_ context.Context, id int32) error {
	return r.v.do(func(t *tables) error {
		if _, ok := t.rentals[id]; !ok {
			return notFound("rental", id)
		}
		for _, tx := range t.ledger {
			if tx.RentalID != nil && *tx.RentalID == id {
				return fmt.Errorf("%w: rental %d still referenced by transaction %d", domain.ErrConflict, id, tx.ID)
			}
		}
		delete(t.rentals, id)
		return nil
	})
}

func (r *rentalRepository) filter(keep func(rt domain.Rental) bool) ([]domain.Rental, error) {
	out := []domain.Rental{}
	err := r.v.do(func(t *tables) error {
		for _, rt := range t.rentals {
			if keep(rt) {
				out = append(out, rt)
			}
		}
		return nil
	})
	return out, err
}

func (r *rentalRepository) ListNonTerminalByTool(_ context.Context, toolID int32) ([]domain.Rental, error) {
	out, err := r.filter(func(rt domain.Rental) bool {
		return rt.ToolID == toolID && !rt.Status.Terminal()
	})
	slices.SortFunc(out, func(a, b domain.Rental) int { return a.StartDate.Compare(b.StartDate) })
	return out, err
}

func (r *rentalRepository) ListActiveEndingBefore(_ context.Context, date time.Time) ([]domain.Rental, error) {
	day := domain.DateOnly(date)
	out, err := r.filter(func(rt domain.Rental) bool {
		return rt.Status == domain.RentalStatusActive && rt.EndDate.Before(day)
	})
	slices.SortFunc(out, func(a, b domain.Rental) int { return a.EndDate.Compare(b.EndDate) })
	return out, err
}

func (r *rentalRepository) List(_ context.Context, f domain.RentalFilter) ([]domain.Rental, int32, error) {
	f.Normalize()
	out, err := r.filter(func(rt domain.Rental) bool {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, rt.Status) {
			return false
		}
		if f.MemberID > 0 && rt.MemberID != f.MemberID {
			return false
		}
		if f.ToolID > 0 && rt.ToolID != f.ToolID {
			return false
		}
		if f.From != nil && !rt.EndDate.After(domain.DateOnly(*f.From)) {
			return false
		}
		if f.To != nil && !rt.StartDate.Before(domain.DateOnly(*f.To)) {
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}

	slices.SortFunc(out, func(a, b domain.Rental) int {
		if c := b.StartDate.Compare(a.StartDate); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	total := int32(len(out))
	return paginate(out, f.Page, f.PageSize), total, nil
}

func paginate[T any](items []T, page, pageSize int32) []T {
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return []T{}
	}
	end := min(start+int(pageSize), len(items))
	return items[start:end]
}

type ledgerRepository struct{ v *view }

func (r *ledgerRepository) Create(_ context.Context, tx *domain.LedgerTransaction) error {
	return r.v.do(func(t *tables) error {
		if _, ok := t.members[tx.MemberID]; !ok {
			return notFound("member", tx.MemberID)
		}
		if tx.RentalID != nil {
			if _, ok := t.rentals[*tx.RentalID]; !ok {
				return notFound("rental", *tx.RentalID)
			}
			if tx.Type == domain.TransactionTypeRentalCharge {
				for _, other := range t.ledger {
					if other.Type == domain.TransactionTypeRentalCharge && other.RentalID != nil && *other.RentalID == *tx.RentalID {
						return fmt.Errorf("%w: rental %d already charged", domain.ErrConflict, *tx.RentalID)
					}
				}
			}
		}
		tx.ID = t.id("ledger")
		tx.CreatedOn = time.Now()
		tx.UpdatedOn = tx.CreatedOn
		t.ledger[tx.ID] = *tx
		return nil
	})
}

func (r *ledgerRepository) GetByID(_ context.Context, id int32) (*domain.LedgerTransaction, error) {
	var out domain.LedgerTransaction
	err := r.v.do(func(t *tables) error {
		tx, ok := t.ledger[id]
		if !ok {
			return notFound("transaction", id)
		}
		out = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ledgerRepository) GetChargeByRentalID(_ context.Context, rentalID int32) (*domain.LedgerTransaction, error) {
	var out *domain.LedgerTransaction
	err := r.v.do(func(t *tables) error {
		for _, tx := range t.ledger {
			if tx.Type == domain.TransactionTypeRentalCharge && tx.RentalID != nil && *tx.RentalID == rentalID {
				out = &tx
				return nil
			}
		}
		return notFound("rental charge for rental", rentalID)
	})
	return out, err
}

func (r *ledgerRepository) Update(_ context.Context, tx *domain.LedgerTransaction) error {
	return r.v.do(func(t *tables) error {
		stored, ok := t.ledger[tx.ID]
		if !ok {
			return notFound("transaction", tx.ID)
		}
		stored.Status = tx.Status
		stored.ToolReturned = tx.ToolReturned
		stored.Description = tx.Description
		stored.UpdatedOn = time.Now()
		t.ledger[tx.ID] = stored
		tx.UpdatedOn = stored.UpdatedOn
		return nil
	})
}

func (r *ledgerRepository) Delete(_ context.Context, id int32) error {
	return r.v.do(func(t *tables) error {
		if _, ok := t.ledger[id]; !ok {
			return notFound("transaction", id)
		}
		delete(t.ledger, id)
		return nil
	})
}

func (r *ledgerRepository) ListByMember(_ context.Context, memberID int32, page, pageSize int32) ([]domain.LedgerTransaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	out := []domain.LedgerTransaction{}
	err := r.v.do(func(t *tables) error {
		for _, tx := range t.ledger {
			if tx.MemberID == memberID {
				out = append(out, tx)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	slices.SortFunc(out, func(a, b domain.LedgerTransaction) int { return int(b.ID - a.ID) })
	return paginate(out, page, pageSize), int32(len(out)), nil
}

type historyRepository struct{ v *view }

func (r *historyRepository) Create(_ context.Context, h *domain.RentalHistory) error {
	return r.v.do(func(t *tables) error {
		if _, ok := t.rentals[h.RentalID]; !ok {
			return notFound("rental", h.RentalID)
		}
		h.ID = t.id("history")
		h.CreatedOn = time.Now()
		t.history[h.ID] = *h
		return nil
	})
}

func (r *historyRepository) ListByRental(_ context.Context, rentalID int32) ([]domain.RentalHistory, error) {
	out := []domain.RentalHistory{}
	err := r.v.do(func(t *tables) error {
		for _, h := range t.history {
			if h.RentalID == rentalID {
				out = append(out, h)
			}
		}
		return nil
	})
	// ids grow with creation time
	slices.SortFunc(out, func(a, b domain.RentalHistory) int { return int(b.ID - a.ID) })
	return out, err
}

func (r *historyRepository) DeleteByRental(_ context.Context, rentalID int32) error {
	return r.v.do(func(t *tables) error {
		for id, h := range t.history {
			if h.RentalID == rentalID {
				delete(t.history, id)
			}
		}
		return nil
	})
}
