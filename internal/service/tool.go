package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/repository"
	"toolshed-backend/internal/utils"
)

type toolService struct {
	store  repository.Store
	policy utils.MaintenancePolicy
	now    func() time.Time
}

func NewToolService(store repository.Store, policy utils.MaintenancePolicy) ToolService {
	return &toolService{store: store, policy: policy, now: time.Now}
}

func (s *toolService) AddTool(ctx context.Context, actor domain.Actor, tool *domain.Tool) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can add tools", domain.ErrForbidden)
	}
	tool.Name = strings.TrimSpace(tool.Name)
	if tool.Name == "" {
		return fmt.Errorf("%w: tool name is required", domain.ErrValidation)
	}
	if tool.WeeklyRate.IsNegative() {
		return fmt.Errorf("%w: weekly rate must not be negative", domain.ErrValidation)
	}
	if tool.Status == "" {
		tool.Status = domain.ToolStatusAvailable
	}
	if tool.MaintenanceImportance == "" {
		tool.MaintenanceImportance = domain.MaintenanceImportanceLow
	}
	if !tool.Status.Valid() || tool.Status == domain.ToolStatusRented {
		return fmt.Errorf("%w: tool cannot start as %q", domain.ErrValidation, tool.Status)
	}
	if !tool.MaintenanceImportance.Valid() {
		return fmt.Errorf("%w: unknown maintenance importance %q", domain.ErrValidation, tool.MaintenanceImportance)
	}
	if tool.MaintenanceIntervalMonths != nil && *tool.MaintenanceIntervalMonths < 1 {
		return fmt.Errorf("%w: maintenance interval must be at least one month", domain.ErrValidation)
	}
	tool.WeeklyRate = tool.WeeklyRate.Round(2)
	return s.store.Tools().Create(ctx, tool)
}

func (s *toolService) GetTool(ctx context.Context, id int32) (*domain.Tool, error) {
	tool, err := s.store.Tools().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tool.DeletedOn != nil {
		return nil, fmt.Errorf("%w: tool %d", domain.ErrNotFound, id)
	}
	return tool, nil
}

func (s *toolService) ListTools(ctx context.Context) ([]domain.Tool, error) {
	return s.store.Tools().List(ctx, false)
}

// SetToolStatus takes a tool in or out of service. Rented is owned by the
// rental lifecycle and cannot be set or overridden here.
func (s *toolService) SetToolStatus(ctx context.Context, actor domain.Actor, id int32, status domain.ToolStatus) (*domain.Tool, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can change tool status", domain.ErrForbidden)
	}
	if !status.Valid() || status == domain.ToolStatusRented {
		return nil, fmt.Errorf("%w: cannot set tool status to %q", domain.ErrValidation, status)
	}

	var tool *domain.Tool
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		tool, err = tx.Tools().LockByID(ctx, id)
		if err != nil {
			return err
		}
		if tool.DeletedOn != nil {
			return fmt.Errorf("%w: tool %d", domain.ErrNotFound, id)
		}
		if tool.Status == domain.ToolStatusRented {
			return fmt.Errorf("%w: %s is out on rental", domain.ErrConflict, tool.Name)
		}
		tool.Status = status
		return tx.Tools().UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}
	return tool, nil
}

// RecordMaintenance logs a service date and optionally bills the repair to a
// member. A tool parked in maintenance becomes available again.
func (s *toolService) RecordMaintenance(ctx context.Context, actor domain.Actor, in MaintenanceInput) (*domain.Tool, error) {
	logger.EnterMethod("toolService.RecordMaintenance", "toolID", in.ToolID)
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can log maintenance", domain.ErrForbidden)
	}
	performed := in.PerformedOn
	if performed.IsZero() {
		performed = s.now()
	}
	performed = domain.DateOnly(performed)
	if performed.After(domain.DateOnly(s.now())) {
		return nil, fmt.Errorf("%w: maintenance date %s is in the future", domain.ErrValidation, performed.Format(domain.DateLayout))
	}
	if in.RepairCost != nil && (!in.RepairCost.IsPositive() || in.ChargeMemberID == 0) {
		return nil, fmt.Errorf("%w: a repair cost needs a positive amount and a member to charge", domain.ErrValidation)
	}

	var tool *domain.Tool
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		tool, err = tx.Tools().LockByID(ctx, in.ToolID)
		if err != nil {
			return err
		}
		if err := tx.Tools().RecordMaintenance(ctx, tool.ID, performed); err != nil {
			return err
		}
		tool.LastMaintenanceDate = &performed

		if tool.Status == domain.ToolStatusMaintenance {
			if err := tx.Tools().UpdateStatus(ctx, tool.ID, domain.ToolStatusAvailable); err != nil {
				return err
			}
			tool.Status = domain.ToolStatusAvailable
		}

		if in.RepairCost == nil {
			return nil
		}
		desc := fmt.Sprintf("Repair of %s", tool.Name)
		if in.Note != "" {
			desc += ": " + in.Note
		}
		return bookTransaction(ctx, tx, &domain.LedgerTransaction{
			MemberID:    in.ChargeMemberID,
			Amount:      in.RepairCost.Round(2),
			Type:        domain.TransactionTypeRepairCost,
			Status:      domain.TransactionStatusPending,
			Description: desc,
		})
	})
	if err != nil {
		logger.ExitMethodWithError("toolService.RecordMaintenance", err, "toolID", in.ToolID)
		return nil, err
	}
	logger.ExitMethod("toolService.RecordMaintenance", "toolID", in.ToolID)
	return tool, nil
}

// DeleteTool soft deletes a tool with no pending or active rental.
func (s *toolService) DeleteTool(ctx context.Context, actor domain.Actor, id int32) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only administrators can delete tools", domain.ErrForbidden)
	}
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		tool, err := tx.Tools().LockByID(ctx, id)
		if err != nil {
			return err
		}
		open, err := tx.Rentals().ListNonTerminalByTool(ctx, id)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return fmt.Errorf("%w: %s still has %d open rentals", domain.ErrConflict, tool.Name, len(open))
		}
		return tx.Tools().SoftDelete(ctx, id, s.now())
	})
}

func (s *toolService) MaintenanceDue(ctx context.Context) ([]domain.Tool, error) {
	tools, err := s.store.Tools().List(ctx, false)
	if err != nil {
		return nil, err
	}
	today := domain.DateOnly(s.now())
	due := []domain.Tool{}
	for i := range tools {
		if s.policy.IsToolBlocked(&tools[i], today) {
			due = append(due, tools[i])
		}
	}
	return due, nil
}
