package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/utils"
)

func newToolService(f *fixture) *toolService {
	svc := NewToolService(f.store, utils.DefaultMaintenancePolicy()).(*toolService)
	svc.now = func() time.Time { return today }
	return svc
}

func TestToolService_AddTool(t *testing.T) {
	f := newFixture(t)
	svc := newToolService(f)

	tests := []struct {
		name    string
		actor   domain.Actor
		tool    domain.Tool
		wantErr error
	}{
		{"Member forbidden", f.memberActor, domain.Tool{Name: "Drill", WeeklyRate: dec("3")}, domain.ErrForbidden},
		{"Missing name", adminActor, domain.Tool{Name: "  ", WeeklyRate: dec("3")}, domain.ErrValidation},
		{"Negative rate", adminActor, domain.Tool{Name: "Drill", WeeklyRate: dec("-1")}, domain.ErrValidation},
		{"Cannot start rented", adminActor, domain.Tool{Name: "Drill", Status: domain.ToolStatusRented}, domain.ErrValidation},
		{"Unknown importance", adminActor, domain.Tool{Name: "Drill", MaintenanceImportance: "URGENT"}, domain.ErrValidation},
		{"Defaults applied", adminActor, domain.Tool{Name: " Drill ", WeeklyRate: dec("3.456")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := tt.tool
			err := svc.AddTool(f.ctx, tt.actor, &tool)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tool.ID)
			assert.Equal(t, "Drill", tool.Name)
			assert.Equal(t, domain.ToolStatusAvailable, tool.Status)
			assert.Equal(t, domain.MaintenanceImportanceLow, tool.MaintenanceImportance)
			assert.Equal(t, "3.46", tool.WeeklyRate.StringFixed(2))
		})
	}
}

func TestToolService_SetToolStatus(t *testing.T) {
	f := newFixture(t)
	svc := newToolService(f)

	_, err := svc.SetToolStatus(f.ctx, adminActor, f.tool.ID, domain.ToolStatusRented)
	assert.ErrorIs(t, err, domain.ErrValidation)

	tool, err := svc.SetToolStatus(f.ctx, adminActor, f.tool.ID, domain.ToolStatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, domain.ToolStatusMaintenance, tool.Status)

	_, err = f.create(adminActor, f.tool.ID, f.member.ID, week(0), week(1))
	assert.ErrorIs(t, err, domain.ErrBlocked)

	_, err = svc.SetToolStatus(f.ctx, adminActor, f.tool.ID, domain.ToolStatusAvailable)
	require.NoError(t, err)
	_, err = f.create(adminActor, f.tool.ID, f.member.ID, week(0), week(1))
	require.NoError(t, err)

	_, err = svc.SetToolStatus(f.ctx, adminActor, f.tool.ID, domain.ToolStatusUnavailable)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestToolService_RecordMaintenance(t *testing.T) {
	f := newFixture(t)
	svc := newToolService(f)
	interval := int32(1)
	last := time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC)
	chainsaw := &domain.Tool{
		Name: "Chainsaw", WeeklyRate: dec("25"), Status: domain.ToolStatusMaintenance,
		MaintenanceImportance: domain.MaintenanceImportanceHigh, MaintenanceIntervalMonths: &interval, LastMaintenanceDate: &last,
	}
	require.NoError(t, svc.AddTool(f.ctx, adminActor, chainsaw))

	due, err := svc.MaintenanceDue(f.ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, chainsaw.ID, due[0].ID)

	future := today.AddDate(0, 0, 1)
	_, err = svc.RecordMaintenance(f.ctx, adminActor, MaintenanceInput{ToolID: chainsaw.ID, PerformedOn: future})
	assert.ErrorIs(t, err, domain.ErrValidation)

	cost := dec("40.00")
	_, err = svc.RecordMaintenance(f.ctx, adminActor, MaintenanceInput{ToolID: chainsaw.ID, RepairCost: &cost})
	assert.ErrorIs(t, err, domain.ErrValidation, "repair cost without member")

	tool, err := svc.RecordMaintenance(f.ctx, adminActor, MaintenanceInput{
		ToolID: chainsaw.ID, RepairCost: &cost, ChargeMemberID: f.member.ID, Note: "chain snapped",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ToolStatusAvailable, tool.Status)
	require.NotNil(t, tool.LastMaintenanceDate)
	assert.Equal(t, domain.DateOnly(today), *tool.LastMaintenanceDate)

	assert.True(t, cost.Equal(f.debt(t, f.member.ID)))
	txs, _, err := f.store.Ledger().ListByMember(f.ctx, f.member.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TransactionTypeRepairCost, txs[0].Type)
	assert.Equal(t, "Repair of Chainsaw: chain snapped", txs[0].Description)

	due, err = svc.MaintenanceDue(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = f.create(adminActor, chainsaw.ID, f.member.ID, week(0), week(1))
	assert.NoError(t, err)
}

func TestToolService_DeleteTool(t *testing.T) {
	f := newFixture(t)
	svc := newToolService(f)

	rental, err := f.create(f.memberActor, f.tool.ID, f.member.ID, week(0), week(1))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteTool(f.ctx, f.memberActor, f.tool.ID), domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteTool(f.ctx, adminActor, f.tool.ID), domain.ErrConflict)

	_, err = f.svc.RejectRental(f.ctx, adminActor, rental.ID, "")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTool(f.ctx, adminActor, f.tool.ID))

	_, err = svc.GetTool(f.ctx, f.tool.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	tools, err := svc.ListTools(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, tools)

	_, err = f.create(adminActor, f.tool.ID, f.member.ID, week(0), week(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
