package postgres

import (
	"context"
	"time"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type toolRepository struct {
	db DBTX
}

const toolColumns = `id, name, COALESCE(description, ''), status, weekly_rate, maintenance_importance,
	maintenance_interval_months, last_maintenance_date, created_on, deleted_on`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTool(row rowScanner) (*domain.Tool, error) {
	t := &domain.Tool{}
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Status, &t.WeeklyRate, &t.MaintenanceImportance,
		&t.MaintenanceIntervalMonths, &t.LastMaintenanceDate, &t.CreatedOn, &t.DeletedOn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *toolRepository) Create(ctx context.Context, t *domain.Tool) error {
	logger.EnterMethod("toolRepository.Create", "name", t.Name)

	query := `INSERT INTO tools (name, description, status, weekly_rate, maintenance_importance,
	          maintenance_interval_months, last_maintenance_date, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_on`
	err := r.db.QueryRowContext(ctx, query, t.Name, nullString(t.Description), t.Status, t.WeeklyRate,
		t.MaintenanceImportance, t.MaintenanceIntervalMonths, t.LastMaintenanceDate, time.Now()).Scan(&t.ID, &t.CreatedOn)
	if err != nil {
		logger.ExitMethodWithError("toolRepository.Create", err)
		return translateError(err)
	}

	logger.ExitMethod("toolRepository.Create", "toolID", t.ID)
	return nil
}

func (r *toolRepository) GetByID(ctx context.Context, id int32) (*domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`
	t, err := scanTool(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("tool", id, err)
	}
	return t, nil
}

func (r *toolRepository) LockByID(ctx context.Context, id int32) (*domain.Tool, error) {
	logger.DatabaseCall("LockByID", "SELECT tools FOR UPDATE", "toolID", id)
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1 FOR UPDATE`
	t, err := scanTool(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("tool", id, err)
	}
	return t, nil
}

func (r *toolRepository) UpdateStatus(ctx context.Context, id int32, status domain.ToolStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tools SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "tool", id)
}

func (r *toolRepository) RecordMaintenance(ctx context.Context, id int32, performedOn time.Time) error {
	logger.EnterMethod("toolRepository.RecordMaintenance", "toolID", id)

	res, err := r.db.ExecContext(ctx, `UPDATE tools SET last_maintenance_date = $1 WHERE id = $2`, domain.DateOnly(performedOn), id)
	if err == nil {
		err = checkAffected(res, "tool", id)
	}
	if err != nil {
		logger.ExitMethodWithError("toolRepository.RecordMaintenance", err, "toolID", id)
		return translateError(err)
	}

	logger.ExitMethod("toolRepository.RecordMaintenance", "toolID", id)
	return nil
}

func (r *toolRepository) List(ctx context.Context, includeDeleted bool) ([]domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools`
	if !includeDeleted {
		query += ` WHERE deleted_on IS NULL`
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	tools := []domain.Tool{}
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, *t)
	}
	return tools, rows.Err()
}

func (r *toolRepository) SoftDelete(ctx context.Context, id int32, deletedOn time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tools SET deleted_on = $1, status = $2 WHERE id = $3 AND deleted_on IS NULL`,
		deletedOn, domain.ToolStatusUnavailable, id)
	if err != nil {
		return translateError(err)
	}
	return checkAffected(res, "tool", id)
}
