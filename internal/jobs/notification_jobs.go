package jobs

import (
	"context"

	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/notification"
)

// SendMaintenanceDigest mails the administrator the tools the maintenance
// gate currently blocks. Nothing is sent when no tool is due.
func (jr *JobRunner) SendMaintenanceDigest() {
	jr.runWithRecovery("SendMaintenanceDigest", jr.sendMaintenanceDigest)
}

func (jr *JobRunner) sendMaintenanceDigest(ctx context.Context) (int, error) {
	adminEmail := jr.config.Notifications.AdminEmail
	if adminEmail == "" {
		logger.Warn("No admin email configured, skipping maintenance digest")
		return 0, nil
	}
	due, err := jr.tools.MaintenanceDue(ctx)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}
	if err := jr.notifier.Notify(ctx, notification.MaintenanceDigest(adminEmail, due)); err != nil {
		return 0, err
	}
	return 1, nil
}
