package jobs

import (
	"context"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/notification"
)

// SendOverdueReminders notifies members whose active rentals are past their end date
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", jr.sendOverdueReminders)
}

func (jr *JobRunner) sendOverdueReminders(ctx context.Context) (int, error) {
	today := domain.DateOnly(jr.now())
	rentals, err := jr.store.Rentals().ListActiveEndingBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range rentals {
		rental := &rentals[i]
		tool, err := jr.store.Tools().GetByID(ctx, rental.ToolID)
		if err != nil {
			logger.Error("Failed to load tool for overdue rental", "rental_id", rental.ID, "error", err)
			continue
		}
		member, err := jr.store.Members().GetByID(ctx, rental.MemberID)
		if err != nil {
			logger.Error("Failed to load member for overdue rental", "rental_id", rental.ID, "error", err)
			continue
		}

		n := notification.RentalNotification(domain.NotificationRentalOverdue, rental, tool, member, "")
		if err := jr.notifier.Notify(ctx, n); err != nil {
			logger.Warn("Failed to send overdue reminder", "rental_id", rental.ID, "member_id", member.ID, "error", err)
			continue
		}
		logger.Debug("Sent overdue reminder", "rental_id", rental.ID, "member_id", member.ID, "end_date", rental.EndDate.Format(domain.DateLayout))
		sent++
	}
	return sent, nil
}
