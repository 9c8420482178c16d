package notification

import (
	"fmt"
	"strconv"
	"strings"

	"toolshed-backend/internal/domain"
)

// RentalNotification builds the member facing message for a rental event.
func RentalNotification(kind domain.NotificationType, rental *domain.Rental, tool *domain.Tool, member *domain.Member, comment string) domain.Notification {
	var title, body string
	switch kind {
	case domain.NotificationRentalRequested:
		title = "Rental request received"
		body = fmt.Sprintf("Your request for %s (%s) is waiting for approval. %s has been added to your balance.", tool.Name, rental.Period(), rental.TotalPrice.StringFixed(2))
	case domain.NotificationRentalCreated:
		title = "Rental booked"
		body = fmt.Sprintf("%s is booked for you from %s.", tool.Name, rental.Period())
	case domain.NotificationRentalApproved:
		title = "Rental approved"
		body = fmt.Sprintf("Your rental of %s (%s) was approved.", tool.Name, rental.Period())
	case domain.NotificationRentalRejected:
		title = "Rental rejected"
		body = fmt.Sprintf("Your request for %s (%s) was rejected and the charge was reversed.", tool.Name, rental.Period())
	case domain.NotificationRentalReturned:
		title = "Tool returned"
		body = fmt.Sprintf("Thanks for returning %s.", tool.Name)
	case domain.NotificationRentalDeleted:
		title = "Rental cancelled"
		body = fmt.Sprintf("Your rental of %s (%s) was removed.", tool.Name, rental.Period())
	case domain.NotificationRentalOverdue:
		title = "Tool overdue"
		body = fmt.Sprintf("%s was due back on %s. Please return it.", tool.Name, rental.EndDate.Format(domain.DateLayout))
	default:
		title = "Rental update"
		body = fmt.Sprintf("Your rental of %s changed.", tool.Name)
	}
	if comment != "" {
		body += " Comment: " + comment
	}

	return domain.Notification{
		Type:     kind,
		MemberID: member.ID,
		Email:    member.Email,
		Name:     member.Name,
		Title:    title,
		Message:  body,
		Attributes: map[string]string{
			"rental_id": strconv.Itoa(int(rental.ID)),
			"tool_id":   strconv.Itoa(int(tool.ID)),
			"status":    string(rental.Status),
		},
	}
}

// MaintenanceDigest lists the tools that cannot be booked until serviced.
func MaintenanceDigest(adminEmail string, tools []domain.Tool) domain.Notification {
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		last := "never"
		if t.LastMaintenanceDate != nil {
			last = t.LastMaintenanceDate.Format(domain.DateLayout)
		}
		lines = append(lines, fmt.Sprintf("%s (#%d), last serviced %s", t.Name, t.ID, last))
	}
	return domain.Notification{
		Type:    domain.NotificationMaintenanceDue,
		Email:   adminEmail,
		Name:    "Toolshed admin",
		Title:   fmt.Sprintf("%d tools need maintenance", len(tools)),
		Message: strings.Join(lines, "\n"),
	}
}
