package domain

type NotificationType string

const (
	NotificationRentalRequested NotificationType = "RENTAL_REQUESTED"
	NotificationRentalCreated   NotificationType = "RENTAL_CREATED"
	NotificationRentalApproved  NotificationType = "RENTAL_APPROVED"
	NotificationRentalRejected  NotificationType = "RENTAL_REJECTED"
	NotificationRentalReturned  NotificationType = "RENTAL_RETURNED"
	NotificationRentalDeleted   NotificationType = "RENTAL_DELETED"
	NotificationRentalOverdue   NotificationType = "RENTAL_OVERDUE"
	NotificationMaintenanceDue  NotificationType = "MAINTENANCE_DUE"
)

// Notification is handed to the notifier after a transition commits.
type Notification struct {
	Type       NotificationType  `json:"type"`
	MemberID   int32             `json:"member_id"`
	Email      string            `json:"email"`
	Name       string            `json:"name"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes"`
}
