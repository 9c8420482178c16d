package notification

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// EmailNotifier sends notifications through SendGrid.
type EmailNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewEmailNotifier(apiKey, fromEmail, fromName string) *EmailNotifier {
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.Email == "" {
		return nil
	}

	from := mail.NewEmail(e.fromName, e.fromEmail)
	to := mail.NewEmail(n.Name, n.Email)
	htmlBody := fmt.Sprintf("<p>%s</p>", html.EscapeString(n.Message))
	message := mail.NewSingleEmail(from, n.Title, to, n.Message, htmlBody)

	logger.ExternalServiceCall("sendgrid", "send", "type", n.Type, "to", n.Email)
	resp, err := e.client.SendWithContext(ctx, message)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "type", n.Type)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
