package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/domain"
)

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type stubNotifier struct {
	calls int
	err   error
}

func (s *stubNotifier) Notify(context.Context, domain.Notification) error {
	s.calls++
	return s.err
}

func sample() domain.Notification {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	rental := &domain.Rental{ID: 11, ToolID: 2, StartDate: start, EndDate: start.AddDate(0, 0, 7), Status: domain.RentalStatusPending, TotalPrice: decimal.NewFromInt(15)}
	tool := &domain.Tool{ID: 2, Name: "Table saw"}
	member := &domain.Member{ID: 3, Name: "Ada", Email: "ada@example.com"}
	return RentalNotification(domain.NotificationRentalRequested, rental, tool, member, "")
}

func TestRentalNotification(t *testing.T) {
	n := sample()
	assert.Equal(t, int32(3), n.MemberID)
	assert.Equal(t, "ada@example.com", n.Email)
	assert.Contains(t, n.Message, "Table saw")
	assert.Contains(t, n.Message, "2024-03-01 to 2024-03-08")
	assert.Contains(t, n.Message, "15.00")
	assert.Equal(t, "11", n.Attributes["rental_id"])
}

func TestEmailNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sender := new(MockMailSender)
		notifier := &EmailNotifier{client: sender, fromEmail: "noreply@toolshed.test", fromName: "Toolshed"}
		sender.On("SendWithContext", ctx, mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Subject == "Rental request received" && m.From.Address == "noreply@toolshed.test"
		})).Return(&rest.Response{StatusCode: 202}, nil)

		assert.NoError(t, notifier.Notify(ctx, sample()))
		sender.AssertExpectations(t)
	})

	t.Run("Error status", func(t *testing.T) {
		sender := new(MockMailSender)
		notifier := &EmailNotifier{client: sender}
		sender.On("SendWithContext", ctx, mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil)

		err := notifier.Notify(ctx, sample())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("No address", func(t *testing.T) {
		sender := new(MockMailSender)
		notifier := &EmailNotifier{client: sender}
		n := sample()
		n.Email = ""
		assert.NoError(t, notifier.Notify(ctx, n))
		sender.AssertNotCalled(t, "SendWithContext", mock.Anything, mock.Anything)
	})
}

func TestPushNotifier(t *testing.T) {
	ctx := context.Background()
	sender := new(MockMessageSender)
	notifier := &PushNotifier{client: sender}

	sender.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
		return m.Topic == "member-3" && m.Data["type"] == string(domain.NotificationRentalRequested) && m.Data["rental_id"] == "11"
	})).Return("projects/x/messages/1", nil)

	assert.NoError(t, notifier.Notify(ctx, sample()))
	sender.AssertExpectations(t)
}

func TestMulti(t *testing.T) {
	failing := &stubNotifier{err: errors.New("smtp down")}
	ok := &stubNotifier{}

	err := Multi{failing, ok}.Notify(context.Background(), sample())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, Multi{ok, LogNotifier{}}.Notify(context.Background(), sample()))
}

func TestMaintenanceDigest(t *testing.T) {
	last := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	n := MaintenanceDigest("admin@toolshed.test", []domain.Tool{
		{ID: 1, Name: "Chainsaw", LastMaintenanceDate: &last},
		{ID: 2, Name: "Lathe"},
	})
	assert.Equal(t, "2 tools need maintenance", n.Title)
	assert.Contains(t, n.Message, "Chainsaw (#1), last serviced 2024-01-05")
	assert.Contains(t, n.Message, "Lathe (#2), last serviced never")
}
