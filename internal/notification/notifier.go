package notification

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

// Notifier delivers a notification about a committed change.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// LogNotifier only writes notifications to the log. It is the fallback when
// no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n domain.Notification) error {
	logger.InfoContext(ctx, "notification", "type", n.Type, "member_id", n.MemberID, "title", n.Title)
	return nil
}

// Multi fans a notification out to every channel. All channels are tried;
// their failures are combined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var result *multierror.Error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
