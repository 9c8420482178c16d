// Package bootstrap opens the process dependencies shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"toolshed-backend/internal/config"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/migration"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository"
	"toolshed-backend/internal/repository/memory"
	"toolshed-backend/internal/repository/postgres"
)

// OpenStore returns the store selected by cfg.Database.Driver. Postgres
// schemas are migrated first when RunMigrations is set.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		logger.Info("connecting to database", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, err
		}
		if cfg.Database.RunMigrations {
			if err := migration.Run(db); err != nil {
				db.Close()
				return nil, err
			}
		}
		logger.Info("database connection established")
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// NewNotifier always logs and adds email and push delivery when configured.
func NewNotifier(ctx context.Context, cfg *config.Config) (notification.Notifier, error) {
	notifiers := notification.Multi{notification.LogNotifier{}}

	n := cfg.Notifications
	if n.SendGridAPIKey != "" {
		notifiers = append(notifiers, notification.NewEmailNotifier(n.SendGridAPIKey, n.FromEmail, n.FromName))
		logger.Info("email notifications enabled", "from", n.FromEmail)
	}
	if n.FirebaseCredentialsFile != "" {
		push, err := notification.NewPushNotifier(ctx, n.FirebaseCredentialsFile)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, push)
		logger.Info("push notifications enabled")
	}
	return notifiers, nil
}
