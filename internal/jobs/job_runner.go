package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"toolshed-backend/internal/config"
	"toolshed-backend/internal/logger"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository"
	"toolshed-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	tools    service.ToolService
	notifier notification.Notifier
	config   *config.Config
	now      func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, tools service.ToolService, notifier notification.Notifier, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		tools:    tools,
		notifier: notifier,
		config:   cfg,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) (int, error)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	count, err := jobFunc(context.Background())
	if err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName, "notified", count)
}

func (jr *JobRunner) jobs() map[string]func() {
	return map[string]func(){
		"send_overdue_reminders":  jr.SendOverdueReminders,
		"send_maintenance_digest": jr.SendMaintenanceDigest,
	}
}

// JobNames lists the jobs RunJob accepts.
func (jr *JobRunner) JobNames() []string {
	names := make([]string, 0, len(jr.jobs()))
	for name := range jr.jobs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs a single job by name, or every job for "all".
func (jr *JobRunner) RunJob(name string) error {
	if name == "all" {
		for _, n := range jr.JobNames() {
			jr.jobs()[n]()
		}
		return nil
	}
	job, ok := jr.jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q, expected one of %v", name, jr.JobNames())
	}
	job()
	return nil
}
