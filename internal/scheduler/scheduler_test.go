package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolshed-backend/internal/config"
	"toolshed-backend/internal/jobs"
	"toolshed-backend/internal/notification"
	"toolshed-backend/internal/repository/memory"
	"toolshed-backend/internal/service"
	"toolshed-backend/internal/utils"
)

func newRunner(cfg *config.Config) *jobs.JobRunner {
	store := memory.NewStore()
	return jobs.NewJobRunner(store, service.NewToolService(store, utils.DefaultMaintenancePolicy()), notification.LogNotifier{}, cfg)
}

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		SendOverdueReminders:  "0 0 8 * * *",
		SendMaintenanceDigest: "0 0 7 * * MON",
	}}

	s, err := NewScheduler(newRunner(cfg))
	require.NoError(t, err)
	require.Len(t, s.Entries(), 2)

	s.Start()
	defer s.Stop()
	for _, e := range s.Entries() {
		assert.True(t, e.Next.After(time.Now()), "next run %s", e.Next)
		assert.Equal(t, time.UTC, e.Next.Location())
	}
}

func TestNewScheduler_InvalidCronExpression(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		SendOverdueReminders:  "every morning",
		SendMaintenanceDigest: "0 0 7 * * MON",
	}}

	_, err := NewScheduler(newRunner(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SendOverdueReminders")
}
