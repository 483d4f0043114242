package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// InitializeSchedules starts the idle session sweep and, with job history enabled,
// the retention job. The caller stops the returned scheduler.
func (serverHandler *ServerHandler) InitializeSchedules() *cron.Cron {
	serverConfig := serverHandler.ServerConfig

	sweepInterval := serverConfig.SessionSweepInterval
	if sweepInterval <= 0 {
		sweepInterval = 5
	}
	idle := time.Duration(serverConfig.SessionIdleMinutes) * time.Minute
	if idle <= 0 {
		idle = 30 * time.Minute
	}

	c := cron.New()
	//ensure we don't kick off another if old one is still running
	chain := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger))

	sweepJob := chain.Then(cron.FuncJob(func() { serverHandler.sweepSessionsJob(idle) }))
	if _, err := c.AddJob(fmt.Sprintf("@every %dm", sweepInterval), sweepJob); err != nil {
		Logger.Error("Unable to schedule session sweep", "error", err)
	}
	Logger.Info("Adding session sweep scheduler", "interval_minutes", sweepInterval, "idle", idle)

	if serverHandler.DB != nil {
		retentionDays := serverConfig.JobRetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		retentionJob := chain.Then(cron.FuncJob(func() { serverHandler.jobRetentionJob(time.Duration(retentionDays) * 24 * time.Hour) }))
		if _, err := c.AddJob("@every 1h", retentionJob); err != nil {
			Logger.Error("Unable to schedule job retention", "error", err)
		}
		Logger.Info("Adding job retention scheduler", "retention_days", retentionDays)
	}

	c.Start()
	return c
}

func (serverHandler *ServerHandler) sweepSessionsJob(idle time.Duration) int {
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in session sweep", "panic", r)
		}
	}()
	return serverHandler.Sessions.Sweep(idle)
}

func (serverHandler *ServerHandler) jobRetentionJob(olderThan time.Duration) int {
	deleted, err := serverHandler.DB.DeleteOldJobs(olderThan)
	if err != nil {
		Logger.Error("Job retention failed", "error", err)
		return 0
	}
	if deleted > 0 {
		Logger.Info("Deleted old jobs", "count", deleted)
	}
	return deleted
}
