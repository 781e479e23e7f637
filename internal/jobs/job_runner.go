package jobs

import (
	"context"
	"time"

	"chacara-backend/internal/config"
	"chacara-backend/internal/logger"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Ledger is the part of the ledger the jobs drive. service.LedgerService
// implements it in the server; RemoteLedger implements it in cmd/cronjob.
type Ledger interface {
	MarkOverduePayments(ctx context.Context, today time.Time) (int, error)
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Ledger Ledger
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = &PanicError{Job: jobName, Value: r}
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err = jobFunc(); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// PanicError reports a job that panicked instead of returning.
type PanicError struct {
	Job   string
	Value any
}

func (e *PanicError) Error() string {
	return "job " + e.Job + " panicked"
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() error {
	return jr.RunMarkOverduePayments()
}
