package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chacara-backend/internal/config"
	"chacara-backend/internal/jobs"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/scheduler"
	"chacara-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-payments', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Chácaras cronjob runner...", "log_level", cfg.Log.Level, "server_url", cfg.Cronjob.ServerURL)

	// Jobs run on the server, which owns the state; this process only triggers them.
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, 5*time.Minute)
	remote := jobs.NewRemoteLedger(cfg.Cronjob.ServerURL, tokenManager, 30*time.Second)
	jobRunner := jobs.NewJobRunner(&jobs.Services{Ledger: remote}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	if cfg.Ledger.OverdueSweepRunner != config.SweepRunnerCronjob {
		logger.Error("Overdue sweep is scheduled by the server; set ledger.overdue_sweep_runner to cronjob to schedule it here",
			"overdue_sweep_runner", cfg.Ledger.OverdueSweepRunner)
		os.Exit(1)
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)
	if !cronScheduler.IsRunning() {
		logger.Warn("No jobs scheduled; enable ledger.overdue_sweep_enabled to run the overdue sweep")
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "next_run", cronScheduler.NextRun())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case "mark-overdue-payments":
		return jobRunner.RunMarkOverduePayments()
	case "all-nightly":
		return jobRunner.RunAllNightlyJobs()
	default:
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-payments\n")
		fmt.Printf("  - all-nightly\n")
		return fmt.Errorf("unknown job name: %s", jobName)
	}
}
