package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "chacara-backend/internal/api/grpc"
	httpapi "chacara-backend/internal/api/http"
	"chacara-backend/internal/app"
	"chacara-backend/internal/config"
	"chacara-backend/internal/jobs"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Chácaras backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_port", cfg.GRPC.Port)
	logger.Info("Storage configuration", "type", cfg.Storage.Type, "seed", cfg.Storage.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Health reports NOT_SERVING until state is loaded
	healthServer := grpcapi.NewHealthServer()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	// gRPC health server
	var grpcServer interface{ GracefulStop() }
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		s := grpcapi.NewServer(a.TokenManager, healthServer)
		grpcServer = s
		go grpcapi.WatchReadiness(ctx, healthServer, a.Store.Loaded, time.Second)
		go func() {
			logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
			if err := s.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
			}
		}()
	}

	// In-process overdue sweep, unless cmd/cronjob schedules it
	jobRunner := jobs.NewJobRunner(&jobs.Services{Ledger: a.Ledger}, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	if cfg.Ledger.OverdueSweepRunner == config.SweepRunnerServer {
		cronScheduler.Start()
	} else {
		logger.Info("Overdue sweep is scheduled by cmd/cronjob", "overdue_sweep_runner", cfg.Ledger.OverdueSweepRunner)
	}

	// HTTP API
	handler := httpapi.NewHandler(a.Ledger, a.Registry, a.Auth, a.Reports, a.Store.Loaded)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, a.TokenManager),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	cronScheduler.Stop()
	logger.Info("Server stopped. Goodbye!")
}
