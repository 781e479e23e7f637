package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chacara-backend/internal/config"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/repository/postgres"
	"chacara-backend/internal/security"
	"chacara-backend/internal/service"
	"chacara-backend/internal/state"
	"chacara-backend/internal/storage"
)

// App holds the state store and every service built on it. Both binaries
// construct one at startup.
type App struct {
	Config       *config.Config
	Slots        storage.SlotStore
	Store        *state.Store
	TokenManager security.TokenManager

	Email    service.EmailService
	Ledger   service.LedgerService
	Registry service.RegistryService
	Auth     service.AuthService
	Reports  service.ReportService

	closers []func() error
}

// New opens the configured slot backend, loads state and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slots, closeSlots, err := OpenSlotStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Slots: slots, closers: []func() error{closeSlots}}

	seed := state.Snapshot{}
	if cfg.Storage.Seed {
		seed = state.DemoSeed()
	}
	a.Store = state.NewStore(slots)
	if err := a.Store.Load(ctx, seed); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	a.TokenManager = security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	a.Email = service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	a.Ledger = service.NewLedgerService(a.Store, a.Email, service.LedgerOptions{
		DefaultPaymentMethod: cfg.Ledger.DefaultPaymentMethod,
		OverdueGraceDays:     cfg.Ledger.OverdueGraceDays,
	})
	a.Registry = service.NewRegistryService(a.Store, nil)
	a.Reports = service.NewReportService(a.Store, nil)
	a.Auth, err = service.NewAuthService(a.Store, a.TokenManager, Credentials(cfg.Users))
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// Close releases the slot backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenSlotStore returns the backend selected by cfg.Storage.Type and a func
// that releases it.
func OpenSlotStore(ctx context.Context, cfg *config.Config) (storage.SlotStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Type {
	case "", "memory":
		logger.Info("Using in-memory slot storage")
		return storage.NewMemoryStorage(), noop, nil

	case "file":
		fs, err := storage.NewFileStorage(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file slot storage", "dir", fs.Dir())
		return fs, noop, nil

	case "postgres":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("Database connection established")
		return postgres.NewSlotRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// Credentials converts the configured user table.
func Credentials(users []config.UserConfig) []service.Credential {
	out := make([]service.Credential, len(users))
	for i, u := range users {
		out[i] = service.Credential{
			User:         u.ToUser(),
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
		}
	}
	return out
}
