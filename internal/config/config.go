package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chacara-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cronjob   CronjobConfig   `yaml:"cronjob"`
	Email     EmailConfig     `yaml:"email"`
	Users     []UserConfig    `yaml:"users"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GRPCConfig contains the health-check server settings. Port 0 disables it.
type GRPCConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig selects the slot backend used to persist collections.
type StorageConfig struct {
	Type string `yaml:"type"` // "memory", "file" or "postgres"
	Dir  string `yaml:"dir"`  // for "file"
	Seed bool   `yaml:"seed"` // load demo data when a slot is empty
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains session token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Overdue sweep runners
const (
	SweepRunnerServer  = "server"
	SweepRunnerCronjob = "cronjob"
)

// LedgerConfig contains reservation and payment policy settings
type LedgerConfig struct {
	DefaultPaymentMethod string `yaml:"default_payment_method"`
	OverdueGraceDays     int    `yaml:"overdue_grace_days"`
	OverdueSweepEnabled  bool   `yaml:"overdue_sweep_enabled"`
	// OverdueSweepRunner picks the process whose scheduler fires the sweep:
	// "server" (in-process) or "cronjob" (calls the server's jobs endpoint).
	OverdueSweepRunner string `yaml:"overdue_sweep_runner"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	MarkOverduePayments string `yaml:"mark_overdue_payments"`
}

// CronjobConfig contains settings for cmd/cronjob. The cronjob never opens
// the slot backend; it triggers jobs on the server that owns the state.
type CronjobConfig struct {
	ServerURL string `yaml:"server_url"`
}

// EmailConfig contains SendGrid settings. An empty API key disables delivery.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// UserConfig is one row of the static credential table.
type UserConfig struct {
	ID           int32           `yaml:"id"`
	Name         string          `yaml:"name"`
	Email        string          `yaml:"email"`
	Type         domain.UserType `yaml:"type"`
	Password     string          `yaml:"password"`
	PasswordHash string          `yaml:"password_hash"`
}

// ToUser returns the public part of the entry.
func (u UserConfig) ToUser() domain.User {
	return domain.User{ID: u.ID, Name: u.Name, Email: u.Email, Type: u.Type}
}

// Load reads configuration from a YAML file. A .env file next to the process, if
// present, is loaded first so its values take part in the env overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a validated Config from YAML bytes plus environment overrides.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.GRPC.Port)
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("STORAGE_DIR"); val != "" {
		c.Storage.Dir = val
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Cronjob
	if val := os.Getenv("CRONJOB_SERVER_URL"); val != "" {
		c.Cronjob.ServerURL = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}

	switch c.Storage.Type {
	case "":
		c.Storage.Type = "memory"
	case "memory":
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required for file storage")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Ledger.DefaultPaymentMethod == "" {
		c.Ledger.DefaultPaymentMethod = "pix"
	}
	if c.Ledger.OverdueGraceDays < 0 {
		return fmt.Errorf("overdue grace days cannot be negative: %d", c.Ledger.OverdueGraceDays)
	}

	switch c.Ledger.OverdueSweepRunner {
	case "":
		c.Ledger.OverdueSweepRunner = SweepRunnerServer
	case SweepRunnerServer, SweepRunnerCronjob:
	default:
		return fmt.Errorf("invalid overdue sweep runner: %s", c.Ledger.OverdueSweepRunner)
	}
	if c.Cronjob.ServerURL == "" {
		c.Cronjob.ServerURL = fmt.Sprintf("http://127.0.0.1:%d", c.Server.Port)
	}

	if c.Scheduler.MarkOverduePayments == "" {
		c.Scheduler.MarkOverduePayments = "0 0 3 * * *" // 3 AM UTC
	}

	if c.Email.FromEmail == "" {
		c.Email.FromEmail = "reservas@chacaras.local"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Chácaras"
	}

	if len(c.Users) == 0 {
		c.Users = DefaultUsers()
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		email := domain.NormalizeEmail(u.Email)
		if email == "" {
			return fmt.Errorf("user %d has no email", u.ID)
		}
		if seen[email] {
			return fmt.Errorf("duplicate user email: %s", email)
		}
		seen[email] = true
		switch u.Type {
		case domain.UserTypeAdmin, domain.UserTypeOwner, domain.UserTypeVisitor:
		default:
			return fmt.Errorf("user %s has invalid type %q", u.Email, u.Type)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("user %s has no password", u.Email)
		}
	}

	return nil
}

// DefaultUsers is the demo credential table used when none is configured.
func DefaultUsers() []UserConfig {
	return []UserConfig{
		{ID: 1, Name: "Administrador", Email: "admin@chacaras.com", Type: domain.UserTypeAdmin, Password: "admin123"},
		{ID: 2, Name: "João Proprietário", Email: "proprietario@chacaras.com", Type: domain.UserTypeOwner, Password: "prop123"},
		{ID: 3, Name: "Maria Visitante", Email: "visitante@chacaras.com", Type: domain.UserTypeVisitor, Password: "visit123"},
	}
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.GRPC.Port)
}
