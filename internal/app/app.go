package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/andy/talentsink/internal/api"
	"github.com/andy/talentsink/internal/auth"
	"github.com/andy/talentsink/internal/config"
	"github.com/andy/talentsink/internal/crypto"
	"github.com/andy/talentsink/internal/db"
	"github.com/andy/talentsink/internal/invoicepdf"
	"github.com/andy/talentsink/internal/notify"
	"github.com/andy/talentsink/internal/repository"
	"github.com/andy/talentsink/internal/service"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	UserRepo      repository.UserRepository
	BillingRepo   repository.BillingRepository
	TimesheetRepo repository.TimesheetRepository
	InvoiceRepo   repository.InvoiceRepository

	Tokens   *auth.TokenManager
	Notifier *notify.Dispatcher
	PDF      *invoicepdf.Renderer

	// Services
	UserService      service.UserService
	BillingService   service.BillingService
	TimesheetService service.TimesheetService
	ReportService    service.ReportService
	InvoiceService   service.InvoiceService
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config (.env, YAML, TALENTSINK_* overrides)
// 2. Getting encryption key from the environment or keyring
// 3. Opening database
// 4. Running migrations
// 5. Creating repositories
// 6. Creating services
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger := NewLogger(os.Stderr, cfg.Log)

	keyring := crypto.NewKeyring(cfg.Database.KeyringService, crypto.AccountFor(cfg.Database.Path))
	password, err := crypto.ResolveKey(keyring)
	if err != nil {
		// First run on an interactive terminal: ask for a key and keep it
		if !term.IsTerminal(int(syscall.Stdin)) {
			return nil, fmt.Errorf("%w: set %s", err, crypto.KeyEnv)
		}
		fmt.Println("Setting up database encryption for the first time...")
		password, err = promptForPassword()
		if err != nil {
			return nil, fmt.Errorf("failed to set password: %w", err)
		}
		if err := keyring.SetKey(password); err != nil {
			logger.Warn("encryption key not stored", "error", err)
		}
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return Wire(cfg, database, logger), nil
}

// Wire builds repositories and services on an open, migrated database
func Wire(cfg *config.Config, database *db.DB, logger *slog.Logger) *App {
	userRepo := repository.NewUserRepo(database)
	billingRepo := repository.NewBillingRepo(database)
	timesheetRepo := repository.NewTimesheetRepo(database)
	invoiceRepo := repository.NewInvoiceRepo(database)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Mail.Enabled {
		smtpNotifier, err := notify.NewSMTPNotifier(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		if err != nil {
			logger.Warn("mail disabled, logging notifications instead", "error", err)
		} else {
			notifier = smtpNotifier
		}
	}
	dispatcher := notify.NewDispatcher(notifier, logger)

	tokens := auth.NewTokenManager(cfg.Server.JWTSecret, cfg.Server.SessionTTL)
	currency := cfg.Billing.DefaultCurrency

	return &App{
		Config: cfg,
		DB:     database,
		Logger: logger,

		UserRepo:      userRepo,
		BillingRepo:   billingRepo,
		TimesheetRepo: timesheetRepo,
		InvoiceRepo:   invoiceRepo,

		Tokens:   tokens,
		Notifier: dispatcher,
		PDF: invoicepdf.New(invoicepdf.Company{
			Name:    cfg.Invoice.CompanyName,
			Address: cfg.Invoice.CompanyAddress,
		}),

		UserService:      service.NewUserService(userRepo, tokens, dispatcher),
		BillingService:   service.NewBillingService(billingRepo, userRepo, currency),
		TimesheetService: service.NewTimesheetService(timesheetRepo, billingRepo, userRepo, dispatcher, logger, currency),
		ReportService:    service.NewReportService(timesheetRepo, billingRepo, invoiceRepo, userRepo, currency),
		InvoiceService:   service.NewInvoiceService(invoiceRepo, timesheetRepo, userRepo, logger, cfg.Invoice.NumberPrefix, cfg.Invoice.DefaultDueDays),
	}
}

// API builds the HTTP server from the configured services
func (a *App) API() *api.API {
	return api.New(a.Logger, api.Services{
		Users:      a.UserService,
		Billing:    a.BillingService,
		Timesheets: a.TimesheetService,
		Reports:    a.ReportService,
		Invoices:   a.InvoiceService,
	}, a.PDF).
		WithHost(a.Config.Server.Host).
		WithPort(a.Config.Server.Port).
		WithSecureCookies(a.Config.Server.CookieSecure)
}

// Close waits for pending notifications and closes the database
func (a *App) Close() error {
	a.Notifier.Wait()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}

// NewLogger builds a slog logger from the log section of the config
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Candidate and billing data will be encrypted with a password.")
	fmt.Println("This password will be stored in your system keyring when one is available.")
	fmt.Println()

	password, err := ReadPassword("Enter a password for database encryption: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	confirm, err := ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return password, nil
}

// ReadPassword reads a line from the terminal without echo
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
