package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. TALENTSINK_SERVER_PORT
const EnvPrefix = "TALENTSINK_"

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// HTTP server and session settings
	Server ServerConfig `yaml:"server"`

	// Invoice settings
	Invoice InvoiceConfig `yaml:"invoice"`

	// Billing defaults
	Billing BillingConfig `yaml:"billing"`

	// Outgoing email
	Mail MailConfig `yaml:"mail"`

	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database

	// KeyringService is the OS keyring service holding the encryption key
	KeyringService string `yaml:"keyring_service"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	JWTSecret    string        `yaml:"jwt_secret"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type InvoiceConfig struct {
	DefaultDueDays int    `yaml:"default_due_days"` // Days until invoice due
	NumberPrefix   string `yaml:"number_prefix"`    // Invoice number prefix (e.g., "INV")
	OutputDir      string `yaml:"output_dir"`       // Directory for generated PDFs and workbooks
	CompanyName    string `yaml:"company_name"`
	CompanyAddress string `yaml:"company_address"`
}

type BillingConfig struct {
	DefaultCurrency string `yaml:"default_currency"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

func baseDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		homeDir = "."
	}
	return filepath.Join(homeDir, ".config", "talentsink")
}

// DefaultConfigPath returns ~/.config/talentsink/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := baseDir()

	return &Config{
		Database: DatabaseConfig{
			Path:           filepath.Join(dir, "talentsink.db"),
			KeyringService: "talentsink",
		},
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8080,
			SessionTTL: 24 * time.Hour,
		},
		Invoice: InvoiceConfig{
			DefaultDueDays: 30,
			NumberPrefix:   "INV",
			OutputDir:      filepath.Join(dir, "invoices"),
			CompanyName:    "TalentSink Recruitment",
		},
		Billing: BillingConfig{
			DefaultCurrency: "USD",
		},
		Mail: MailConfig{
			Port: 587,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist.
// Environment overrides are applied on top in both cases.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports the variables in path. A missing file is not an error.
// Variables already set in the environment win.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// ApplyEnv overrides values from TALENTSINK_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("DB_PATH", &c.Database.Path)
	str("KEYRING_SERVICE", &c.Database.KeyringService)
	str("HOST", &c.Server.Host)
	str("JWT_SECRET", &c.Server.JWTSecret)
	str("INVOICE_PREFIX", &c.Invoice.NumberPrefix)
	str("INVOICE_OUTPUT_DIR", &c.Invoice.OutputDir)
	str("COMPANY_NAME", &c.Invoice.CompanyName)
	str("COMPANY_ADDRESS", &c.Invoice.CompanyAddress)
	str("DEFAULT_CURRENCY", &c.Billing.DefaultCurrency)
	str("SMTP_HOST", &c.Mail.Host)
	str("SMTP_USERNAME", &c.Mail.Username)
	str("SMTP_PASSWORD", &c.Mail.Password)
	str("MAIL_FROM", &c.Mail.From)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup(EnvPrefix + "SESSION_TTL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sSESSION_TTL: %w", EnvPrefix, err)
		}
		c.Server.SessionTTL = d
	}

	for _, apply := range []func() error{
		func() error { return num("PORT", &c.Server.Port) },
		func() error { return num("INVOICE_DUE_DAYS", &c.Invoice.DefaultDueDays) },
		func() error { return num("SMTP_PORT", &c.Mail.Port) },
		func() error { return flag("COOKIE_SECURE", &c.Server.CookieSecure) },
		func() error { return flag("MAIL_ENABLED", &c.Mail.Enabled) },
	} {
		if err := apply(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks settings the server cannot run without
func (c *Config) Validate() error {
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required (or set %sJWT_SECRET)", EnvPrefix)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be positive")
	}
	if c.Invoice.DefaultDueDays < 0 {
		return fmt.Errorf("invoice.default_due_days cannot be negative")
	}
	if c.Mail.Enabled && (c.Mail.Host == "" || c.Mail.From == "") {
		return fmt.Errorf("mail.host and mail.from are required when mail is enabled")
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// Secrets live in this file
	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates all necessary directories (for database, invoices, etc.)
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return err
	}

	if err := os.MkdirAll(c.Invoice.OutputDir, 0755); err != nil {
		return err
	}

	return nil
}
