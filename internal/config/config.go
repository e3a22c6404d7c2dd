package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"keyrental-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Rental    RentalConfig    `yaml:"rental"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Audit     AuditConfig     `yaml:"audit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
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

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RentalConfig tunes the allocation engine and its HTTP front.
type RentalConfig struct {
	HistoryDefaultLimit      int `yaml:"history_default_limit"`
	HistoryMaxLimit          int `yaml:"history_max_limit"`
	CheckoutMaxAttempts      int `yaml:"checkout_max_attempts"`
	CheckoutRetryBaseDelayMs int `yaml:"checkout_retry_base_delay_ms"`
}

// CatalogConfig points at the resource catalog provisioned at startup.
// An empty File selects the built-in catalog.
type CatalogConfig struct {
	File string `yaml:"file"`
}

// AuditConfig controls publishing of rental events to RabbitMQ
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	AMQPURL string `yaml:"amqp_url"`
	Queue   string `yaml:"queue"`
	// DialTimeoutMs bounds connecting to the broker on the publish path.
	DialTimeoutMs int `yaml:"dial_timeout_ms"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileRentals string `yaml:"reconcile_rentals"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

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

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Audit
	if val := os.Getenv("AMQP_URL"); val != "" {
		c.Audit.AMQPURL = val
	}

	// Catalog
	if val := os.Getenv("CATALOG_FILE"); val != "" {
		c.Catalog.File = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
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

	// Rental defaults
	if c.Rental.HistoryDefaultLimit <= 0 {
		c.Rental.HistoryDefaultLimit = 100
	}
	if c.Rental.HistoryMaxLimit <= 0 {
		c.Rental.HistoryMaxLimit = 1000
	}
	if c.Rental.HistoryDefaultLimit > c.Rental.HistoryMaxLimit {
		return fmt.Errorf("history_default_limit %d exceeds history_max_limit %d",
			c.Rental.HistoryDefaultLimit, c.Rental.HistoryMaxLimit)
	}
	if c.Rental.CheckoutMaxAttempts <= 0 {
		c.Rental.CheckoutMaxAttempts = 3
	}
	if c.Rental.CheckoutRetryBaseDelayMs <= 0 {
		c.Rental.CheckoutRetryBaseDelayMs = 20
	}

	// Audit validation
	if c.Audit.Enabled {
		if c.Audit.AMQPURL == "" {
			return fmt.Errorf("audit amqp_url is required when audit is enabled")
		}
		if c.Audit.Queue == "" {
			c.Audit.Queue = "rental.audit"
		}
		if c.Audit.DialTimeoutMs <= 0 {
			c.Audit.DialTimeoutMs = 2000
		}
	}

	// Scheduler defaults
	if c.Scheduler.ReconcileRentals == "" {
		c.Scheduler.ReconcileRentals = "0 */15 * * * *" // every 15 minutes
	}

	return nil
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

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadCatalog reads the resource catalog from path. An empty path or a
// missing file yields domain.DefaultCatalog.
func LoadCatalog(path string) (*domain.Catalog, error) {
	if path == "" {
		return domain.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog domain.Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	for _, p := range catalog.PracticeRooms {
		if p.Name == "" {
			return nil, fmt.Errorf("catalog practice room without a name")
		}
		if !p.Category.Valid() {
			return nil, fmt.Errorf("catalog practice room %q has unknown category %q", p.Name, p.Category)
		}
	}
	for _, p := range catalog.PrintRooms {
		if p.Name == "" {
			return nil, fmt.Errorf("catalog print room without a name")
		}
	}
	for _, s := range catalog.StorageUnits {
		if s.Name == "" {
			return nil, fmt.Errorf("catalog storage unit without a name")
		}
	}
	return &catalog, nil
}
