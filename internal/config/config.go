package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/utils"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Log           LogConfig           `yaml:"log"`
	Rental        RentalConfig        `yaml:"rental"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
	GRPCPort int    `yaml:"grpc_port"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver        string `yaml:"driver"` // "postgres" or "memory"
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Database      string `yaml:"database"`
	SSLMode       string `yaml:"ssl_mode"`
	RunMigrations bool   `yaml:"run_migrations"`
}

type JWTConfig struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// RentalConfig holds the booking rules.
type RentalConfig struct {
	AnchorWeekday             string   `yaml:"anchor_weekday"`
	MaintenanceBlockingLevels []string `yaml:"maintenance_blocking_levels"`
}

type NotificationsConfig struct {
	SendGridAPIKey          string `yaml:"sendgrid_api_key"`
	FromEmail               string `yaml:"from_email"`
	FromName                string `yaml:"from_name"`
	AdminEmail              string `yaml:"admin_email"`
	FirebaseCredentialsFile string `yaml:"firebase_credentials_file"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SendOverdueReminders  string `yaml:"send_overdue_reminders"`
	SendMaintenanceDigest string `yaml:"send_maintenance_digest"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and validates.
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

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	envString("DB_DRIVER", &c.Database.Driver)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	if val := os.Getenv("DB_RUN_MIGRATIONS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Database.RunMigrations = b
		}
	}

	envString("JWT_SECRET", &c.JWT.Secret)

	// Server
	envString("SERVER_HOST", &c.Server.Host)
	envInt("HTTP_PORT", &c.Server.HTTPPort)
	envInt("GRPC_PORT", &c.Server.GRPCPort)

	// Log
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	// Rental
	envString("RENTAL_ANCHOR_WEEKDAY", &c.Rental.AnchorWeekday)
	if val := os.Getenv("RENTAL_MAINTENANCE_BLOCKING_LEVELS"); val != "" {
		c.Rental.MaintenanceBlockingLevels = strings.Split(val, ",")
	}

	// Notifications
	envString("SENDGRID_API_KEY", &c.Notifications.SendGridAPIKey)
	envString("NOTIFY_FROM_EMAIL", &c.Notifications.FromEmail)
	envString("NOTIFY_ADMIN_EMAIL", &c.Notifications.AdminEmail)
	envString("FIREBASE_CREDENTIALS_FILE", &c.Notifications.FirebaseCredentialsFile)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
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
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.TokenTTLMinutes <= 0 {
		c.JWT.TokenTTLMinutes = 720
	}

	if c.Rental.AnchorWeekday == "" {
		c.Rental.AnchorWeekday = "friday"
	}
	if _, ok := utils.ParseWeekday(c.Rental.AnchorWeekday); !ok {
		return fmt.Errorf("unknown anchor weekday %q", c.Rental.AnchorWeekday)
	}
	if len(c.Rental.MaintenanceBlockingLevels) == 0 {
		c.Rental.MaintenanceBlockingLevels = []string{string(domain.MaintenanceImportanceHigh)}
	}
	for i, level := range c.Rental.MaintenanceBlockingLevels {
		importance := domain.MaintenanceImportance(strings.ToUpper(strings.TrimSpace(level)))
		if !importance.Valid() {
			return fmt.Errorf("unknown maintenance importance %q", level)
		}
		c.Rental.MaintenanceBlockingLevels[i] = string(importance)
	}

	if c.Notifications.SendGridAPIKey != "" && c.Notifications.FromEmail == "" {
		return fmt.Errorf("notifications from_email is required with a SendGrid key")
	}
	if c.Notifications.FromName == "" {
		c.Notifications.FromName = "Toolshed"
	}

	if c.Scheduler.SendOverdueReminders == "" {
		c.Scheduler.SendOverdueReminders = "0 0 8 * * *" // daily 8 AM UTC
	}
	if c.Scheduler.SendMaintenanceDigest == "" {
		c.Scheduler.SendMaintenanceDigest = "0 0 7 * * MON" // Monday 7 AM UTC
	}
	return nil
}

// Calendar returns the booking calendar for the configured anchor day.
func (c *Config) Calendar() utils.Calendar {
	day, _ := utils.ParseWeekday(c.Rental.AnchorWeekday)
	return utils.NewCalendar(day)
}

func (c *Config) MaintenancePolicy() utils.MaintenancePolicy {
	levels := make([]domain.MaintenanceImportance, len(c.Rental.MaintenanceBlockingLevels))
	for i, level := range c.Rental.MaintenanceBlockingLevels {
		levels[i] = domain.MaintenanceImportance(level)
	}
	return utils.MaintenancePolicy{BlockingLevels: levels}
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

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TokenTTLMinutes) * time.Minute
}

func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// GRPCAddress is empty when the gRPC listener is disabled.
func (c *Config) GRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
