// Package config loads the service settings from the environment and an optional file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop/internal/models"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting of the service.
type Config struct {
	AppPort           string        `mapstructure:"APP_PORT"`
	AppEnv            string        `mapstructure:"APP_ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	JWTSecret         string        `mapstructure:"JWT_SECRET"`
	TokenTTL          time.Duration `mapstructure:"TOKEN_TTL"`
	BcryptCost        int           `mapstructure:"BCRYPT_COST"`
	AdminToken        string        `mapstructure:"ADMIN_TOKEN"`
	RabbitMQURL       string        `mapstructure:"RABBITMQ_URL"`
	StorageDriver     string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseDSN       string        `mapstructure:"DATABASE_DSN"`
	OrderCancelCutoff string        `mapstructure:"ORDER_CANCEL_CUTOFF"`
	DemoEmail         string        `mapstructure:"DEMO_EMAIL"`
	DemoPassword      string        `mapstructure:"DEMO_PASSWORD"`
	SeedData          bool          `mapstructure:"SEED_DATA"`
}

var defaults = map[string]interface{}{
	"APP_PORT":            ":8080",
	"APP_ENV":             "development",
	"LOG_LEVEL":           "info",
	"JWT_SECRET":          "change-me-in-production",
	"TOKEN_TTL":           "24h",
	"BCRYPT_COST":         12,
	"ADMIN_TOKEN":         "",
	"RABBITMQ_URL":        "",
	"STORAGE_DRIVER":      DriverMemory,
	"DATABASE_DSN":        "file:eshop.db?cache=shared",
	"ORDER_CANCEL_CUTOFF": string(models.OrderStatusPaid),
	"DEMO_EMAIL":          "client@shop.test",
	"DEMO_PASSWORD":       "Secret123!",
	"SEED_DATA":           true,
}

// Load reads the environment, plus the file named by CONFIG_FILE when set.
// Environment variables win over the file.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if strings.HasSuffix(file, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			errs = append(errs, fmt.Errorf("DATABASE_DSN is required for the %s driver", c.StorageDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	if _, err := c.CancelPolicy(); err != nil {
		errs = append(errs, fmt.Errorf("ORDER_CANCEL_CUTOFF: %w", err))
	}
	return errors.Join(errs...)
}

// CancelPolicy builds the order cancel policy from ORDER_CANCEL_CUTOFF.
func (c *Config) CancelPolicy() (models.CancelPolicy, error) {
	cutoff, err := models.ParseOrderStatus(c.OrderCancelCutoff)
	if err != nil {
		return models.CancelPolicy{}, err
	}
	return models.NewCancelPolicy(cutoff)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
