// Package config holds the application configuration: source file
// paths, sampling parameters and the ambient logging setup.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Invoice    InvoiceConfig    `mapstructure:"invoice"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Sample     SampleConfig     `mapstructure:"sample"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Report     ReportConfig     `mapstructure:"report"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// InvoiceConfig locates the invoice register.
type InvoiceConfig struct {
	Path string `mapstructure:"path"`
	// HeaderRow is the 0-based header offset; the exports carry a fixed
	// four-row cover block, so the convention is 4. Not normally
	// user-exposed.
	HeaderRow int `mapstructure:"header_row"`
}

// LedgerConfig locates the general ledger export. The header row is
// auto-detected, so only the path is needed.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// SampleConfig holds the sampling parameters.
type SampleConfig struct {
	Size int `mapstructure:"size"`
	// Year doubles as the deterministic sampling seed.
	Year int `mapstructure:"year"`
}

// EngagementConfig holds assignment metadata carried into the report.
type EngagementConfig struct {
	Client       string `mapstructure:"client"`
	ClientNumber string `mapstructure:"client_number"`
	Reviewer     string `mapstructure:"reviewer"`
}

// ReportConfig controls the exported report.
type ReportConfig struct {
	OutputPath string `mapstructure:"output_path"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional file plus environment
// variables. An empty configPath loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("invoice.header_row", 4)

	v.SetDefault("sample.size", 10)
	v.SetDefault("sample.year", 0)

	v.SetDefault("engagement.reviewer", defaultReviewer())

	v.SetDefault("report.output_path", "bilagskontroll_rapport.xlsx")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "console")
}

// defaultReviewer mirrors the desktop convention of pre-filling the
// reviewer with the logged-in user.
func defaultReviewer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Sample.Size < 1 {
		return fmt.Errorf("sample.size must be positive, got %d", c.Sample.Size)
	}
	if c.Invoice.HeaderRow < 0 {
		return fmt.Errorf("invoice.header_row must not be negative, got %d", c.Invoice.HeaderRow)
	}
	return nil
}
