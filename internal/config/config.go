package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/restated-dev/restated/internal/model"
)

// Config represents the top-level restated.yaml configuration.
type Config struct {
	Business   BusinessConfig   `yaml:"business"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// BusinessConfig identifies the reporting entity.
type BusinessConfig struct {
	Name          string              `yaml:"name" validate:"required"`
	BusinessModel model.BusinessModel `yaml:"business_model" validate:"required,oneof=general_corporate investing_entity financing_entity"`
}

// ReportingConfig holds presentation settings and policy elections.
type ReportingConfig struct {
	Currency string                 `yaml:"currency" validate:"required,oneof=ILS USD EUR GBP"`
	Policy   model.AccountingPolicy `yaml:"policy"`
}

// ThresholdsConfig controls balance validation.
type ThresholdsConfig struct {
	// BalanceTolerance is the absolute tolerance for split and
	// reconciliation checks, as a decimal string.
	BalanceTolerance string `yaml:"balance_tolerance" validate:"required"`
}

// envOverrides are applied on top of the file with a RESTATED_ prefix.
type envOverrides struct {
	Currency         string `envconfig:"CURRENCY"`
	BalanceTolerance string `envconfig:"BALANCE_TOLERANCE"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads restated.yaml, applies RESTATED_* environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("RESTATED", &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if env.Currency != "" {
		cfg.Reporting.Currency = env.Currency
	}
	if env.BalanceTolerance != "" {
		cfg.Thresholds.BalanceTolerance = env.BalanceTolerance
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := cfg.Tolerance(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:          businessName,
			BusinessModel: model.ModelGeneralCorporate,
		},
		Reporting: ReportingConfig{
			Currency: "ILS",
		},
		Thresholds: ThresholdsConfig{
			BalanceTolerance: "0.01",
		},
	}
}

// Tolerance parses the balance tolerance.
func (c *Config) Tolerance() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Thresholds.BalanceTolerance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid balance_tolerance %q: %w", c.Thresholds.BalanceTolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("balance_tolerance must not be negative")
	}
	return d, nil
}
