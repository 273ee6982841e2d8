package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/mealdash/internal/domain"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Auth     AuthConfig     `yaml:"auth"`
	Pricing  PricingConfig  `yaml:"pricing"`
}

type HTTPConfig struct {
	Port int `yaml:"port" env:"HTTP_PORT"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Database string `yaml:"database" env:"DB_NAME"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host" env:"RABBITMQ_HOST"`
	Port     int    `yaml:"port" env:"RABBITMQ_PORT"`
	User     string `yaml:"user" env:"RABBITMQ_USER"`
	Password string `yaml:"password" env:"RABBITMQ_PASSWORD"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// PricingConfig carries the fee schedule as decimal strings so the YAML stays
// exact; use FeeSchedule to get domain values.
type PricingConfig struct {
	DeliveryFee    string `yaml:"delivery_fee" env:"PRICING_DELIVERY_FEE"`
	ServiceFeeRate string `yaml:"service_fee_rate" env:"PRICING_SERVICE_FEE_RATE"`
	TaxRate        string `yaml:"tax_rate" env:"PRICING_TAX_RATE"`
}

// Load reads the YAML config file and overlays any environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	for _, target := range []interface{}{
		&cfg.HTTP, &cfg.Database, &cfg.RabbitMQ, &cfg.Auth, &cfg.Pricing,
	} {
		if err := env.Parse(target); err != nil {
			return nil, fmt.Errorf("failed to parse env overrides: %w", err)
		}
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret must be set")
	}

	return &cfg, nil
}

// FeeSchedule converts the configured pricing strings into domain values.
func (p PricingConfig) FeeSchedule() (domain.FeeSchedule, error) {
	var fees domain.FeeSchedule
	var err error

	if fees.DeliveryFee, err = parseRate(p.DeliveryFee, "2.50"); err != nil {
		return fees, fmt.Errorf("pricing.delivery_fee: %w", err)
	}
	if fees.ServiceFeeRate, err = parseRate(p.ServiceFeeRate, "0.10"); err != nil {
		return fees, fmt.Errorf("pricing.service_fee_rate: %w", err)
	}
	if fees.TaxRate, err = parseRate(p.TaxRate, "0.08"); err != nil {
		return fees, fmt.Errorf("pricing.tax_rate: %w", err)
	}

	return fees, nil
}

func parseRate(s, fallback string) (decimal.Decimal, error) {
	if s == "" {
		s = fallback
	}
	return decimal.NewFromString(s)
}
