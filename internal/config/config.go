package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY,required" validate:"required"`
	PaystackPublicKey string `env:"PAYSTACK_PUBLIC_KEY"`
	PaystackBaseURL   string `env:"PAYSTACK_BASE_URL" envDefault:"https://api.paystack.co" validate:"required,url"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	EmailProvider string `env:"EMAIL_PROVIDER" validate:"omitempty,oneof=resend"`
	EmailAPIKey   string `env:"EMAIL_API_KEY" validate:"required_with=EmailProvider"`
	EmailFrom     string `env:"EMAIL_FROM" validate:"required_with=EmailProvider,omitempty,email"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	// Pricing policy. Decimal strings in major units, e.g. "100.00".
	FreeShippingThreshold string `env:"FREE_SHIPPING_THRESHOLD" envDefault:"100.00"`
	FlatShippingRate      string `env:"FLAT_SHIPPING_RATE" envDefault:"10.00"`
	TaxRateBasisPoints    int64  `env:"TAX_RATE_BASIS_POINTS" envDefault:"850" validate:"gte=0,lte=10000"`

	SentryDSN string `env:"SENTRY_DSN"`
	StoreName string `env:"STORE_NAME" envDefault:"Kasuwa"`
	BaseURL   string `env:"BASE_URL" validate:"omitempty,url"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
