// Package config composes application configuration from environment
// variables using caarlos0/env, with a .env file loaded first in
// development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/contactform/internal/delivery"
	"github.com/dmitrymomot/contactform/pkg/botcheck"
	"github.com/dmitrymomot/contactform/pkg/logger"
	"github.com/dmitrymomot/contactform/pkg/mailer"
	resendmail "github.com/dmitrymomot/contactform/pkg/mailer/resend"
	smtpmail "github.com/dmitrymomot/contactform/pkg/mailer/smtp"
)

// Mail provider names accepted in MAILER_PROVIDER.
const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
	ProviderDev    = "dev"
)

// AppConfig is the root configuration, composed from the per-concern
// config structs each package exposes.
type AppConfig struct {
	// Environment names the deployment environment ("development",
	// "staging", "production"). Development enables the email bypass
	// unless DEV_EMAIL_BYPASS overrides it.
	Environment string `env:"ENVIRONMENT" envDefault:"production"`

	// DevBypass accepts submissions without enqueueing delivery.
	// Forced off outside development.
	DevBypass bool `env:"DEV_EMAIL_BYPASS" envDefault:"false"`

	HTTP      HTTPConfig
	RateLimit RateLimitConfig
	Queue     QueueConfig

	Botcheck botcheck.Config
	Mailer   MailerConfig
	Contact  delivery.Config
	Sentry   logger.SentryConfig
}

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests
	// and queue draining.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// RateLimitConfig controls the per-IP submission limiter.
type RateLimitConfig struct {
	Max    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
}

// QueueConfig controls the delivery queue.
type QueueConfig struct {
	MaxAttempts  int           `env:"QUEUE_MAX_ATTEMPTS" envDefault:"3"`
	SendTimeout  time.Duration `env:"QUEUE_SEND_TIMEOUT" envDefault:"30s"`
	PollInterval time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"2s"`

	// Confirmation toggles the copy emailed back to the submitter.
	Confirmation bool `env:"CONFIRMATION_EMAIL_ENABLED" envDefault:"true"`
}

// MailerConfig selects a mail provider and carries its settings. Only
// the selected provider's struct needs to be populated.
type MailerConfig struct {
	// Provider is one of "smtp", "resend", "dev".
	Provider string `env:"MAILER_PROVIDER" envDefault:"smtp"`

	Mailer mailer.Config
	SMTP   smtpmail.Config
	Resend resendmail.Config
}

// Load reads configuration from the environment, preceded by a .env
// file when one exists.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// IsDev reports whether the app runs in a development environment.
func (c *AppConfig) IsDev() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev"
}

// Sanitize applies guardrails to values loaded from env.
func (c *AppConfig) Sanitize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.Mailer.Provider = strings.ToLower(strings.TrimSpace(c.Mailer.Provider))

	if c.RateLimit.Max < 1 {
		c.RateLimit.Max = 1
	}
	if c.RateLimit.Window < time.Second {
		c.RateLimit.Window = time.Second
	}

	if c.Queue.MaxAttempts < 1 {
		c.Queue.MaxAttempts = 1
	}
	if c.Queue.SendTimeout < time.Second {
		c.Queue.SendTimeout = time.Second
	}
	if c.Queue.PollInterval < 100*time.Millisecond {
		c.Queue.PollInterval = 100 * time.Millisecond
	}

	if c.Botcheck.MinScore < 0 {
		c.Botcheck.MinScore = 0
	}
	if c.Botcheck.MinScore > 1 {
		c.Botcheck.MinScore = 1
	}

	if c.HTTP.ShutdownTimeout < time.Second {
		c.HTTP.ShutdownTimeout = time.Second
	}

	// The bypass never ships an environment that real users hit.
	if c.DevBypass && !c.IsDev() {
		c.DevBypass = false
	}
}

// Validate checks that the selected provider has what it needs.
func (c *AppConfig) Validate() error {
	switch c.Mailer.Provider {
	case ProviderSMTP:
		if c.Mailer.SMTP.Host == "" {
			return errors.New("SMTP_HOST is required when MAILER_PROVIDER=smtp")
		}
	case ProviderResend:
		if c.Mailer.Resend.APIKey == "" {
			return errors.New("RESEND_API_KEY is required when MAILER_PROVIDER=resend")
		}
	case ProviderDev:
		// No credentials needed.
	default:
		return fmt.Errorf("unknown MAILER_PROVIDER %q", c.Mailer.Provider)
	}

	if c.Botcheck.Secret == "" {
		return errors.New("BOTCHECK_SECRET is required")
	}
	return nil
}
