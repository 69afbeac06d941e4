package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/contactform/internal/config"
)

// setRequired sets the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOTCHECK_SECRET", "secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("CONTACT_OWNER_EMAIL", "owner@example.com")
	t.Setenv("CONTACT_FROM_EMAIL", "noreply@example.com")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, "production", cfg.Environment)
	require.False(t, cfg.IsDev())

	require.Equal(t, 5, cfg.RateLimit.Max)
	require.Equal(t, time.Hour, cfg.RateLimit.Window)

	require.Equal(t, 3, cfg.Queue.MaxAttempts)
	require.Equal(t, 30*time.Second, cfg.Queue.SendTimeout)
	require.Equal(t, 2*time.Second, cfg.Queue.PollInterval)
	require.True(t, cfg.Queue.Confirmation)

	require.Equal(t, config.ProviderSMTP, cfg.Mailer.Provider)
	require.Equal(t, 587, cfg.Mailer.SMTP.Port)
	require.InDelta(t, 0.5, cfg.Botcheck.MinScore, 1e-9)
}

func TestLoad_UnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("MAILER_PROVIDER", "carrier-pigeon")

	_, err := config.Load()
	require.ErrorContains(t, err, "MAILER_PROVIDER")
}

func TestLoad_ResendRequiresAPIKey(t *testing.T) {
	setRequired(t)
	t.Setenv("MAILER_PROVIDER", "resend")

	_, err := config.Load()
	require.ErrorContains(t, err, "RESEND_API_KEY")
}

func TestLoad_MissingBotcheckSecret(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("CONTACT_OWNER_EMAIL", "owner@example.com")
	t.Setenv("CONTACT_FROM_EMAIL", "noreply@example.com")
	t.Setenv("BOTCHECK_SECRET", "")

	_, err := config.Load()
	require.ErrorContains(t, err, "BOTCHECK_SECRET")
}

func TestSanitize_Clamps(t *testing.T) {
	t.Parallel()

	cfg := config.AppConfig{Environment: "Production"}
	cfg.RateLimit.Max = 0
	cfg.RateLimit.Window = 0
	cfg.Queue.MaxAttempts = -1
	cfg.Queue.SendTimeout = 0
	cfg.Queue.PollInterval = 0
	cfg.Botcheck.MinScore = 1.5
	cfg.DevBypass = true

	cfg.Sanitize()

	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, 1, cfg.RateLimit.Max)
	require.Equal(t, time.Second, cfg.RateLimit.Window)
	require.Equal(t, 1, cfg.Queue.MaxAttempts)
	require.Equal(t, time.Second, cfg.Queue.SendTimeout)
	require.Equal(t, 100*time.Millisecond, cfg.Queue.PollInterval)
	require.InDelta(t, 1.0, cfg.Botcheck.MinScore, 1e-9)
	require.False(t, cfg.DevBypass, "bypass must not survive outside development")
}

func TestSanitize_BypassAllowedInDev(t *testing.T) {
	t.Parallel()

	cfg := config.AppConfig{Environment: "development", DevBypass: true}
	cfg.Sanitize()
	require.True(t, cfg.DevBypass)
	require.True(t, cfg.IsDev())
}
