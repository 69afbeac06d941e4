// contactd serves the contact-form API: it accepts submissions over
// HTTP, filters them, and delivers them by email through an in-memory
// retry queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dmitrymomot/contactform/internal/config"
	"github.com/dmitrymomot/contactform/internal/delivery"
	"github.com/dmitrymomot/contactform/internal/httpx"
	"github.com/dmitrymomot/contactform/internal/queue"
	"github.com/dmitrymomot/contactform/pkg/botcheck"
	"github.com/dmitrymomot/contactform/pkg/logger"
	"github.com/dmitrymomot/contactform/pkg/mailer"
	"github.com/dmitrymomot/contactform/pkg/mailer/devnull"
	resendmail "github.com/dmitrymomot/contactform/pkg/mailer/resend"
	smtpmail "github.com/dmitrymomot/contactform/pkg/mailer/smtp"
	"github.com/dmitrymomot/contactform/pkg/ratelimit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithSentry(cfg.Sentry, httpx.RequestIDExtractor())
	slog.SetDefault(log)
	defer sentry.Flush(2 * time.Second)

	sender, err := newSender(cfg, log)
	if err != nil {
		return err
	}

	templates, err := delivery.TemplatesFS()
	if err != nil {
		return err
	}
	m := mailer.New(sender, mailer.NewRenderer(templates), cfg.Mailer.Mailer)
	deliverer := delivery.New(m, cfg.Contact)

	q := queue.New(deliverer,
		queue.WithLogger(log),
		queue.WithMaxAttempts(cfg.Queue.MaxAttempts),
		queue.WithSendTimeout(cfg.Queue.SendTimeout),
		queue.WithPollInterval(cfg.Queue.PollInterval),
		queue.WithConfirmation(cfg.Queue.Confirmation),
	)

	contactHandler := httpx.NewContactHandler(httpx.ContactHandlerConfig{
		Limiter:  ratelimit.New(cfg.RateLimit.Max, cfg.RateLimit.Window),
		Verifier: botcheck.New(cfg.Botcheck),
		Queue:    q,
		Logger:   log,
		Bypass:   cfg.DevBypass,
	})
	statusHandler := httpx.NewStatusHandler(q, log)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpx.NewRouter(contactHandler, statusHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			slog.String("address", ln.Addr().String()),
			slog.String("environment", cfg.Environment),
			slog.String("mail_provider", cfg.Mailer.Provider),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// Stop accepting is done; give queued emails a chance to go out.
	if err := q.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("queue shutdown: %w", err))
	}

	if len(errs) > 0 {
		log.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	log.Info("shutdown completed")
	return nil
}

// newSender builds the mail sender named by MAILER_PROVIDER. The dev
// provider logs emails instead of sending them.
func newSender(cfg config.AppConfig, log *slog.Logger) (mailer.Sender, error) {
	switch cfg.Mailer.Provider {
	case config.ProviderSMTP:
		return smtpmail.New(cfg.Mailer.SMTP), nil
	case config.ProviderResend:
		return resendmail.New(cfg.Mailer.Resend), nil
	case config.ProviderDev:
		return devnull.New(log), nil
	default:
		return nil, fmt.Errorf("unknown MAILER_PROVIDER %q", cfg.Mailer.Provider)
	}
}
