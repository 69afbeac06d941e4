// Package botcheck verifies challenge tokens against a score-based
// verification service (reCAPTCHA-style: the service returns a success
// flag and a 0..1 trust score).
//
// Verification fails closed: a transport error, an undecodable response,
// an unsuccessful result, or a score below the configured minimum all
// reject the token.
package botcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrMissingToken indicates no token was supplied.
	ErrMissingToken = errors.New("verification token is required")

	// ErrVerificationFailed indicates the service rejected the token or
	// scored it below the minimum.
	ErrVerificationFailed = errors.New("bot verification failed")

	// ErrServiceUnavailable indicates the verification service could not
	// be reached or returned an unreadable response.
	ErrServiceUnavailable = errors.New("verification service unavailable")
)

// DefaultMinScore is the minimum trust score required to accept a token.
const DefaultMinScore = 0.5

// Verifier checks a challenge token for a given client IP.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Config holds verification service configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Secret    string        `env:"BOTCHECK_SECRET"`
	VerifyURL string        `env:"BOTCHECK_VERIFY_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	MinScore  float64       `env:"BOTCHECK_MIN_SCORE" envDefault:"0.5"`
	Timeout   time.Duration `env:"BOTCHECK_TIMEOUT" envDefault:"10s"`
}

// Client verifies tokens over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a verification client.
func New(cfg Config) *Client {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// verifyResponse is the service's JSON response shape.
type verifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implements Verifier.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrMissingToken
	}

	form := url.Values{
		"secret":   {c.config.Secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if !result.Success {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(result.ErrorCodes, ", "))
	}
	if result.Score < c.config.MinScore {
		return fmt.Errorf("%w: score %.2f below minimum %.2f", ErrVerificationFailed, result.Score, c.config.MinScore)
	}

	return nil
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token, remoteIP string) error

// Verify implements Verifier.
func (f VerifierFunc) Verify(ctx context.Context, token, remoteIP string) error {
	return f(ctx, token, remoteIP)
}
