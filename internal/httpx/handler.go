// Package httpx exposes the contact-form HTTP surface: the submission
// endpoint and the queue status endpoint, with their JSON envelopes and
// the error-code taxonomy visible to clients.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/contactform/internal/contact"
	"github.com/dmitrymomot/contactform/internal/queue"
	"github.com/dmitrymomot/contactform/pkg/botcheck"
	"github.com/dmitrymomot/contactform/pkg/id"
	"github.com/dmitrymomot/contactform/pkg/ratelimit"
)

// Error codes returned to clients. Each maps to exactly one rejection
// stage; all are terminal for the request.
const (
	codeRateLimited   = "rate_limited"
	codeMissingToken  = "missing_verification_token"
	codeVerifyFailed  = "verification_failed"
	codeMissingFields = "missing_fields"
	codeSpamDetected  = "spam_detected"
	codeFieldTooLong  = "field_too_long"
	codeInvalidEmail  = "invalid_email"
	codeInternalError = "internal_error"
)

// maxBodyBytes caps the request body size; the largest legitimate
// payload (a 5000-character message plus the other fields) fits with
// ample room for multi-byte characters.
const maxBodyBytes = 64 << 10

// ContactHandler orchestrates the submission pipeline: rate limit, body
// decode, bot verification, sanitize, validate, enqueue. It returns as
// soon as the job is accepted; delivery happens asynchronously.
type ContactHandler struct {
	limiter  *ratelimit.Limiter
	verifier botcheck.Verifier
	queue    *queue.Queue
	logger   *slog.Logger

	// bypass short-circuits enqueueing in non-production environments:
	// the accepted submission is logged instead of queued.
	bypass bool
}

// ContactHandlerConfig groups the handler's dependencies.
type ContactHandlerConfig struct {
	Limiter  *ratelimit.Limiter
	Verifier botcheck.Verifier
	Queue    *queue.Queue
	Logger   *slog.Logger
	Bypass   bool
}

// NewContactHandler creates the handler with injected dependencies.
func NewContactHandler(cfg ContactHandlerConfig) *ContactHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		limiter:  cfg.Limiter,
		verifier: cfg.Verifier,
		queue:    cfg.Queue,
		logger:   logger.With(slog.String("component", "contact_handler")),
		bypass:   cfg.Bypass,
	}
}

// submitResponse is the success envelope for an accepted submission.
type submitResponse struct {
	Success      bool   `json:"success"`
	SubmissionID string `json:"submissionId"`
	Message      string `json:"message"`
	ResponseTime int64  `json:"responseTime"` // milliseconds
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	clientIP := clientIP(r)
	log := h.logger.With(slog.String("client_ip", clientIP))

	if !h.limiter.Allow(clientIP) {
		log.Warn("submission rate limited", elapsed(start))
		writeError(w, http.StatusTooManyRequests, codeRateLimited,
			"too many requests, please try again later")
		return
	}

	// Bound the body before decoding; field-level length caps only
	// apply after a full decode.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var input contact.Input
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&input); err != nil {
		log.Error("malformed request body", slog.Any("error", err), elapsed(start))
		writeError(w, http.StatusInternalServerError, codeInternalError,
			"failed to process request")
		return
	}

	if input.VerificationToken == "" {
		log.Warn("submission missing verification token", elapsed(start))
		writeError(w, http.StatusBadRequest, codeMissingToken,
			"verification token is required")
		return
	}
	if err := h.verifier.Verify(r.Context(), input.VerificationToken, clientIP); err != nil {
		// Fail closed: service errors reject the same as low scores.
		log.Warn("bot verification rejected", slog.Any("error", err), elapsed(start))
		writeError(w, http.StatusBadRequest, codeVerifyFailed,
			"verification failed, please try again")
		return
	}

	sub := input.Sanitize(clientIP, start)

	if err := sub.Validate(); err != nil {
		h.rejectValidation(w, log, sub, err, start)
		return
	}

	if h.bypass {
		log.Info("development bypass: submission accepted without enqueue",
			slog.String("from", sub.Email),
			slog.String("subject", sub.Subject),
			elapsed(start),
		)
		writeJSON(w, http.StatusOK, submitResponse{
			Success:      true,
			SubmissionID: id.New(),
			Message:      "message accepted",
			ResponseTime: time.Since(start).Milliseconds(),
		})
		return
	}

	jobID := h.queue.Enqueue(sub)

	log.Info("submission accepted",
		slog.String("submission_id", jobID),
		slog.String("from", sub.Email),
		elapsed(start),
	)

	writeJSON(w, http.StatusOK, submitResponse{
		Success:      true,
		SubmissionID: jobID,
		Message:      "message accepted",
		ResponseTime: time.Since(start).Milliseconds(),
	})
}

// rejectValidation maps a validation error to its error code. The spam
// rejection logs the match count but never the matched patterns.
func (h *ContactHandler) rejectValidation(w http.ResponseWriter, log *slog.Logger, sub contact.Submission, err error, start time.Time) {
	switch {
	case errors.Is(err, contact.ErrMissingFields):
		log.Warn("submission missing required fields", elapsed(start))
		writeError(w, http.StatusBadRequest, codeMissingFields, contact.ErrMissingFields.Error())
	case errors.Is(err, contact.ErrSpamDetected):
		log.Warn("submission rejected as spam",
			slog.Int("matched_patterns", sub.SpamMatches()),
			elapsed(start),
		)
		writeError(w, http.StatusBadRequest, codeSpamDetected,
			"message could not be accepted")
	case errors.Is(err, contact.ErrFieldTooLong):
		log.Warn("submission field too long", slog.Any("error", err), elapsed(start))
		writeError(w, http.StatusBadRequest, codeFieldTooLong, err.Error())
	case errors.Is(err, contact.ErrInvalidEmail):
		log.Warn("submission email invalid", elapsed(start))
		writeError(w, http.StatusBadRequest, codeInvalidEmail, contact.ErrInvalidEmail.Error())
	default:
		log.Error("submission validation failed", slog.Any("error", err), elapsed(start))
		writeError(w, http.StatusInternalServerError, codeInternalError,
			"failed to process request")
	}
}

func elapsed(start time.Time) slog.Attr {
	return slog.Int64("elapsed_ms", time.Since(start).Milliseconds())
}

// clientIP extracts the client address. The RealIP middleware has
// already folded X-Forwarded-For / X-Real-IP into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
