package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/contactform/pkg/logger"
)

// NewRouter assembles the HTTP surface: standard middleware plus the
// contact and status routes.
func NewRouter(contactHandler *ContactHandler, statusHandler *StatusHandler) http.Handler {
	r := chi.NewRouter()

	middleware.RequestIDHeader = "X-Request-ID"
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/contact", func(r chi.Router) {
		r.Post("/", contactHandler.Submit)
		r.Get("/status", statusHandler.Status)
	})

	return r
}

// requestID assigns a UUID request ID, honoring an inbound X-Request-ID
// so upstream tracing IDs survive.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(middleware.RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, reqID)
		w.Header().Set(middleware.RequestIDHeader, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDExtractor returns a logger.ContextExtractor that adds
// "request_id" to every log entry written with a request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := middleware.GetReqID(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
