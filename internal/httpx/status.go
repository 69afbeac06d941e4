package httpx

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/dmitrymomot/contactform/internal/queue"
)

// StatusHandler serves read-only queue introspection for health checks.
type StatusHandler struct {
	queue     *queue.Queue
	logger    *slog.Logger
	startedAt time.Time
}

// NewStatusHandler creates the status handler.
func NewStatusHandler(q *queue.Queue, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		queue:     q,
		logger:    logger.With(slog.String("component", "status_handler")),
		startedAt: time.Now(),
	}
}

type statusResponse struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Queue     queueStatus  `json:"queue"`
	System    systemStatus `json:"system"`
}

type queueStatus struct {
	Size         int   `json:"size"`
	Processing   bool  `json:"processing"`
	OldestJobAge int64 `json:"oldestJobAge"` // milliseconds, 0 when empty
}

type systemStatus struct {
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

// Status handles GET /contact/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.queue.Status()

	h.logger.Debug("status requested",
		slog.Int("queue_size", snap.Size),
		slog.Bool("processing", snap.Processing),
	)

	writeJSON(w, http.StatusOK, statusResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Queue: queueStatus{
			Size:         snap.Size,
			Processing:   snap.Processing,
			OldestJobAge: snap.OldestJobAge.Milliseconds(),
		},
		System: systemStatus{
			Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
			Goroutines: runtime.NumGoroutine(),
		},
	})
}
