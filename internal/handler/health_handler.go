package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const readinessTimeout = 2 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// QueueDepth reports how many items wait in the result queue.
type QueueDepth func(ctx context.Context) (int64, error)

// HealthHandler answers readiness checks.
type HealthHandler struct {
	checks    map[string]Check
	queue     QueueDepth
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a HealthHandler. queue may be nil.
func NewHealthHandler(checks map[string]Check, queue QueueDepth, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		queue:     queue,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

type readiness struct {
	Status      string            `json:"status"`
	Uptime      string            `json:"uptime"`
	Goroutines  int               `json:"goroutines"`
	Checks      map[string]string `json:"checks"`
	QueueLength *int64            `json:"queue_length,omitempty"`
}

// Ready godoc
// GET /health/ready
// Pings every dependency. Any failure answers 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	out := readiness{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			out.Checks[name] = "down"
			out.Status = "degraded"
			continue
		}
		out.Checks[name] = "up"
	}

	if h.queue != nil {
		if n, err := h.queue(ctx); err == nil {
			out.QueueLength = &n
		}
	}

	status := http.StatusOK
	if out.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, out)
}
