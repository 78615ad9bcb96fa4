package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "exam_sessions_active",
		Help: "Session streams currently open",
	})

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_sessions_finished_total",
			Help: "Session streams that ended, by outcome",
		},
		[]string{"outcome"},
	)

	SessionScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "exam_session_score",
		Help:    "Scores of submitted sessions",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	ExpiredBeforeLast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "exam_sessions_expired_before_last_total",
		Help: "Timer expiries observed while the candidate was not on the last question",
	})

	OTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_otp_requests_total",
			Help: "OTP send and verify calls, by result",
		},
		[]string{"op", "result"},
	)

	AttemptsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attempts_persisted_total",
			Help: "Attempts written by the result worker, by path",
		},
		[]string{"path"},
	)

	AttemptsDeadLettered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "attempts_dead_lettered_total",
		Help: "Attempts parked after repeated insert failures",
	})
)

// Session outcomes for SessionsFinished.
const (
	OutcomeSubmitted = "submitted"
	OutcomeAbandoned = "abandoned"
	OutcomeFailed    = "failed"
)

// Init registers every collector with the default registry.
func Init() {
	Register(prometheus.DefaultRegisterer)
}

// Register registers every collector with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestCounter,
		RequestDuration,
		SessionsActive,
		SessionsFinished,
		SessionScore,
		ExpiredBeforeLast,
		OTPRequests,
		AttemptsPersisted,
		AttemptsDeadLettered,
	)
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
