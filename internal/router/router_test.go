package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/handler"
	"github.com/nexlearn/exam-engine/internal/service"
	"github.com/rs/zerolog"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		GinMode:          gin.TestMode,
		JWTSecret:        "router-test",
		ProfileTicketTTL: time.Minute,
		OTPRatePerMinute: 10,
		MediaDir:         t.TempDir(),
	}
	auth := service.NewAuthService(cfg, nil, nil, zerolog.Nop())
	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(auth, nil, zerolog.Nop()),
		Candidate: handler.NewCandidateHandler(nil, nil, zerolog.Nop()),
		Question:  handler.NewQuestionHandler(nil, false, zerolog.Nop()),
		WS:        handler.NewWSHandler(nil, nil, zerolog.Nop(), nil, 10),
		Health:    handler.NewHealthHandler(nil, nil, zerolog.Nop()),
	}
	return SetupRouter(ctx, auth, handlers, cfg)
}

func TestPublicEndpoints(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, w.Code)
		}
	}
}

func TestProtectedEndpointsNeedToken(t *testing.T) {
	r := testRouter(t)

	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/candidate/me"},
		{http.MethodGet, "/api/v1/candidate/results"},
		{http.MethodGet, "/api/v1/question/list"},
		{http.MethodGet, "/api/v1/question/practice"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodGet, "/ws/v1/session"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", tt.method, tt.path, w.Code)
		}
	}
}

func TestSendOTPValidatesBeforeTouchingRedis(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/send-otp", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
}
