package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/metrics"
	"github.com/nexlearn/exam-engine/internal/middleware"
	"github.com/nexlearn/exam-engine/internal/response"
	ws "github.com/nexlearn/exam-engine/internal/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SinkProvider hands out the submission sink for a candidate.
// *service.AttemptService satisfies it.
type SinkProvider interface {
	SinkFor(candidateID int64) examsession.SubmissionSink
}

// WSHandler runs exam sessions over WebSocket. Each connection owns one
// session runner; the server keeps the clock and the ledger.
type WSHandler struct {
	source   examsession.QuestionSource
	sinks    SinkProvider
	log      zerolog.Logger
	upgrader websocket.Upgrader
	msgRate  rate.Limit
	msgBurst int
	newTimer func() *examsession.Timer
	pongWait time.Duration
}

// NewWSHandler creates a new WSHandler. messagesPerSecond caps client
// messages per connection.
func NewWSHandler(source examsession.QuestionSource, sinks SinkProvider, log zerolog.Logger, allowedOrigins []string, messagesPerSecond int) *WSHandler {
	if messagesPerSecond < 1 {
		messagesPerSecond = 1
	}
	return &WSHandler{
		source:   source,
		sinks:    sinks,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
		msgRate:  rate.Limit(messagesPerSecond),
		msgBurst: messagesPerSecond,
		newTimer: func() *examsession.Timer { return examsession.NewTimer() },
		pongWait: ws.DefaultPongWait,
	}
}

// SessionStream godoc
// WS /ws/v1/session?token=...
// Loads the active question set and streams the session until it is
// submitted or the client goes away.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	set, err := h.source.LoadQuestions(c.Request.Context(), middleware.GetToken(c))
	if err != nil {
		failLoad(c, h.log, err)
		return
	}
	sess, err := examsession.New(set)
	if err != nil {
		failLoad(c, h.log, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw, ws.WithPongWait(h.pongWait))
	defer conn.Close()

	sessionID := uuid.New().String()
	wsLog := h.log.With().
		Int64("candidate_id", claims.CandidateID).
		Str("session_id", sessionID).
		Str("set_id", set.SetID).
		Logger()

	runner := examsession.NewRunner(sessionID, sess, h.newTimer(), h.sinks.SinkFor(claims.CandidateID),
		examsession.WithLogger(wsLog),
		examsession.WithObserver(func(u examsession.Update) {
			if u.Outcome.Expired && !u.Outcome.AwaitingConfirmation {
				metrics.ExpiredBeforeLast.Inc()
			}
			if u.Err != nil {
				code := sessionErrCode(u.Err)
				_ = conn.WriteError(string(code), response.GetMessage(code))
			}
			if err := conn.WriteTyped(ws.NewSnapshot(u)); err != nil {
				wsLog.Debug().Err(err).Msg("Snapshot write failed")
			}
		}),
	)

	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	wsLog.Info().Int("questions", sess.Len()).Msg("Candidate connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.KeepAlive(ctx)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		h.finish(ctx, conn, runner, wsLog)
	}()

	h.readLoop(ctx, conn, runner, wsLog)
	cancel()
	<-finished
}

func (h *WSHandler) readLoop(ctx context.Context, conn *ws.Conn, runner *examsession.Runner, wsLog zerolog.Logger) {
	limiter := rate.NewLimiter(h.msgRate, h.msgBurst)

	for {
		var msg ws.Request
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if !limiter.Allow() {
			_ = conn.WriteError(string(response.ErrRateLimitExceeded), response.GetMessage(response.ErrRateLimitExceeded))
			continue
		}

		if msg.Action == ws.ActionPing {
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}

		ev, err := msg.ToEvent()
		if err != nil {
			code := sessionErrCode(err)
			_ = conn.WriteError(string(code), response.GetMessage(code))
			continue
		}
		if err := runner.Send(ctx, ev); err != nil {
			return
		}
	}
}

// finish runs the session to its end and reports the outcome.
func (h *WSHandler) finish(ctx context.Context, conn *ws.Conn, runner *examsession.Runner, wsLog zerolog.Logger) {
	res, err := runner.Run(ctx)
	switch {
	case errors.Is(err, examsession.ErrSessionClosed):
		metrics.SessionsFinished.WithLabelValues(metrics.OutcomeAbandoned).Inc()
		wsLog.Info().Msg("Session abandoned before submission")
		return
	case err != nil:
		metrics.SessionsFinished.WithLabelValues(metrics.OutcomeFailed).Inc()
		_ = conn.WriteError(string(response.ErrSubmitFailed), response.GetMessage(response.ErrSubmitFailed))
	default:
		metrics.SessionsFinished.WithLabelValues(metrics.OutcomeSubmitted).Inc()
		metrics.SessionScore.Observe(res.Score)
	}

	_ = conn.WriteTyped(ws.ResultResponse{
		Event:     ws.EventResult,
		SessionID: runner.ID(),
		Saved:     err == nil,
		Data:      res,
	})
	_ = conn.CloseNormal("session submitted")
}

func failLoad(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, examsession.ErrNotAuthenticated):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionRevoked)
	case errors.Is(err, examsession.ErrLoadFailure):
		log.Warn().Err(err).Msg("No question set to serve")
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSet)
	default:
		log.Error().Err(err).Msg("Load questions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func sessionErrCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, examsession.ErrUnknownOption):
		return response.ErrUnknownOption
	case errors.Is(err, examsession.ErrIndexOutOfRange):
		return response.ErrIndexOutOfRange
	case errors.Is(err, examsession.ErrNoSelection):
		return response.ErrNoSelection
	case errors.Is(err, examsession.ErrInvalidTransition):
		return response.ErrInvalidTransition
	case errors.Is(err, ws.ErrUnknownAction):
		return response.ErrInvalidAction
	default:
		return response.ErrInternal
	}
}
