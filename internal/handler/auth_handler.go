package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexlearn/exam-engine/internal/metrics"
	"github.com/nexlearn/exam-engine/internal/middleware"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/response"
	"github.com/nexlearn/exam-engine/internal/service"
	"github.com/nexlearn/exam-engine/internal/validator"
	"github.com/rs/zerolog"
)

// AuthHandler handles the OTP login flow.
type AuthHandler struct {
	authService      *service.AuthService
	candidateService *service.CandidateService
	log              zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, candidateService *service.CandidateService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		candidateService: candidateService,
		log:              log.With().Str("component", "auth_handler").Logger(),
	}
}

// SendOTP godoc
// POST /api/v1/auth/send-otp
// Sends a one-time code to the given mobile number.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req model.SendOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	mobile := model.NormalizeMobile(req.Mobile)

	wait, err := h.authService.SendOTP(c.Request.Context(), mobile)
	if err != nil {
		if errors.Is(err, service.ErrOTPCooldown) {
			metrics.OTPRequests.WithLabelValues("send", "cooldown").Inc()
			response.RetryAfter(c, wait)
			response.Fail(c, http.StatusTooManyRequests, response.ErrOTPCooldown)
			return
		}
		metrics.OTPRequests.WithLabelValues("send", "error").Inc()
		h.log.Error().Err(err).Msg("Send OTP failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	metrics.OTPRequests.WithLabelValues("send", "ok").Inc()
	response.Success(c, http.StatusOK, model.SendOTPResponse{
		Success:           true,
		Message:           "OTP sent",
		RetryAfterSeconds: int(wait.Seconds()),
	})
}

// VerifyOTP godoc
// POST /api/v1/auth/verify-otp
// Exchanges a code for tokens. A number without a profile gets a profile
// ticket instead.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	mobile := model.NormalizeMobile(req.Mobile)
	ctx := c.Request.Context()

	if err := h.authService.VerifyOTP(ctx, mobile, req.OTP); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			metrics.OTPRequests.WithLabelValues("verify", "invalid").Inc()
			response.Fail(c, http.StatusUnauthorized, response.ErrOTPInvalid)
		case errors.Is(err, service.ErrOTPAttemptsExceeded):
			metrics.OTPRequests.WithLabelValues("verify", "locked").Inc()
			response.Fail(c, http.StatusTooManyRequests, response.ErrOTPAttemptsExceeded)
		default:
			h.log.Error().Err(err).Msg("Verify OTP failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}
	metrics.OTPRequests.WithLabelValues("verify", "ok").Inc()

	candidate, err := h.candidateService.FindByMobile(ctx, mobile)
	if err != nil {
		h.log.Error().Err(err).Msg("Candidate lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if candidate == nil {
		ticket, err := h.authService.IssueProfileTicket(mobile)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		response.Success(c, http.StatusOK, model.AuthResponse{
			Success:      true,
			Message:      "Create a profile to continue",
			Login:        false,
			ProfileToken: ticket,
		})
		return
	}

	h.login(c, candidate, "Logged in")
}

// CreateProfile godoc
// POST /api/v1/auth/create-profile
// Registers a verified mobile number and logs it in.
func (h *AuthHandler) CreateProfile(c *gin.Context) {
	var req model.CreateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ticket, err := h.authService.ValidateTokenOfType(req.ProfileToken, service.TokenTypeProfile)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	candidate, err := h.candidateService.CreateProfile(c.Request.Context(), ticket.Mobile, &req)
	if err != nil {
		if errors.Is(err, service.ErrProfileExists) {
			response.Fail(c, http.StatusConflict, response.ErrProfileExists)
			return
		}
		h.log.Error().Err(err).Msg("Create profile failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Int64("candidate_id", candidate.ID).Msg("Profile created")
	h.login(c, candidate, "Profile created")
}

// Refresh godoc
// POST /api/v1/auth/refresh
// Rotates the token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionRevoked):
			response.Fail(c, http.StatusUnauthorized, response.ErrSessionRevoked)
		case errors.Is(err, service.ErrInvalidToken):
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		default:
			h.log.Error().Err(err).Msg("Refresh failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, model.AuthResponse{
		Success:      true,
		Message:      "Token refreshed",
		Login:        true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the current login session on every device holding its tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *AuthHandler) login(c *gin.Context, candidate *model.Candidate, msg string) {
	pair, err := h.authService.IssueTokens(c.Request.Context(), candidate.ID, candidate.Mobile)
	if err != nil {
		h.log.Error().Err(err).Int64("candidate_id", candidate.ID).Msg("Issue tokens failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AuthResponse{
		Success:      true,
		Message:      msg,
		Login:        true,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Candidate:    candidate,
	})
}
