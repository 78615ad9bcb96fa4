package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexlearn/exam-engine/internal/middleware"
	"github.com/nexlearn/exam-engine/internal/repository"
	"github.com/nexlearn/exam-engine/internal/response"
	"github.com/nexlearn/exam-engine/internal/service"
	"github.com/rs/zerolog"
)

// CandidateHandler serves the signed-in candidate's own data.
type CandidateHandler struct {
	candidateService *service.CandidateService
	attemptService   *service.AttemptService
	log              zerolog.Logger
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService *service.CandidateService, attemptService *service.AttemptService, log zerolog.Logger) *CandidateHandler {
	return &CandidateHandler{
		candidateService: candidateService,
		attemptService:   attemptService,
		log:              log.With().Str("component", "candidate_handler").Logger(),
	}
}

// Me godoc
// GET /api/v1/candidate/me
func (h *CandidateHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	candidate, err := h.candidateService.GetByID(c.Request.Context(), claims.CandidateID)
	if err != nil {
		if errors.Is(err, repository.ErrCandidateNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrProfileRequired)
			return
		}
		h.log.Error().Err(err).Msg("Get candidate failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// Results godoc
// GET /api/v1/candidate/results
// Lists the candidate's most recent submitted sessions, newest first.
func (h *CandidateHandler) Results(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListResults(c.Request.Context(), claims.CandidateID)
	if err != nil {
		h.log.Error().Err(err).Int64("candidate_id", claims.CandidateID).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": attempts}, &response.Pagination{
		Limit:    service.ResultsLimit,
		Returned: len(attempts),
	})
}
