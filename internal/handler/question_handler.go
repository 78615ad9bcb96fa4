package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/middleware"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/response"
	"github.com/rs/zerolog"
)

// QuestionHandler serves the active question set.
type QuestionHandler struct {
	source         examsession.QuestionSource
	serveAnswerKey bool
	log            zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler. serveAnswerKey enables
// the Practice endpoint.
func NewQuestionHandler(source examsession.QuestionSource, serveAnswerKey bool, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		source:         source,
		serveAnswerKey: serveAnswerKey,
		log:            log.With().Str("component", "question_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/question/list
// Returns the active set without answer keys.
func (h *QuestionHandler) List(c *gin.Context) {
	set, err := h.source.LoadQuestions(c.Request.Context(), middleware.GetToken(c))
	if err != nil {
		failLoad(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, model.NewQuestionListResponse(set))
}

// Practice godoc
// GET /api/v1/question/practice
// Returns the active set with its answer key for locally scored practice.
// Answers 404 PRACTICE_DISABLED unless the server opted in.
func (h *QuestionHandler) Practice(c *gin.Context) {
	if !h.serveAnswerKey {
		response.Fail(c, http.StatusNotFound, response.ErrPracticeOff)
		return
	}

	set, err := h.source.LoadQuestions(c.Request.Context(), middleware.GetToken(c))
	if err != nil {
		failLoad(c, h.log, err)
		return
	}

	h.log.Info().Str("set_id", set.SetID).Msg("Served practice set with answer key")
	response.Success(c, http.StatusOK, model.NewPracticeSetResponse(set))
}
