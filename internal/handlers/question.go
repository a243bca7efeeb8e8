package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/services"
)

var errMissingTenant = errors.New("tenant not resolved")

type QuestionHandler struct {
	log       *logger.Logger
	questions *services.QuestionService
}

func NewQuestionHandler(log *logger.Logger, questions *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		log:       log.With("handler", "QuestionHandler"),
		questions: questions,
	}
}

// GET /api/questions?deal_id=...
func (h *QuestionHandler) ListByDeal(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	dealID, err := uuid.Parse(c.Query("deal_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	questions, err := h.questions.ListByDeal(c.Request.Context(), tenantID, dealID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, questions)
}

// GET /api/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	question, err := h.questions.Get(c.Request.Context(), tenantID, questionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, question)
}

// PUT /api/questions/:id/answer
func (h *QuestionHandler) EditAnswer(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req struct {
		AnswerText string `json:"answer_text"`
		Editor     string `json:"editor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	question, err := h.questions.EditAnswer(c.Request.Context(), tenantID, questionID, req.AnswerText, req.Editor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, question)
}

// GET /api/questions/:id/history
func (h *QuestionHandler) History(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	history, err := h.questions.History(c.Request.Context(), tenantID, questionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}
