package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/services"
)

type QAPairHandler struct {
	log   *logger.Logger
	pairs *services.QAPairService
}

func NewQAPairHandler(log *logger.Logger, pairs *services.QAPairService) *QAPairHandler {
	return &QAPairHandler{
		log:   log.With("handler", "QAPairHandler"),
		pairs: pairs,
	}
}

// POST /api/qa-pairs
func (h *QAPairHandler) Create(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	var req struct {
		ProjectID uuid.UUID `json:"project_id"`
		Question  string    `json:"question"`
		Answer    string    `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	pair, err := h.pairs.Create(c.Request.Context(), tenantID, req.ProjectID, req.Question, req.Answer)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

// PUT /api/qa-pairs/:id
func (h *QAPairHandler) Update(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	pairID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	pair, err := h.pairs.Update(c.Request.Context(), tenantID, pairID, req.Question, req.Answer)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pair)
}

// GET /api/qa-pairs?project_id=...
func (h *QAPairHandler) ListByProject(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	pairs, err := h.pairs.ListByProject(c.Request.Context(), tenantID, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, pairs)
}
