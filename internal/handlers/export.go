package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/blobstore"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/services"
	"github.com/rfpflow/rfpflow-backend/internal/types"
)

type ExportHandler struct {
	log     *logger.Logger
	exports *services.ExportService
	blobs   *blobstore.Store
}

func NewExportHandler(log *logger.Logger, exports *services.ExportService, blobs *blobstore.Store) *ExportHandler {
	return &ExportHandler{
		log:     log.With("handler", "ExportHandler"),
		exports: exports,
		blobs:   blobs,
	}
}

// POST /api/exports
func (h *ExportHandler) Trigger(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	var req struct {
		DocumentID uuid.UUID `json:"document_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	job, err := h.exports.Trigger(c.Request.Context(), tenantID, req.DocumentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GET /api/exports/:id
func (h *ExportHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	job, err := h.exports.Get(c.Request.Context(), tenantID, jobID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, job)
}

// GET /api/exports/:id/download
func (h *ExportHandler) Download(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	job, err := h.exports.Get(c.Request.Context(), tenantID, jobID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if job.Status != types.ExportJobStatusCompleted || job.OutputReference == "" {
		RespondError(c, http.StatusConflict, "not_ready", fmt.Errorf("export %s is %s", jobID, job.Status))
		return
	}
	path, err := h.blobs.Path(job.OutputReference)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.FileAttachment(path, job.OutputFilename)
}
