package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/services"
)

type DocumentHandler struct {
	log  *logger.Logger
	docs *services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, docs *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:  log.With("handler", "DocumentHandler"),
		docs: docs,
	}
}

// POST /api/documents
// Multipart upload. A deal_id form field marks the file as a deal
// document; without one it enters the knowledge base.
func (h *DocumentHandler) Upload(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}

	projectID, err := uuid.Parse(c.PostForm("project_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var dealID *uuid.UUID
	if raw := c.PostForm("deal_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		dealID = &parsed
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	defer file.Close()

	doc, err := h.docs.Upload(c.Request.Context(), services.UploadParams{
		TenantID:  tenantID,
		ProjectID: projectID,
		DealID:    dealID,
		Filename:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		Content:   file,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// POST /api/documents/:id/reprocess
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	doc, err := h.docs.Reprocess(c.Request.Context(), tenantID, documentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	doc, err := h.docs.Get(c.Request.Context(), tenantID, documentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, doc)
}

// GET /api/documents?project_id=...&deal_id=...
// Exactly one of project_id or deal_id selects the listing.
func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	ctx := c.Request.Context()

	if raw := c.Query("deal_id"); raw != "" {
		dealID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		docs, err := h.docs.ListByDeal(ctx, tenantID, dealID)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, docs)
		return
	}

	projectID, err := uuid.Parse(c.Query("project_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	docs, err := h.docs.ListByProject(ctx, tenantID, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, docs)
}
