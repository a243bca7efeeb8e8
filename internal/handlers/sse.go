package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpflow/rfpflow-backend/internal/middleware"
	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/sse"
)

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// GET /api/events
// Streams the tenant's status events until the client disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "tenant", errMissingTenant)
		return
	}
	client := h.hub.NewClient(tenantID)
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
