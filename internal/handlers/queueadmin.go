package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/queue"
)

// QueueAdminHandler exposes queue depth and a drain control for
// operators. These routes are not tenant-scoped.
type QueueAdminHandler struct {
	log  *logger.Logger
	jobs queue.Queue
}

func NewQueueAdminHandler(log *logger.Logger, jobs queue.Queue) *QueueAdminHandler {
	return &QueueAdminHandler{
		log:  log.With("handler", "QueueAdminHandler"),
		jobs: jobs,
	}
}

var knownQueues = map[string]bool{
	queue.QueueDocumentProcessing: true,
	queue.QueueQuestionProcessing: true,
	queue.QueueExportJobs:         true,
	queue.QueueQAPairProcessing:   true,
}

// GET /api/admin/queues
func (h *QueueAdminHandler) Lengths(c *gin.Context) {
	ctx := c.Request.Context()
	lengths := map[string]int64{}
	for name := range knownQueues {
		n, err := h.jobs.Length(ctx, name)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		lengths[name] = n
	}
	RespondOK(c, lengths)
}

// DELETE /api/admin/queues/:name
func (h *QueueAdminHandler) Clear(c *gin.Context) {
	name := c.Param("name")
	if !knownQueues[name] {
		RespondError(c, http.StatusNotFound, "unknown_queue", fmt.Errorf("unknown queue %q", name))
		return
	}
	if err := h.jobs.Clear(c.Request.Context(), name); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.log.Warn("queue cleared", "queue", name)
	RespondOK(c, gin.H{"cleared": name})
}
