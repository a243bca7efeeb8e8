package realtime

import (
	"fmt"

	"github.com/google/uuid"
)

type EventType string

const (
	EventDocumentStatus EventType = "document_status"
	EventQuestionStatus EventType = "question_status"
	EventExportStatus   EventType = "export_status"
	EventQAPairStatus   EventType = "qa_pair_status"
)

// Event is the status-change notification published on the owning
// tenant's channel. Events are best-effort: consumers re-fetch
// periodically and must never treat the stream as the source of truth.
type Event struct {
	Type      EventType `json:"type"`
	TenantID  uuid.UUID `json:"tenant_id"`
	EntityID  uuid.UUID `json:"entity_id"`
	NewStatus string    `json:"new_status"`
}

// TenantChannel is the pub/sub channel for one tenant's events.
func TenantChannel(tenantID uuid.UUID) string {
	return fmt.Sprintf("rfpflow:events:tenant:%s", tenantID)
}

// TenantChannelPattern matches every tenant channel, for the forwarder
// that fans events out to SSE subscribers.
const TenantChannelPattern = "rfpflow:events:tenant:*"
