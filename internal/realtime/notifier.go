package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

// Publisher is what the Notifier needs from the bus; the bus package
// depends on realtime for the event types, so the interface lives here.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Notifier emits status-change events. Publish failures are logged and
// swallowed: processing must never fail because a notification did.
type Notifier struct {
	log *logger.Logger
	bus Publisher
}

func NewNotifier(log *logger.Logger, bus Publisher) *Notifier {
	return &Notifier{log: log.With("service", "Notifier"), bus: bus}
}

func (n *Notifier) publish(ctx context.Context, event Event) {
	if n == nil || n.bus == nil {
		return
	}
	if err := n.bus.Publish(ctx, event); err != nil {
		n.log.Warn("event publish failed",
			"type", event.Type, "entity_id", event.EntityID, "error", err)
	}
}

func (n *Notifier) DocumentStatus(ctx context.Context, tenantID, documentID uuid.UUID, status string) {
	n.publish(ctx, Event{Type: EventDocumentStatus, TenantID: tenantID, EntityID: documentID, NewStatus: status})
}

func (n *Notifier) QuestionStatus(ctx context.Context, tenantID, questionID uuid.UUID, status string) {
	n.publish(ctx, Event{Type: EventQuestionStatus, TenantID: tenantID, EntityID: questionID, NewStatus: status})
}

func (n *Notifier) ExportStatus(ctx context.Context, tenantID, exportJobID uuid.UUID, status string) {
	n.publish(ctx, Event{Type: EventExportStatus, TenantID: tenantID, EntityID: exportJobID, NewStatus: status})
}

func (n *Notifier) QAPairStatus(ctx context.Context, tenantID, pairID uuid.UUID, status string) {
	n.publish(ctx, Event{Type: EventQAPairStatus, TenantID: tenantID, EntityID: pairID, NewStatus: status})
}
