package realtime

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
)

type capturingBus struct {
	events []Event
	fail   bool
}

func (b *capturingBus) Publish(_ context.Context, event Event) error {
	if b.fail {
		return fmt.Errorf("bus down")
	}
	b.events = append(b.events, event)
	return nil
}

func TestNotifierPublishesStatusEvents(t *testing.T) {
	bus := &capturingBus{}
	n := NewNotifier(logger.NewNop(), bus)
	ctx := context.Background()

	tenantID := uuid.New()
	docID := uuid.New()
	n.DocumentStatus(ctx, tenantID, docID, "processed")

	if len(bus.events) != 1 {
		t.Fatalf("events: want=1 got=%d", len(bus.events))
	}
	e := bus.events[0]
	if e.Type != EventDocumentStatus {
		t.Fatalf("type: got=%q", e.Type)
	}
	if e.TenantID != tenantID || e.EntityID != docID {
		t.Fatalf("ids: got tenant=%v entity=%v", e.TenantID, e.EntityID)
	}
	if e.NewStatus != "processed" {
		t.Fatalf("new_status: got=%q", e.NewStatus)
	}
}

func TestNotifierSwallowsPublishFailure(t *testing.T) {
	n := NewNotifier(logger.NewNop(), &capturingBus{fail: true})
	// must not panic or propagate
	n.QuestionStatus(context.Background(), uuid.New(), uuid.New(), "error")
}

func TestTenantChannelScopedByTenant(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if TenantChannel(a) == TenantChannel(b) {
		t.Fatalf("channels must differ per tenant")
	}
}
