package sse

import (
	"testing"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
)

func TestBroadcastStaysWithinTenant(t *testing.T) {
	hub := NewHub(logger.NewNop())
	tenantA, tenantB := uuid.New(), uuid.New()
	clientA := hub.NewClient(tenantA)
	clientB := hub.NewClient(tenantB)
	defer hub.CloseClient(clientA)
	defer hub.CloseClient(clientB)

	event := realtime.Event{
		Type:      realtime.EventDocumentStatus,
		TenantID:  tenantA,
		EntityID:  uuid.New(),
		NewStatus: "processed",
	}
	hub.Broadcast(event)

	select {
	case got := <-clientA.Outbound:
		if got.EntityID != event.EntityID {
			t.Fatalf("entity_id: got=%s", got.EntityID)
		}
	default:
		t.Fatalf("tenant A client received nothing")
	}
	select {
	case got := <-clientB.Outbound:
		t.Fatalf("tenant B client must not receive tenant A events, got %+v", got)
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.NewNop())
	tenantID := uuid.New()
	client := hub.NewClient(tenantID)
	defer hub.CloseClient(client)

	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(realtime.Event{
			Type:      realtime.EventQuestionStatus,
			TenantID:  tenantID,
			EntityID:  uuid.New(),
			NewStatus: "processing",
		})
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("buffer: want=%d got=%d", cap(client.Outbound), len(client.Outbound))
	}
}
