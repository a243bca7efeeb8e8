package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rfpflow/rfpflow-backend/internal/platform/logger"
	"github.com/rfpflow/rfpflow-backend/internal/realtime"
)

// Client is one open event stream, pinned to a single tenant.
type Client struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Outbound chan realtime.Event
	done     chan struct{}
}

// Hub fans tenant events out to connected SSE clients. It is fed by the
// bus forwarder; a tenant with no listeners costs nothing.
type Hub struct {
	mu      sync.RWMutex
	log     *logger.Logger
	clients map[uuid.UUID]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log.With("service", "SSEHub"),
		clients: make(map[uuid.UUID]map[*Client]bool),
	}
}

func (h *Hub) NewClient(tenantID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		TenantID: tenantID,
		Outbound: make(chan realtime.Event, 16),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	tenantClients, ok := h.clients[tenantID]
	if !ok {
		tenantClients = make(map[*Client]bool)
		h.clients[tenantID] = tenantClients
	}
	tenantClients[client] = true
	h.log.Debug("sse client connected", "client_id", client.ID, "tenant_id", tenantID)
	return client
}

func (h *Hub) CloseClient(client *Client) {
	h.mu.Lock()
	if tenantClients, ok := h.clients[client.TenantID]; ok {
		delete(tenantClients, client)
		if len(tenantClients) == 0 {
			delete(h.clients, client.TenantID)
		}
	}
	h.mu.Unlock()
	close(client.done)
	h.log.Debug("sse client disconnected", "client_id", client.ID)
}

// Broadcast delivers an event to every client of its tenant. Slow
// clients lose events rather than stall the hub; the stream is
// best-effort and consumers re-fetch.
func (h *Hub) Broadcast(event realtime.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[event.TenantID] {
		select {
		case client.Outbound <- event:
		default:
			h.log.Warn("dropping event, client buffer full", "client_id", client.ID)
		}
	}
}

// ServeHTTP streams the client's events until the request context ends.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event := <-client.Outbound:
			raw, err := json.Marshal(event)
			if err != nil {
				h.log.Warn("event marshal failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, raw)
			flusher.Flush()
		}
	}
}
