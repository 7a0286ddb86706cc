package sse

import (
	"sync"

	"github.com/zephyra-labs/tradeledger/internal/domain/notification"
)

// Hub tracks SSE subscribers keyed by client ID. Each client watches one
// party address; fan-out matches recipients against that address.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*notification.SSEClient)}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToRecipients delivers the message to every client subscribed to
// one of the recipient addresses. Clients with a full channel are skipped;
// the history endpoint stays authoritative.
func (h *Hub) BroadcastToRecipients(recipients []string, message *notification.SSEMessage) {
	targets := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		targets[r] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if _, ok := targets[c.Address]; !ok {
			continue
		}
		trySend(c, message)
	}
}

func trySend(c *notification.SSEClient, message *notification.SSEMessage) {
	select {
	case c.MessageChan <- message:
	default:
	}
}
