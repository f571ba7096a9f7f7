// Package websocket streams change events to connected observers. Each
// connection attaches one observer to the notifier; the observer's bounded
// queue and drop-on-overflow semantics live in the notifier, not here.
package websocket

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"archgraph-backend/application/events"
)

// Hub owns the WebSocket upgrade path and tracks live connections so they
// can be closed together on shutdown.
type Hub struct {
	notifier *events.Notifier
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHub creates a WebSocket hub bound to the notifier.
func NewHub(notifier *events.Notifier, logger *zap.Logger) *Hub {
	return &Hub{
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin checks belong to the deployment's edge; the service
			// itself accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// ServeWS upgrades the request and attaches the caller as an observer. The
// observer id comes from the observerId query parameter; a missing id gets
// a generated one, returned to the peer via the X-Observer-ID header on the
// upgrade response.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	observerID := r.URL.Query().Get("observerId")
	if observerID == "" {
		observerID = uuid.New().String()
	}

	header := http.Header{}
	header.Set("X-Observer-ID", observerID)

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.notifier.Attach(events.ObserverID(observerID))
	client := newClient(sub, h, conn, h.logger)
	client.start()

	h.logger.Info("observer connected",
		zap.String("observerID", observerID),
		zap.String("remoteAddr", r.RemoteAddr))
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.sub.Detach()
		c.conn.Close()
	}
	h.logger.Info("websocket hub stopped", zap.Int("connections_closed", len(clients)))
}

func (h *Hub) track(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) untrack(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
