package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"archgraph-backend/application/events"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

// Client binds one WebSocket connection to one notifier subscription. The
// connection is outbound-only from the server's perspective; inbound frames
// are read solely to service pongs and detect the close.
type Client struct {
	sub    *events.Subscription
	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger
}

func newClient(sub *events.Subscription, hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		sub:  sub,
		hub:  hub,
		conn: conn,
		logger: logger.With(
			zap.String("observerID", string(sub.ID())),
		),
	}
}

func (c *Client) start() {
	c.hub.track(c)
	go c.writePump()
	go c.readPump()
}

// readPump drains the connection until the peer closes it, then detaches
// the observer.
func (c *Client) readPump() {
	defer func() {
		c.sub.Detach()
		c.conn.Close()
		c.hub.untrack(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards change events from the subscription to the peer. A
// closed subscription channel means the observer was detached or dropped
// for falling behind; either way the connection is closed and the client
// must reconnect and resync.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.sub.Events():
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "resync required"))
				return
			}

			payload, err := json.Marshal(evt)
			if err != nil {
				c.logger.Error("failed to marshal change event",
					zap.Uint64("seq", evt.Seq),
					zap.Error(err))
				continue
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
