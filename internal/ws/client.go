package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pairchat-service/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one websocket connection and the subscriptions it holds.
// subs is guarded by the hub's lock.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	info   ConnInfo
	send   chan []byte
	subs   map[string]*subscription
}

func NewClient(hub *Hub, conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: info.UserID,
		info:   info,
		send:   make(chan []byte, sendBuffer),
		subs:   make(map[string]*subscription),
	}
}

// ReadPump handles subscribe and unsubscribe frames until the connection closes.
func (c *Client) ReadPump(ctx context.Context) string {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				c.hub.log.Debug("websocket read failed", zap.String("conn_id", c.info.ConnID), zap.Error(err))
			}
			return err.Error()
		}

		var frame ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.hub.send(c, ServerFrame{Type: FrameError, Error: "invalid frame"})
			continue
		}
		c.handle(ctx, frame)
	}
}

func (c *Client) handle(ctx context.Context, frame ClientFrame) {
	switch frame.Action {
	case ActionSubscribe:
		observability.IncWSEvent("subscribe")
		if err := c.hub.Subscribe(ctx, c, frame); err != nil {
			c.hub.send(c, ServerFrame{Type: FrameError, ID: frame.ID, Error: publicError(err)})
		}
	case ActionUnsubscribe:
		observability.IncWSEvent("unsubscribe")
		c.hub.Unsubscribe(c, frame.ID)
	default:
		c.hub.send(c, ServerFrame{Type: FrameError, ID: frame.ID, Error: publicError(errUnknownAction)})
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
