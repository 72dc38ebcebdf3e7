package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512

	PingToken = "ping"
	PongToken = "pong"
)

// Client is a middleman between one status-channel connection and the hub.
type Client struct {
	Id  string
	Hub *Hub

	Conn *websocket.Conn

	// Buffered channel of outbound events, closed by the hub.
	Send chan []byte

	// Heartbeat replies from the read side; never closed.
	replies chan []byte

	lastSeen  atomic.Int64
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Id:      uuid.NewString(),
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		replies: make(chan []byte, 1),
	}
}

// LastSeen is when the peer last sent anything, zero if never.
func (c *Client) LastSeen() time.Time {
	n := c.lastSeen.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *Client) readTimeout() time.Duration {
	return 3 * c.Hub.heartbeat
}

// readPump answers heartbeats and tracks liveness until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.Hub.leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout()))

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"client_id": c.Id, "error": err.Error()})
			}
			return
		}

		c.lastSeen.Store(time.Now().UnixNano())
		c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout()))

		if string(data) == PingToken {
			select {
			case c.replies <- []byte(PongToken):
			default:
				// A pong is already queued
			}
		}
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.Hub.heartbeat)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case reply := <-c.replies:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, []byte(PingToken)); err != nil {
				c.Hub.logger.Debug("Client", "Heartbeat write failed", map[string]interface{}{"client_id": c.Id, "error": err.Error()})
				return
			}
		}
	}
}
