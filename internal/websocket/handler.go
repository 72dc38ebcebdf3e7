package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one status-channel connection until it closes. The connection
// is released when the handler returns, so it waits for the write side too.
func ServeWs(hub *Hub, c *websocket.Conn) {
	client := newClient(hub, c)
	if !hub.join(client) {
		c.Close()
		return
	}

	written := make(chan struct{})
	go func() {
		defer close(written)
		client.writePump()
	}()

	client.readPump()
	<-written
}
