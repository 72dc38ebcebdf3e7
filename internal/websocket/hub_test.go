package websocket

import (
	"context"
	"testing"
	"time"

	"ai-chat-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(hub *Hub, id string, buffer int) *Client {
	return &Client{
		Id:      id,
		Hub:     hub,
		Send:    make(chan []byte, buffer),
		replies: make(chan []byte, 1),
	}
}

func TestHub_BroadcastDropsSlowClients(t *testing.T) {
	hub := NewHub(nil, time.Second, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	slow := testClient(hub, "slow", 1)
	fast := testClient(hub, "fast", 8)
	require.True(t, hub.join(slow))
	require.True(t, hub.join(fast))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, time.Millisecond)

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second"))

	assert.Equal(t, 1, hub.ClientCount())
	assert.Equal(t, "first", string(<-slow.Send))
	_, open := <-slow.Send
	assert.False(t, open, "slow client is closed once evicted")
	assert.Len(t, fast.Send, 2)

	cancel()
	<-stopped

	<-fast.Send
	<-fast.Send
	_, open = <-fast.Send
	assert.False(t, open, "shutdown closes remaining clients")
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.join(testClient(hub, "late", 1)))
}

func TestHub_DefaultsHeartbeat(t *testing.T) {
	hub := NewHub(nil, 0, logger.NewNopLogger())
	assert.Equal(t, defaultHeartbeat, hub.heartbeat)
}
