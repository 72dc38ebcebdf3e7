package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// clusterChannel carries broadcasts between instances when Redis is configured.
const clusterChannel = "chat_status_events"

type clusterEnvelope struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// Hub tracks the connected status-channel clients and fans broadcasts out to them.
type Hub struct {
	// Registered clients keyed by connection id
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance broadcasts, nil for single-instance
	rdb        *redis.Client
	instanceId string

	heartbeat time.Duration
	logger    logger.ILogger

	done     chan struct{}
	doneOnce sync.Once
}

const defaultHeartbeat = 30 * time.Second

func NewHub(rdb *redis.Client, heartbeat time.Duration, log logger.ILogger) *Hub {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		heartbeat:  heartbeat,
		logger:     log,
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.Id] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id, "clients": count})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Broadcast sends an encoded event to every local client and, when Redis is
// configured, to the other instances.
func (h *Hub) Broadcast(payload []byte) {
	h.deliverLocal(payload)

	if h.rdb != nil {
		envelope, err := json.Marshal(clusterEnvelope{Origin: h.instanceId, Message: payload})
		if err != nil {
			return
		}
		if err := h.rdb.Publish(context.Background(), clusterChannel, envelope).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliverLocal(payload []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"client_id": client.Id})
		h.remove(client)
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.Id]
	removed := ok && current == client
	if removed {
		delete(h.clients, client.Id)
	}
	h.mu.Unlock()

	if removed {
		client.closeSend()
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
	}
}

func (h *Hub) shutdown() {
	h.doneOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var envelope clusterEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			// Local clients already got our own broadcasts
			if envelope.Origin == h.instanceId {
				continue
			}
			h.deliverLocal(envelope.Message)
		}
	}
}
