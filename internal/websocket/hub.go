package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-learning-coach-be/internal/constant"
	"ai-learning-coach-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const broadcastTarget = "*"

// clusterMessage is what hubs exchange over redis.
type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients: SessionID -> connections (several tabs may share a session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication; nil runs single-instance
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run serves register/unregister requests until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// join and leave give up once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// Connected reports how many connections the session has on this instance.
func (h *Hub) Connected(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// SendToSession pushes data to every connection of the session, here and on
// the other instances.
func (h *Hub) SendToSession(sessionID string, data []byte) {
	h.deliverLocal(sessionID, data)
	h.publish(sessionID, data)
}

// Broadcast pushes data to every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.deliverLocal(broadcastTarget, data)
	h.publish(broadcastTarget, data)
}

func (h *Hub) deliverLocal(target string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	if target == broadcastTarget {
		for _, clients := range h.clients {
			slow = append(slow, offer(clients, data)...)
		}
	} else {
		slow = offer(h.clients[target], data)
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"session_id": c.SessionID})
		go h.leave(c)
	}
}

// offer does a non-blocking send and returns the clients whose buffer was full.
func offer(clients []*Client, data []byte) []*Client {
	var slow []*Client
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	return slow
}

func (h *Hub) publish(target string, data []byte) {
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, TargetSessionID: target, Message: data})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), constant.HubChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRedis relays messages published by other instances to the
// sessions connected here. Every instance subscribes to the one channel and
// keeps what matches its local clients.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, constant.HubChannel)
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
			h.handleClusterMessage([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleClusterMessage(raw []byte) {
	var payload clusterMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
		return
	}
	// already delivered locally before publishing
	if payload.Origin == h.instanceID {
		return
	}
	h.deliverLocal(payload.TargetSessionID, payload.Message)
}
