package websocket

import (
	"sync"

	"github.com/gpuindex/gpu-price-index/internal/logger"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *OutgoingMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   Settings
}

func NewHub(settings Settings) *Hub {
	settings = settings.withDefaults()
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *OutgoingMessage, settings.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.settings.MaxConnections > 0 && len(h.clients) >= h.settings.MaxConnections {
				h.mu.Unlock()
				logger.Warn("WebSocket connection limit reached, rejecting client")
				close(client.send)
				continue
			}
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debugf("WebSocket client connected (total: %d)", total)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			total := len(h.clients)
			h.mu.Unlock()
			logger.Debugf("WebSocket client disconnected (total: %d)", total)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *OutgoingMessage) {
	data, err := msg.JSON()
	if err != nil {
		logger.Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}

	topic := msg.Type.Topic()

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.Wants(topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow consumer.
			h.remove(client)
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.remove(client)
	}
}

func (h *Hub) Broadcast(msg *OutgoingMessage) {
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
