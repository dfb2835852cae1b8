package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gpuindex/gpu-price-index/internal/logger"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	settings Settings

	mu     sync.RWMutex
	topics map[Topic]bool
}

// IncomingMessage is the only thing clients send: topic subscriptions.
type IncomingMessage struct {
	Type   string  `json:"type"`
	Topics []Topic `json:"topics,omitempty"`
}

// NewClient subscribes to topics, or to everything when topics is empty.
func NewClient(hub *Hub, conn *websocket.Conn, topics []Topic) *Client {
	c := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.ClientBuffer),
		settings: hub.settings,
	}
	c.setTopics(topics)
	return c
}

func (c *Client) setTopics(topics []Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(topics) == 0 {
		c.topics = nil
		return
	}
	c.topics = make(map[Topic]bool, len(topics))
	for _, t := range topics {
		c.topics[t] = true
	}
}

// Wants reports whether messages on topic should reach this client.
func (c *Client) Wants(topic Topic) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics == nil || c.topics[topic]
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		c.setTopics(msg.Topics)
		c.sendConfirmation("subscribed", msg.Topics)
	case "unsubscribe":
		c.setTopics(nil)
		c.sendConfirmation("unsubscribed", nil)
	}
}

func (c *Client) sendConfirmation(action string, topics []Topic) {
	confirmation := map[string]interface{}{
		"type":      "subscription_update",
		"action":    action,
		"topics":    topics,
		"timestamp": time.Now().UTC(),
	}
	data, err := json.Marshal(confirmation)
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}

	// The hub may close send concurrently on disconnect.
	defer func() { _ = recover() }()
	select {
	case c.send <- data:
	default:
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

func parseTopics(raw string) []Topic {
	if raw == "" {
		return nil
	}
	var topics []Topic
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			topics = append(topics, Topic(part))
		}
	}
	return topics
}

// ServeWebSocket upgrades GET /ws. "?topics=sync,index" narrows the feed.
func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.ReadBufferSize,
		WriteBufferSize: hub.settings.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warnf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, parseTopics(c.Query("topics")))
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
