package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeSyncCompleted  MessageType = "sync_completed"
	MessageTypeProviderFailed MessageType = "provider_failed"
	MessageTypeIndexUpdate    MessageType = "index_update"
)

// Topic groups message types a client can subscribe to.
type Topic string

const (
	TopicSync  Topic = "sync"
	TopicIndex Topic = "index"
)

func (t MessageType) Topic() Topic {
	if t == MessageTypeIndexUpdate {
		return TopicIndex
	}
	return TopicSync
}

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(msgType MessageType, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncCompletedData is the condensed report pushed to clients; the full
// update sample stays on the HTTP response.
type SyncCompletedData struct {
	TotalGPUs  int            `json:"totalGPUs"`
	Updated    int            `json:"updated"`
	NotFound   int            `json:"notFound"`
	Failed     int            `json:"failed"`
	Sources    map[string]int `json:"sources"`
	UpdateRate string         `json:"updateRate"`
	DurationMS int64          `json:"durationMs"`
}

type ProviderFailedData struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}
