package websocket

import (
	"time"

	"github.com/gpuindex/gpu-price-index/pkg/config"
)

type Settings struct {
	MaxConnections  int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	BroadcastBuffer int
	ClientBuffer    int
}

func SettingsFromConfig(cfg config.WebSocketConfig) Settings {
	return Settings{
		MaxConnections:  cfg.MaxConnections,
		WriteTimeout:    cfg.WriteTimeout,
		PongTimeout:     cfg.PongTimeout,
		PingInterval:    cfg.PingInterval,
		MaxMessageSize:  cfg.MaxMessageSize,
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		BroadcastBuffer: cfg.BroadcastBuffer,
		ClientBuffer:    cfg.ClientBuffer,
	}
}

func (s Settings) withDefaults() Settings {
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.PongTimeout <= 0 {
		s.PongTimeout = 60 * time.Second
	}
	// Pings must go out before the peer's read deadline passes.
	if s.PingInterval <= 0 || s.PingInterval >= s.PongTimeout {
		s.PingInterval = (s.PongTimeout * 9) / 10
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 512
	}
	if s.ReadBufferSize <= 0 {
		s.ReadBufferSize = 1024
	}
	if s.WriteBufferSize <= 0 {
		s.WriteBufferSize = 1024
	}
	if s.BroadcastBuffer <= 0 {
		s.BroadcastBuffer = 256
	}
	if s.ClientBuffer <= 0 {
		s.ClientBuffer = 64
	}
	return s
}
