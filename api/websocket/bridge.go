package websocket

import (
	"context"
	"sync"

	"github.com/gpuindex/gpu-price-index/internal/events"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

// EventBridge forwards pipeline events from the bus to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *EventBridge) Start() {
	b.wg.Add(1)
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	b.wg.Wait()
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			if msg := ToMessage(event); msg != nil {
				b.hub.Broadcast(msg)
			}
		}
	}
}

// ToMessage converts a bus event to its client message, or nil for events
// that stay internal.
func ToMessage(event *models.Event) *OutgoingMessage {
	var msg *OutgoingMessage

	switch event.Type {
	case models.EventTypeSyncCompleted:
		report, ok := event.Data.(*models.SyncReport)
		if !ok || report == nil {
			return nil
		}
		msg = NewMessage(MessageTypeSyncCompleted, SyncCompletedData{
			TotalGPUs:  report.Stats.TotalGPUs,
			Updated:    report.Stats.Updated,
			NotFound:   report.Stats.NotFound,
			Failed:     report.Stats.Failed,
			Sources:    report.Stats.Sources,
			UpdateRate: report.Stats.UpdateRate,
			DurationMS: report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		})
	case models.EventTypeProviderFailed:
		failure, ok := event.Data.(events.ProviderFailure)
		if !ok {
			return nil
		}
		msg = NewMessage(MessageTypeProviderFailed, ProviderFailedData(failure))
	case models.EventTypeIndexUpdated:
		snapshot, ok := event.Data.(models.IndexSnapshot)
		if !ok {
			return nil
		}
		msg = NewMessage(MessageTypeIndexUpdate, snapshot)
	default:
		return nil
	}

	msg.Timestamp = event.Timestamp.UTC()
	msg.Severity = string(event.Severity)
	msg.Message = event.Message
	return msg
}
