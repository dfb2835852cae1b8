package events

import (
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const source = "pipeline"

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p == nil || p.bus == nil {
		return
	}
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) SyncStarted(trigger string) {
	event := models.NewEvent(models.EventTypeSyncStarted, source, "Price sync started").
		WithData(map[string]interface{}{"trigger": trigger})
	p.publish(event)
}

// ProviderFailed data is a ProviderFailure.
func (p *Publisher) ProviderFailed(provider string, err error) {
	event := models.NewEvent(models.EventTypeProviderFailed, provider, "Provider fetch failed").
		WithSeverity(models.SeverityWarning).
		WithData(ProviderFailure{Provider: provider, Error: err.Error()})
	p.publish(event)
}

func (p *Publisher) SyncCompleted(report *models.SyncReport) {
	event := models.NewEvent(models.EventTypeSyncCompleted, source, "Price sync completed: "+report.Stats.UpdateRate+" updated").
		WithData(report)
	if report.Stats.Failed > 0 || report.Stats.HistoryFailed > 0 {
		event.WithSeverity(models.SeverityWarning)
	}
	p.publish(event)
}

func (p *Publisher) SyncFailed(err error) {
	event := models.NewEvent(models.EventTypeSyncFailed, source, "Price sync failed").
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) IndexUpdated(snapshot models.IndexSnapshot) {
	event := models.NewEvent(models.EventTypeIndexUpdated, "index", "Index recomputed").
		WithData(snapshot)
	p.publish(event)
}

type ProviderFailure struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}
