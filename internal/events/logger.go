package events

import (
	"context"
	"time"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

// SyncRunRecorder persists completed sync summaries.
type SyncRunRecorder interface {
	Create(ctx context.Context, run *models.SyncRun) error
}

type EventLogger struct {
	runs      SyncRunRecorder
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewEventLogger logs every event on eventChan. runs may be nil, in which
// case nothing is persisted.
func NewEventLogger(runs SyncRunRecorder, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		runs:      runs,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

// Stop ends the loop and waits for the event in flight.
func (l *EventLogger) Stop() {
	l.cancel()
	<-l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"source":     event.Source,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if event.Type == models.EventTypeSyncCompleted {
		l.persistSyncRun(event)
	}
}

func (l *EventLogger) persistSyncRun(event *models.Event) {
	report, ok := event.Data.(*models.SyncReport)
	if !ok || l.runs == nil {
		return
	}

	ctx, cancel := context.WithTimeout(l.ctx, 5*time.Second)
	defer cancel()

	if err := l.runs.Create(ctx, SyncRunFromReport(report)); err != nil {
		logger.Errorf("Failed to persist sync run: %v", err)
	}
}

func SyncRunFromReport(report *models.SyncReport) *models.SyncRun {
	return &models.SyncRun{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		TotalGPUs:  report.Stats.TotalGPUs,
		Updated:    report.Stats.Updated,
		NotFound:   report.Stats.NotFound,
		Failed:     report.Stats.Failed,
		Sources:    report.Stats.Sources,
	}
}
