package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := NewEventBus(4)
	defer bus.Close()

	completed := bus.Subscribe(models.EventTypeSyncCompleted)
	all := bus.SubscribeAll()
	pub := NewPublisher(bus).WithTraceID("trace-1")

	pub.ProviderFailed("lambda", errors.New("timeout"))
	pub.SyncCompleted(&models.SyncReport{Stats: models.SyncStats{UpdateRate: "50.0%"}})

	e := receive(t, completed)
	assert.Equal(t, models.EventTypeSyncCompleted, e.Type)
	assert.Equal(t, "trace-1", e.TraceID)

	first := receive(t, all)
	assert.Equal(t, models.EventTypeProviderFailed, first.Type)
	assert.Equal(t, models.SeverityWarning, first.Severity)
	assert.Equal(t, ProviderFailure{Provider: "lambda", Error: "timeout"}, first.Data)
	assert.Equal(t, models.EventTypeSyncCompleted, receive(t, all).Type)
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	ch := bus.Subscribe(models.EventTypeSyncStarted)
	pub := NewPublisher(bus)

	pub.SyncStarted("manual")
	pub.SyncStarted("manual")

	receive(t, ch)
	select {
	case <-ch:
		t.Fatal("expected second event to be dropped")
	default:
	}

	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)
	pub.SyncStarted("after close")
}

func TestPublisher_NilSafe(t *testing.T) {
	var pub *Publisher
	assert.NotPanics(t, func() { pub.SyncFailed(errors.New("boom")) })
}

type recorder struct {
	mu   sync.Mutex
	runs []*models.SyncRun
	done chan struct{}
}

func (r *recorder) Create(_ context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	r.runs = append(r.runs, run)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestEventLogger_PersistsCompletedSyncs(t *testing.T) {
	bus := NewEventBus(8)
	rec := &recorder{done: make(chan struct{})}
	l := NewEventLogger(rec, bus.SubscribeAll())
	l.Start()

	pub := NewPublisher(bus)
	pub.SyncStarted("cron")
	pub.SyncCompleted(&models.SyncReport{
		Stats: models.SyncStats{TotalGPUs: 4, Updated: 3, NotFound: 1, Sources: map[string]int{"vastai": 3}},
	})

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("sync run not persisted")
	}
	l.Stop()

	require.Len(t, rec.runs, 1)
	assert.Equal(t, 4, rec.runs[0].TotalGPUs)
	assert.Equal(t, 3, rec.runs[0].Updated)
	assert.Equal(t, map[string]int{"vastai": 3}, rec.runs[0].Sources)
}
