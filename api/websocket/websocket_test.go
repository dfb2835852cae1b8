package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/events"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

func startServer(t *testing.T) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(Settings{})
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := gin.New()
	r.GET("/ws", ServeWebSocket(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *gorilla.Conn {
	t.Helper()
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub, url := startServer(t)

	all := dial(t, url)
	indexOnly := dial(t, url+"?topics=index")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(NewMessage(MessageTypeProviderFailed, ProviderFailedData{Provider: "lambda", Error: "boom"}))
	hub.Broadcast(NewMessage(MessageTypeIndexUpdate, models.IndexSnapshot{GPUComputeIndex: 101.5}))

	first := readMessage(t, all)
	assert.Equal(t, "provider_failed", first["type"])
	second := readMessage(t, all)
	assert.Equal(t, "index_update", second["type"])

	// The index-only client never sees the provider failure.
	got := readMessage(t, indexOnly)
	assert.Equal(t, "index_update", got["type"])
	data := got["data"].(map[string]interface{})
	assert.Equal(t, 101.5, data["gpuComputeIndex"])
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub, url := startServer(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestToMessage(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := &models.SyncReport{
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Stats: models.SyncStats{
			TotalGPUs:  4,
			Updated:    3,
			NotFound:   1,
			Sources:    map[string]int{"runpod": 2, "lambda": 1},
			UpdateRate: "75.0%",
		},
	}

	tests := []struct {
		name     string
		event    *models.Event
		wantType MessageType
	}{
		{
			name:     "sync completed",
			event:    models.NewEvent(models.EventTypeSyncCompleted, "pipeline", "done").WithData(report),
			wantType: MessageTypeSyncCompleted,
		},
		{
			name: "provider failed",
			event: models.NewEvent(models.EventTypeProviderFailed, "vastai", "failed").
				WithData(events.ProviderFailure{Provider: "vastai", Error: "timeout"}),
			wantType: MessageTypeProviderFailed,
		},
		{
			name:     "index updated",
			event:    models.NewEvent(models.EventTypeIndexUpdated, "index", "recomputed").WithData(models.IndexSnapshot{}),
			wantType: MessageTypeIndexUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ToMessage(tt.event)
			require.NotNil(t, msg)
			assert.Equal(t, tt.wantType, msg.Type)
			assert.Equal(t, tt.event.Message, msg.Message)
		})
	}

	msg := ToMessage(models.NewEvent(models.EventTypeSyncCompleted, "pipeline", "done").WithData(report))
	data := msg.Data.(SyncCompletedData)
	assert.Equal(t, int64(1500), data.DurationMS)
	assert.Equal(t, "75.0%", data.UpdateRate)

	assert.Nil(t, ToMessage(models.NewEvent(models.EventTypeSyncStarted, "pipeline", "go")))
	assert.Nil(t, ToMessage(models.NewEvent(models.EventTypeSyncCompleted, "pipeline", "bad").WithData("nope")))
}

func TestParseTopics(t *testing.T) {
	assert.Nil(t, parseTopics(""))
	assert.Equal(t, []Topic{TopicSync, TopicIndex}, parseTopics("sync, index,"))
}
