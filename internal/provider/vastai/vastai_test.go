package vastai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/provider"
)

const bundlesBody = `{"offers":[
  {"id":1,"gpu_name":"RTX 4090","num_gpus":2,"dph_total":0.8,"reliability2":0.99,"cpu_cores_effective":16,"cpu_ram":65536,"disk_space":200,"inet_down":900,"dlperf":60},
  {"id":2,"gpu_name":"RTX 4090","num_gpus":1,"dph_total":0.6},
  {"id":3,"gpu_name":"H100_SXM","num_gpus":8,"dph_total":20},
  {"id":4,"gpu_name":"Broken","num_gpus":0,"dph_total":1}
]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestFetchOffers(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bundles/", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bundlesBody))
	})

	offers, err := c.FetchOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Contains(t, gotQuery, `"rentable"`)

	first := offers[0]
	assert.Equal(t, Name, first.Provider)
	assert.InDelta(t, 0.4, first.HourlyPrice, 1e-9)
	require.NotNil(t, first.CPUCores)
	assert.InDelta(t, 8, *first.CPUCores, 1e-9)
	require.NotNil(t, first.RAMGB)
	assert.InDelta(t, 32, *first.RAMGB, 1e-9)
	require.NotNil(t, first.NetworkMbps)
	assert.InDelta(t, 900, *first.NetworkMbps, 1e-9)
	assert.Nil(t, offers[1].CPUCores)
}

func TestFetchOffers_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{}`, provider.ErrFetchFailed},
		{"malformed body", http.StatusOK, `not json`, provider.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchOffers(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestAggregate_AveragesPerModel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(bundlesBody))
	})

	offers, err := c.FetchOffers(context.Background())
	require.NoError(t, err)

	set := c.Aggregate(offers)
	require.Len(t, set, 2)

	rtx, ok := set["NVIDIA|RTX 4090"]
	require.True(t, ok)
	// (0.4*730 + 0.6*730) / 2
	assert.Equal(t, 365.0, rtx.Price)
	assert.Equal(t, 2, rtx.SampleCount)
	assert.Equal(t, 292.0, rtx.MinPrice)
	assert.Equal(t, 438.0, rtx.MaxPrice)
	assert.Equal(t, Name, rtx.Source)

	h100, ok := set["NVIDIA|H100"]
	require.True(t, ok)
	assert.Equal(t, 1825.0, h100.Price)
}
