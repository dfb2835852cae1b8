package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/auth"
	"github.com/gpuindex/gpu-price-index/internal/cache"
	"github.com/gpuindex/gpu-price-index/internal/index"
	"github.com/gpuindex/gpu-price-index/internal/metrics"
	"github.com/gpuindex/gpu-price-index/internal/pipeline"
	"github.com/gpuindex/gpu-price-index/internal/pricesync"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/pkg/config"
	"github.com/gpuindex/gpu-price-index/pkg/database/queries"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const testSecret = "sync-secret"

// memCatalog stands in for the Postgres repositories.
type memCatalog struct {
	mu      sync.Mutex
	gpus    []models.GPU
	history []models.PriceObservation
	runs    []models.SyncRun
}

func (m *memCatalog) GetAll(_ context.Context, brand models.Brand) ([]models.GPU, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GPU
	for _, g := range m.gpus {
		if brand == "" || g.Brand == brand {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memCatalog) GetByID(_ context.Context, id int64) (*models.GPU, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.gpus {
		if m.gpus[i].ID == id {
			g := m.gpus[i]
			return &g, nil
		}
	}
	return nil, queries.ErrGPUNotFound
}

func (m *memCatalog) UpdateGPUPrice(_ context.Context, id int64, price float64, specs models.GPUSpecs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.gpus {
		if m.gpus[i].ID == id {
			m.gpus[i].CurrentPrice = price
			m.gpus[i].Specs = specs
			return nil
		}
	}
	return queries.ErrGPUNotFound
}

func (m *memCatalog) InsertObservation(_ context.Context, obs *models.PriceObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obs.ID = int64(len(m.history) + 1)
	m.history = append(m.history, *obs)
	return nil
}

func (m *memCatalog) GetByGPU(_ context.Context, gpuID int64, from, to time.Time, limit int) ([]models.PriceObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PriceObservation
	for _, o := range m.history {
		if o.GPUID == gpuID && !o.RecordedAt.Before(from) && !o.RecordedAt.After(to) {
			out = append(out, o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCatalog) GetSince(_ context.Context, since time.Time, limit int) ([]models.PriceObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PriceObservation
	for _, o := range m.history {
		if o.RecordedAt.After(since) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCatalog) GetRecent(_ context.Context, limit int) ([]models.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs, nil
}

type stubProvider struct {
	name string
	set  pricing.Set
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) FetchOffers(context.Context) ([]pricing.Offer, error) {
	return []pricing.Offer{{Provider: s.name}}, nil
}

func (s *stubProvider) ParseName(string) (pricing.ModelName, bool) { return pricing.ModelName{}, false }

func (s *stubProvider) Aggregate([]pricing.Offer) pricing.Set { return s.set }

func priced(providerName string, brand models.Brand, model string, price float64) pricing.Set {
	p := pricing.ModelPrice{
		Brand: brand, Model: model, Provider: providerName, Source: providerName,
		Price: price, MinPrice: price, MaxPrice: price, SampleCount: 1,
	}
	return pricing.Set{p.Key(): p}
}

func newTestServer(t *testing.T) (*Server, *memCatalog) {
	t.Helper()

	catalog := &memCatalog{gpus: []models.GPU{
		{ID: 1, Brand: models.BrandNVIDIA, Model: "RTX 4090", CurrentPrice: 300},
		{ID: 2, Brand: models.BrandNVIDIA, Model: "H100", CurrentPrice: 1400},
		{ID: 3, Brand: models.BrandAMD, Model: "RX 7900 XTX", CurrentPrice: 250},
	}}

	idx := index.NewService(index.ServiceConfig{
		Engine:  index.NewEngine(index.DefaultConfig()),
		GPUs:    catalog,
		History: catalog,
		Cache:   cache.NewMemoryStore(),
	})

	p, err := pipeline.New(pipeline.Config{
		Providers: []provider.Provider{
			&stubProvider{name: "runpod", set: priced("runpod", models.BrandNVIDIA, "RTX 4090", 400)},
			&stubProvider{name: "lambda", set: priced("lambda", models.BrandNVIDIA, "H100", 1500)},
		},
		GPUs:   catalog,
		Syncer: pricesync.New(catalog, pricesync.Config{}),
		Index:  idx,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		App:   config.AppConfig{Name: "gpu-price-index", Mode: "test"},
		API:   config.APIConfig{DefaultLimit: 100, MaxLimit: 1000},
		Sync:  config.SyncConfig{Timeout: time.Minute},
		Index: config.IndexConfig{CacheTTL: time.Minute},
	}

	s := NewServer(cfg, Dependencies{
		GPUs:     catalog,
		History:  catalog,
		Index:    idx,
		Sync:     p,
		SyncRuns: catalog,
		Auth:     auth.NewService(testSecret),
		Metrics:  metrics.New().Handler(),
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	return s, catalog
}

func request(s *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_SyncThenIndex(t *testing.T) {
	s, catalog := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, request(s, http.MethodPost, "/api/sync", "wrong").Code)

	w := request(s, http.MethodPost, "/api/sync", testSecret)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success      bool             `json:"success"`
		Stats        models.SyncStats `json:"stats"`
		NotFoundGPUs []string         `json:"notFoundGPUs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Stats.TotalGPUs)
	assert.Equal(t, 2, resp.Stats.Updated)
	assert.Equal(t, 1, resp.Stats.NotFound)
	assert.Equal(t, "66.7%", resp.Stats.UpdateRate)
	assert.Equal(t, map[string]int{"runpod": 1, "lambda": 1}, resp.Stats.Sources)
	assert.Equal(t, []string{"AMD RX 7900 XTX"}, resp.NotFoundGPUs)

	// Missing GPUs keep their stored price.
	amd, err := catalog.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 250.0, amd.CurrentPrice)

	w = request(s, http.MethodGet, "/api/index", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	var snap models.IndexSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	// (400 + 1500 + 250) / 3 = 716.67 -> 71.67
	assert.Equal(t, 71.67, snap.GPUComputeIndex)
	assert.Equal(t, 71.67, snap.HighEndIndex)
	assert.Equal(t, 95.0, snap.NVIDIAIndex)
	assert.Equal(t, 25.0, snap.AMDIndex)

	w = request(s, http.MethodGet, "/api/gpus/1/history?range=1h", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, 1, hist.Count)
}

func TestServer_Routes(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/gpus", http.StatusOK},
		{http.MethodGet, "/api/gpus/2", http.StatusOK},
		{http.MethodGet, "/api/gpus/2/average?days=3", http.StatusOK},
		{http.MethodGet, "/api/gpus/99", http.StatusNotFound},
		{http.MethodGet, "/api/sync/runs", http.StatusOK},
		{http.MethodPost, "/api/sync", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := request(s, tt.method, tt.path, "")
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
		})
	}
}
