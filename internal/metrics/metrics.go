package metrics

import (
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics holds pipeline counters and gauges and renders them in the
// Prometheus text format. Create one per process and pass it where needed.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	syncRunsTotal   map[string]int64 // trigger -> count
	syncFailures    int64
	fetchesTotal    map[string]int64
	fetchErrors     map[string]int64
	gpusUpdated     int64
	gpusNotFound    int64
	gpusFailed      int64
	historyFailures int64

	// Gauges
	providerRecords     map[string]int
	providerModels      map[string]int
	circuitBreakerState map[string]int // 0=closed, 1=open, 2=half-open
	lastSyncTimestamp   time.Time

	// Last observed values
	fetchLatency map[string]time.Duration
	syncDuration time.Duration
}

func New() *Metrics {
	return &Metrics{
		syncRunsTotal:       make(map[string]int64),
		fetchesTotal:        make(map[string]int64),
		fetchErrors:         make(map[string]int64),
		providerRecords:     make(map[string]int),
		providerModels:      make(map[string]int),
		circuitBreakerState: make(map[string]int),
		fetchLatency:        make(map[string]time.Duration),
	}
}

func (m *Metrics) IncSyncRun(trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncRunsTotal[trigger]++
}

func (m *Metrics) IncSyncFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncFailures++
}

// ObserveFetch records one provider call.
func (m *Metrics) ObserveFetch(provider string, records int, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchesTotal[provider]++
	m.fetchLatency[provider] = d
	if err != nil {
		m.fetchErrors[provider]++
		return
	}
	m.providerRecords[provider] = records
}

func (m *Metrics) SetProviderModels(provider string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerModels[provider] = n
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerState[name] = state
}

func (m *Metrics) ObserveSync(updated, notFound, failed, historyFailed int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpusUpdated += int64(updated)
	m.gpusNotFound += int64(notFound)
	m.gpusFailed += int64(failed)
	m.historyFailures += int64(historyFailed)
	m.syncDuration = d
	m.lastSyncTimestamp = time.Now()
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		m.Render(w)
	})
}

// Render writes every series, sorted by label value.
func (m *Metrics) Render(w io.Writer) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, trigger := range sortedKeys(m.syncRunsTotal) {
		writeMetric(w, "gpuindex_sync_runs_total", map[string]string{"trigger": trigger}, float64(m.syncRunsTotal[trigger]))
	}
	writeMetric(w, "gpuindex_sync_failures_total", nil, float64(m.syncFailures))
	writeMetric(w, "gpuindex_gpus_updated_total", nil, float64(m.gpusUpdated))
	writeMetric(w, "gpuindex_gpus_not_found_total", nil, float64(m.gpusNotFound))
	writeMetric(w, "gpuindex_gpus_failed_total", nil, float64(m.gpusFailed))
	writeMetric(w, "gpuindex_history_failures_total", nil, float64(m.historyFailures))
	writeMetric(w, "gpuindex_sync_duration_ms", nil, float64(m.syncDuration.Milliseconds()))
	if !m.lastSyncTimestamp.IsZero() {
		writeMetric(w, "gpuindex_last_sync_timestamp_seconds", nil, float64(m.lastSyncTimestamp.Unix()))
	}

	for _, p := range sortedKeys(m.fetchesTotal) {
		writeMetric(w, "gpuindex_provider_fetches_total", map[string]string{"provider": p}, float64(m.fetchesTotal[p]))
	}
	for _, p := range sortedKeys(m.fetchErrors) {
		writeMetric(w, "gpuindex_provider_fetch_errors_total", map[string]string{"provider": p}, float64(m.fetchErrors[p]))
	}
	for _, p := range sortedKeys(m.fetchLatency) {
		writeMetric(w, "gpuindex_provider_fetch_latency_ms", map[string]string{"provider": p}, float64(m.fetchLatency[p].Milliseconds()))
	}
	for _, p := range sortedKeys(m.providerRecords) {
		writeMetric(w, "gpuindex_provider_records", map[string]string{"provider": p}, float64(m.providerRecords[p]))
	}
	for _, p := range sortedKeys(m.providerModels) {
		writeMetric(w, "gpuindex_provider_models", map[string]string{"provider": p}, float64(m.providerModels[p]))
	}
	for _, name := range sortedKeys(m.circuitBreakerState) {
		writeMetric(w, "gpuindex_circuit_breaker_state", map[string]string{"name": name}, float64(m.circuitBreakerState[name]))
	}
}

func writeMetric(w io.Writer, name string, labels map[string]string, value float64) {
	var b strings.Builder
	b.WriteString(name)
	if len(labels) > 0 {
		b.WriteString("{")
		for i, k := range sortedKeys(labels) {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k + `="` + escapeLabel(labels[k]) + `"`)
		}
		b.WriteString("}")
	}
	b.WriteString(" " + strconv.FormatFloat(value, 'f', -1, 64) + "\n")
	_, _ = io.WriteString(w, b.String())
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string {
	return labelEscaper.Replace(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
