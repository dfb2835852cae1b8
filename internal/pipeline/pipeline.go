// Package pipeline runs one full price sync cycle: fetch every provider in
// parallel, aggregate, merge by priority, persist, then refresh the index.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gpuindex/gpu-price-index/internal/events"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/merge"
	"github.com/gpuindex/gpu-price-index/internal/metrics"
	"github.com/gpuindex/gpu-price-index/internal/pricesync"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

var ErrSyncInProgress = errors.New("sync already in progress")

const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
	TriggerCLI      = "cli"
)

type GPULister interface {
	GetAll(ctx context.Context, brand models.Brand) ([]models.GPU, error)
}

// IndexRefresher recomputes the index after prices moved.
type IndexRefresher interface {
	Refresh(ctx context.Context) (models.IndexSnapshot, error)
}

type Config struct {
	Providers []provider.Provider
	Priority  merge.Priority
	GPUs      GPULister
	Syncer    *pricesync.Syncer
	// Optional collaborators.
	Index     IndexRefresher
	Publisher *events.Publisher
	Metrics   *metrics.Metrics
}

type Pipeline struct {
	providers []provider.Provider
	priority  merge.Priority
	gpus      GPULister
	syncer    *pricesync.Syncer
	index     IndexRefresher
	publisher *events.Publisher
	metrics   *metrics.Metrics
	running   atomic.Bool
}

func New(cfg Config) (*Pipeline, error) {
	priority := cfg.Priority
	if len(priority) == 0 {
		priority = merge.DefaultPriority
	}
	if err := priority.Validate(); err != nil {
		return nil, err
	}
	if cfg.GPUs == nil || cfg.Syncer == nil {
		return nil, errors.New("pipeline requires a GPU source and a syncer")
	}
	for _, name := range Unranked(priority, cfg.Providers) {
		logger.WithProvider(name).Warn("Provider is not in the merge priority list, its prices will be ignored")
	}

	return &Pipeline{
		providers: cfg.Providers,
		priority:  priority,
		gpus:      cfg.GPUs,
		syncer:    cfg.Syncer,
		index:     cfg.Index,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
	}, nil
}

// Unranked lists providers the merge priority does not name.
func Unranked(priority merge.Priority, providers []provider.Provider) []string {
	var names []string
	for _, prov := range providers {
		if priority.Rank(prov.Name()) < 0 {
			names = append(names, prov.Name())
		}
	}
	return names
}

func (p *Pipeline) IsRunning() bool {
	return p.running.Load()
}

// Run executes one cycle. It fails only when the tracked catalog cannot be
// loaded or another cycle is running; provider failures degrade to empty
// results.
func (p *Pipeline) Run(ctx context.Context, trigger string) (*models.SyncReport, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer p.running.Store(false)

	start := time.Now()
	pub := p.publisher
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" && pub != nil {
		pub = pub.WithTraceID(traceID)
	}
	if p.metrics != nil {
		p.metrics.IncSyncRun(trigger)
	}

	gpus, err := p.gpus.GetAll(ctx, "")
	if err != nil {
		err = fmt.Errorf("failed to load tracked gpus: %w", err)
		logger.ErrorCtxf(ctx, "Sync aborted: %v", err)
		if p.metrics != nil {
			p.metrics.IncSyncFailure()
		}
		pub.SyncFailed(err)
		return nil, err
	}

	pub.SyncStarted(trigger)
	logger.InfoCtxf(ctx, "Sync started (%s): %d tracked GPUs, %d providers", trigger, len(gpus), len(p.providers))

	sets := p.fetchAll(ctx, pub)
	merged := merge.Merge(p.priority, sets)

	report := p.syncer.Sync(ctx, gpus, merged)

	if p.metrics != nil {
		p.metrics.ObserveSync(report.Stats.Updated, report.Stats.NotFound, report.Stats.Failed, report.Stats.HistoryFailed, time.Since(start))
	}
	pub.SyncCompleted(report)

	if p.index != nil {
		snap, err := p.index.Refresh(ctx)
		if err != nil {
			logger.WarnCtxf(ctx, "Index refresh after sync failed: %v", err)
		} else {
			pub.IndexUpdated(snap)
		}
	}

	return report, nil
}

type fetchResult struct {
	name string
	set  pricing.Set
}

// fetchAll queries every provider concurrently. A failing provider
// contributes an empty set.
func (p *Pipeline) fetchAll(ctx context.Context, pub *events.Publisher) map[string]pricing.Set {
	results := make([]fetchResult, len(p.providers))

	var wg sync.WaitGroup
	for i, prov := range p.providers {
		wg.Add(1)
		go func(i int, prov provider.Provider) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.WithProvider(prov.Name()).Errorf("Provider panicked: %v", r)
					pub.ProviderFailed(prov.Name(), fmt.Errorf("panic: %v", r))
					results[i] = fetchResult{name: prov.Name(), set: pricing.Set{}}
				}
			}()
			results[i] = fetchResult{name: prov.Name(), set: p.fetchOne(ctx, prov, pub)}
		}(i, prov)
	}
	wg.Wait()

	sets := make(map[string]pricing.Set, len(results))
	for _, r := range results {
		sets[r.name] = r.set
	}
	return sets
}

func (p *Pipeline) fetchOne(ctx context.Context, prov provider.Provider, pub *events.Publisher) pricing.Set {
	name := prov.Name()
	start := time.Now()

	offers, err := prov.FetchOffers(ctx)
	if p.metrics != nil {
		p.metrics.ObserveFetch(name, len(offers), time.Since(start), err)
		if r, ok := prov.(*provider.Resilient); ok {
			p.metrics.SetCircuitBreakerState(name, int(r.CircuitState()))
		}
	}
	if err != nil {
		logger.WithProvider(name).WithError(err).Warn("Provider fetch failed, continuing without it")
		pub.ProviderFailed(name, err)
		return pricing.Set{}
	}

	set := prov.Aggregate(offers)
	if p.metrics != nil {
		p.metrics.SetProviderModels(name, len(set))
	}
	logger.WithProvider(name).Infof("Aggregated %d offers into %d models", len(offers), len(set))
	return set
}
