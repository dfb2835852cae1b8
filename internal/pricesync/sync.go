// Package pricesync writes merged prices onto the tracked GPU catalog and
// appends one history observation per updated GPU.
package pricesync

import (
	"context"
	"sync"
	"time"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	DefaultSampleLimit = 20
	DefaultWorkers     = 1
)

// Store is the slice of persistence the sync needs.
type Store interface {
	UpdateGPUPrice(ctx context.Context, id int64, price float64, specs models.GPUSpecs) error
	InsertObservation(ctx context.Context, obs *models.PriceObservation) error
}

type Config struct {
	// Workers bounds concurrent GPU writes. Keep it below the database pool size.
	Workers     int
	SampleLimit int
	Now         func() time.Time
}

type Syncer struct {
	store       Store
	workers     int
	sampleLimit int
	now         func() time.Time
}

func New(store Store, cfg Config) *Syncer {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.SampleLimit <= 0 {
		cfg.SampleLimit = DefaultSampleLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Syncer{
		store:       store,
		workers:     cfg.Workers,
		sampleLimit: cfg.SampleLimit,
		now:         cfg.Now,
	}
}

type status int

const (
	statusNotFound status = iota
	statusUpdated
	statusHistoryFailed
	statusFailed
)

type outcome struct {
	status status
	update models.PriceUpdate
}

// Sync updates every tracked GPU found in merged. A failure on one GPU is
// recorded in its outcome and never stops the others.
func (s *Syncer) Sync(ctx context.Context, gpus []models.GPU, merged pricing.MergedSet) *models.SyncReport {
	startedAt := s.now()
	recordedAt := startedAt.UTC()

	outcomes := make([]outcome, len(gpus))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(gpus) {
		workers = len(gpus)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.syncOne(ctx, &gpus[i], merged, recordedAt)
			}
		}()
	}
	for i := range gpus {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := &models.SyncReport{
		StartedAt:    startedAt,
		Updates:      []models.PriceUpdate{},
		NotFoundGPUs: []string{},
		Stats: models.SyncStats{
			TotalGPUs: len(gpus),
			Sources:   SourceCounts(merged),
		},
	}

	for i, o := range outcomes {
		label := gpus[i].Label()
		switch o.status {
		case statusNotFound:
			report.Stats.NotFound++
			if len(report.NotFoundGPUs) < s.sampleLimit {
				report.NotFoundGPUs = append(report.NotFoundGPUs, label)
			}
		case statusFailed:
			report.Stats.Failed++
			if len(report.FailedGPUs) < s.sampleLimit {
				report.FailedGPUs = append(report.FailedGPUs, label)
			}
		case statusUpdated, statusHistoryFailed:
			report.Stats.Updated++
			if o.status == statusHistoryFailed {
				report.Stats.HistoryFailed++
			}
			if len(report.Updates) < s.sampleLimit {
				report.Updates = append(report.Updates, o.update)
			}
		}
	}

	report.Stats.UpdateRate = models.FormatUpdateRate(report.Stats.Updated, report.Stats.TotalGPUs)
	report.FinishedAt = s.now()

	logger.WithFields(map[string]interface{}{
		"total":          report.Stats.TotalGPUs,
		"updated":        report.Stats.Updated,
		"not_found":      report.Stats.NotFound,
		"failed":         report.Stats.Failed,
		"history_failed": report.Stats.HistoryFailed,
	}).Info("Price sync finished")

	return report
}

func (s *Syncer) syncOne(ctx context.Context, gpu *models.GPU, merged pricing.MergedSet, recordedAt time.Time) outcome {
	price, ok := merged[gpu.Key()]
	if !ok {
		logger.WithGPU(gpu.Label()).Debug("No merged price, leaving current price untouched")
		return outcome{status: statusNotFound}
	}

	if err := s.store.UpdateGPUPrice(ctx, gpu.ID, price.Price, SpecsFor(price)); err != nil {
		logger.WithGPU(gpu.Label()).WithError(err).Error("Failed to update GPU price")
		return outcome{status: statusFailed}
	}

	result := outcome{
		status: statusUpdated,
		update: models.PriceUpdate{
			GPU:           gpu.Label(),
			OldPrice:      gpu.CurrentPrice,
			NewPrice:      price.Price,
			ChangePercent: ChangePercent(gpu.CurrentPrice, price.Price),
			Source:        price.Source,
			SampleSize:    price.SampleCount,
		},
	}

	obs := &models.PriceObservation{
		GPUID:      gpu.ID,
		Price:      price.Price,
		Source:     price.Source,
		RecordedAt: recordedAt,
	}
	if err := s.store.InsertObservation(ctx, obs); err != nil {
		// The current price already moved; history is allowed to lag.
		logger.WithGPU(gpu.Label()).WithError(err).Warn("GPU price updated but history append failed")
		result.status = statusHistoryFailed
	}

	return result
}

// SpecsFor maps a merged aggregate onto the extended GPU columns.
func SpecsFor(price pricing.MergedPrice) models.GPUSpecs {
	specs := models.GPUSpecs{
		CPUCores:      price.Specs.CPUCores,
		RAMGB:         price.Specs.RAMGB,
		DiskGB:        price.Specs.DiskGB,
		NetworkMbps:   price.Specs.NetworkMbps,
		ComputeScore:  price.Specs.ComputeScore,
		Reliability:   price.Specs.Reliability,
		ProviderCount: models.Int(len(price.Providers)),
		DataSources:   append([]string(nil), price.Providers...),
	}
	if price.SampleCount > 0 {
		specs.PriceMin = models.Float(price.MinPrice)
		specs.PriceMax = models.Float(price.MaxPrice)
	}
	return specs
}

// ChangePercent is the rounded percent move from old to new, 0 without a
// positive old price.
func ChangePercent(oldPrice, newPrice float64) float64 {
	if oldPrice <= 0 {
		return 0
	}
	return pricing.Round2((newPrice - oldPrice) / oldPrice * 100)
}

// SourceCounts counts how many merged models each provider carried.
func SourceCounts(merged pricing.MergedSet) map[string]int {
	counts := make(map[string]int)
	for _, price := range merged {
		for _, p := range price.Providers {
			counts[p]++
		}
	}
	return counts
}
