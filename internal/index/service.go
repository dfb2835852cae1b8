package index

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gpuindex/gpu-price-index/internal/cache"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const cacheKey = "index:snapshot"

type GPULister interface {
	GetAll(ctx context.Context, brand models.Brand) ([]models.GPU, error)
}

type HistoryReader interface {
	GetSince(ctx context.Context, since time.Time, limit int) ([]models.PriceObservation, error)
}

// Service loads the inputs for Engine.Compute and keeps the last snapshot in
// a cache store.
type Service struct {
	engine  *Engine
	gpus    GPULister
	history HistoryReader
	cache   cache.Store
	ttl     time.Duration
	now     func() time.Time
}

type ServiceConfig struct {
	Engine  *Engine
	GPUs    GPULister
	History HistoryReader
	// Cache may be nil, which disables caching.
	Cache    cache.Store
	CacheTTL time.Duration
	Now      func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Engine == nil {
		cfg.Engine = NewEngine(DefaultConfig())
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		engine:  cfg.Engine,
		gpus:    cfg.GPUs,
		history: cfg.History,
		cache:   cfg.Cache,
		ttl:     cfg.CacheTTL,
		now:     cfg.Now,
	}
}

// Snapshot returns the cached snapshot when fresh, computing it otherwise.
func (s *Service) Snapshot(ctx context.Context) (models.IndexSnapshot, error) {
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
			logger.Warnf("Index cache read failed: %v", err)
		} else if ok {
			var snap models.IndexSnapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				return snap, nil
			}
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the snapshot from storage and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context) (models.IndexSnapshot, error) {
	now := s.now()

	gpus, err := s.gpus.GetAll(ctx, "")
	if err != nil {
		return models.IndexSnapshot{}, fmt.Errorf("failed to load gpus: %w", err)
	}

	history, err := s.history.GetSince(ctx, now.Add(-HistoryWindow), s.engine.Config().HistoryLimit)
	if err != nil {
		return models.IndexSnapshot{}, fmt.Errorf("failed to load price history: %w", err)
	}

	snap := s.engine.Compute(gpus, history, now)

	if s.cache != nil {
		raw, err := json.Marshal(snap)
		if err == nil {
			err = s.cache.Set(ctx, cacheKey, raw, s.ttl)
		}
		if err != nil {
			logger.Warnf("Index cache write failed: %v", err)
		}
	}

	return snap, nil
}
