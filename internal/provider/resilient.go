package provider

import (
	"context"
	"time"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/resilience"
)

// Resilient wraps a provider with a per-call timeout, bounded retries and a
// circuit breaker. Name, ParseName and Aggregate pass through.
type Resilient struct {
	Provider
	breaker       *resilience.CircuitBreaker
	timeout       time.Duration
	retryAttempts int
	retryDelay    time.Duration
}

type ResilientConfig struct {
	Provider      Provider
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MaxFailures   int
	OpenTimeout   time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilient(cfg ResilientConfig) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          cfg.Provider.Name(),
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.OpenTimeout,
		OnStateChange: cfg.OnStateChange,
	})

	return &Resilient{
		Provider:      cfg.Provider,
		breaker:       breaker,
		timeout:       cfg.Timeout,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

func (r *Resilient) FetchOffers(ctx context.Context) ([]pricing.Offer, error) {
	var offers []pricing.Offer

	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		var lastErr error
		for attempt := 1; attempt <= r.retryAttempts; attempt++ {
			var err error
			offers, err = r.fetchOnce(ctx)
			if err == nil {
				return nil
			}
			lastErr = err

			logger.WithProvider(r.Name()).Warnf("Fetch attempt %d/%d failed: %v", attempt, r.retryAttempts, err)

			if attempt < r.retryAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(r.retryDelay):
				}
			}
		}
		return lastErr
	})
	if err != nil {
		return nil, err
	}

	return offers, nil
}

func (r *Resilient) fetchOnce(ctx context.Context) ([]pricing.Offer, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.Provider.FetchOffers(callCtx)
}

func (r *Resilient) CircuitState() resilience.State {
	return r.breaker.State()
}
