package main

import (
	"github.com/go-resty/resty/v2"

	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/metrics"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/internal/provider/lambda"
	"github.com/gpuindex/gpu-price-index/internal/provider/runpod"
	"github.com/gpuindex/gpu-price-index/internal/provider/vastai"
	"github.com/gpuindex/gpu-price-index/internal/resilience"
	"github.com/gpuindex/gpu-price-index/pkg/config"
)

// buildProviders wires every enabled adapter behind timeout, retry and
// circuit breaker handling.
func buildProviders(cfg config.ProvidersConfig, m *metrics.Metrics) []provider.Provider {
	type entry struct {
		pc  config.ProviderConfig
		new func(pc config.ProviderConfig) provider.Provider
	}

	entries := []entry{
		{cfg.VastAI, func(pc config.ProviderConfig) provider.Provider {
			return vastai.New(vastai.Config{APIKey: pc.APIKey, HTTP: httpClient(pc, vastai.DefaultBaseURL)})
		}},
		{cfg.Lambda, func(pc config.ProviderConfig) provider.Provider {
			return lambda.New(lambda.Config{APIKey: pc.APIKey, HTTP: httpClient(pc, lambda.DefaultBaseURL)})
		}},
		{cfg.RunPod, func(pc config.ProviderConfig) provider.Provider {
			return runpod.New(runpod.Config{APIKey: pc.APIKey, HTTP: httpClient(pc, runpod.DefaultBaseURL)})
		}},
	}

	var providers []provider.Provider
	for _, e := range entries {
		if !e.pc.Enabled {
			continue
		}
		p := e.new(e.pc)
		providers = append(providers, provider.NewResilient(provider.ResilientConfig{
			Provider:      p,
			Timeout:       e.pc.Timeout,
			RetryAttempts: e.pc.RetryAttempts,
			RetryDelay:    e.pc.RetryDelay,
			MaxFailures:   e.pc.CircuitBreaker.MaxFailures,
			OpenTimeout:   e.pc.CircuitBreaker.Timeout,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.WithProvider(name).Warnf("Circuit breaker %s -> %s", from, to)
				m.SetCircuitBreakerState(name, int(to))
			},
		}))
		logger.WithProvider(p.Name()).Info("Provider enabled")
	}
	return providers
}

func httpClient(pc config.ProviderConfig, defaultBaseURL string) *resty.Client {
	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return provider.NewHTTPClient(provider.HTTPConfig{BaseURL: baseURL, Timeout: pc.Timeout})
}
