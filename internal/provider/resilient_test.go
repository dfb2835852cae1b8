package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/resilience"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

type scriptedProvider struct {
	calls    atomic.Int32
	hang     bool
	failures int32
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) FetchOffers(ctx context.Context) ([]pricing.Offer, error) {
	n := p.calls.Add(1)
	if p.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= p.failures {
		return nil, errors.New("upstream 503")
	}
	return []pricing.Offer{{Provider: "scripted", GPUName: "RTX 4090", HourlyPrice: 0.5}}, nil
}

func (p *scriptedProvider) ParseName(name string) (pricing.ModelName, bool) {
	return ParseGPUName(name, models.BrandNVIDIA)
}

func (p *scriptedProvider) Aggregate([]pricing.Offer) pricing.Set { return pricing.Set{} }

func TestResilient_FetchOffers(t *testing.T) {
	tests := []struct {
		name      string
		provider  *scriptedProvider
		retries   int
		wantErr   error
		wantOK    bool
		wantCalls int32
	}{
		{"succeeds first try", &scriptedProvider{}, 3, nil, true, 1},
		{"recovers after one failure", &scriptedProvider{failures: 1}, 3, nil, true, 2},
		{"stops after retry attempts", &scriptedProvider{failures: 10}, 3, nil, false, 3},
		{"hanging call times out", &scriptedProvider{hang: true}, 1, context.DeadlineExceeded, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResilient(ResilientConfig{
				Provider:      tt.provider,
				Timeout:       50 * time.Millisecond,
				RetryAttempts: tt.retries,
				RetryDelay:    time.Millisecond,
				MaxFailures:   10,
			})

			start := time.Now()
			offers, err := r.FetchOffers(context.Background())

			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, tt.wantCalls, tt.provider.calls.Load())
			if tt.wantOK {
				require.NoError(t, err)
				assert.Len(t, offers, 1)
				return
			}
			require.Error(t, err)
			assert.Nil(t, offers)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestResilient_OpenBreakerShortCircuits(t *testing.T) {
	p := &scriptedProvider{failures: 100}
	transitions := make(chan resilience.State, 4)
	r := NewResilient(ResilientConfig{
		Provider:      p,
		Timeout:       50 * time.Millisecond,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
		MaxFailures:   2,
		OpenTimeout:   time.Hour,
		OnStateChange: func(_ string, _, to resilience.State) {
			transitions <- to
		},
	})

	for i := 0; i < 2; i++ {
		_, err := r.FetchOffers(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}
	assert.Equal(t, resilience.StateOpen, r.CircuitState())

	_, err := r.FetchOffers(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), p.calls.Load())
	select {
	case to := <-transitions:
		assert.Equal(t, resilience.StateOpen, to)
	case <-time.After(time.Second):
		t.Fatal("no state change reported")
	}
}

func TestResilient_PassesThroughIdentity(t *testing.T) {
	r := NewResilient(ResilientConfig{Provider: &scriptedProvider{}})

	assert.Equal(t, "scripted", r.Name())
	name, ok := r.ParseName("RTX 4090")
	assert.True(t, ok)
	assert.Equal(t, "RTX 4090", name.Model)
}
