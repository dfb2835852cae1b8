package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func gpu(brand models.Brand, model string, price float64) models.GPU {
	return models.GPU{Brand: brand, Model: model, CurrentPrice: price}
}

func obs(ago time.Duration, price float64) models.PriceObservation {
	return models.PriceObservation{GPUID: 1, Price: price, RecordedAt: now.Add(-ago)}
}

func TestCompute_Boundaries(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name    string
		gpus    []models.GPU
		history []models.PriceObservation
	}{
		{"both empty", nil, nil},
		{"no gpus", nil, []models.PriceObservation{obs(time.Hour, 900), obs(2*time.Hour, 1100)}},
		{"only unpriced gpus", []models.GPU{gpu(models.BrandNVIDIA, "H100", 0)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := engine.Compute(tt.gpus, tt.history, now)

			assert.Equal(t, 100.0, snap.GPUComputeIndex)
			assert.Equal(t, 100.0, snap.HighEndIndex)
			assert.Equal(t, 100.0, snap.MidRangeIndex)
			assert.Equal(t, 100.0, snap.NVIDIAIndex)
			assert.Equal(t, 100.0, snap.AMDIndex)
			assert.Equal(t, 0.0, snap.Change24h)
			assert.Equal(t, 0.0, snap.Change7d)
			assert.Equal(t, 0.0, snap.Change30d)
			assert.Equal(t, 0.0, snap.Volatility)
		})
	}
}

func TestCompute_EmptyHistory(t *testing.T) {
	gpus := []models.GPU{gpu(models.BrandNVIDIA, "H100", 2000)}

	snap := NewEngine(DefaultConfig()).Compute(gpus, nil, now)

	assert.Equal(t, 200.0, snap.GPUComputeIndex)
	assert.Equal(t, 200.0, snap.HighEndIndex)
	assert.Equal(t, 200.0, snap.NVIDIAIndex)
	assert.Equal(t, 100.0, snap.MidRangeIndex)
	assert.Equal(t, 100.0, snap.AMDIndex)
	assert.Equal(t, 0.0, snap.Change24h)
	assert.Equal(t, 0.0, snap.Change7d)
	assert.Equal(t, 0.0, snap.Change30d)
	assert.Equal(t, 0.0, snap.Volatility)
}

func TestCompute_ChangeAgainstWindowAverage(t *testing.T) {
	gpus := []models.GPU{
		gpu(models.BrandNVIDIA, "H100", 1200),
		gpu(models.BrandNVIDIA, "RTX 3090", 800),
	}
	history := []models.PriceObservation{
		obs(2*time.Hour, 900),
		obs(20*time.Hour, 1000),
		obs(3*Day, 800),
		obs(20*Day, 850),
		obs(40*Day, 1),
	}

	snap := NewEngine(DefaultConfig()).Compute(gpus, history, now)

	// current average 1000 against 24h average 950
	assert.Equal(t, 5.26, snap.Change24h)
	// 7d average 900
	assert.Equal(t, 11.11, snap.Change7d)
	// 30d average 887.5
	assert.Equal(t, 12.68, snap.Change30d)
}

func TestCompute_Subsets(t *testing.T) {
	gpus := []models.GPU{
		gpu(models.BrandNVIDIA, "H100", 2000),
		gpu(models.BrandNVIDIA, "RTX 4090", 300),
		gpu(models.BrandNVIDIA, "RTX 4070", 450),
		gpu(models.BrandAMD, "MI300X", 1500),
		gpu(models.BrandAMD, "RX 7800 XT", 550),
		gpu(models.BrandOther, "X1", 100),
	}

	snap := NewEngine(DefaultConfig()).Compute(gpus, nil, now)

	// (2000+300+450+1500+550+100)/6 = 816.67
	assert.Equal(t, 81.67, snap.GPUComputeIndex)
	// H100, RTX 4090 (flagship priced low), MI300X: 1266.67
	assert.Equal(t, 126.67, snap.HighEndIndex)
	// RTX 4070, RX 7800 XT: 500
	assert.Equal(t, 100.0, snap.MidRangeIndex)
	// 2750/3
	assert.Equal(t, 91.67, snap.NVIDIAIndex)
	assert.Equal(t, 102.5, snap.AMDIndex)
}

func TestCompute_EmptyHighEnd(t *testing.T) {
	gpus := []models.GPU{
		gpu(models.BrandNVIDIA, "RTX 3090", 500),
		gpu(models.BrandNVIDIA, "RTX 4080", 600),
	}

	snap := NewEngine(DefaultConfig()).Compute(gpus, nil, now)

	assert.Equal(t, 100.0, snap.HighEndIndex)
	assert.Equal(t, 55.0, snap.GPUComputeIndex)
	assert.Equal(t, 110.0, snap.MidRangeIndex)
	assert.Equal(t, 100.0, snap.AMDIndex)
}

func TestCompute_Deterministic(t *testing.T) {
	gpus := []models.GPU{
		gpu(models.BrandNVIDIA, "A100", 1234.56),
		gpu(models.BrandAMD, "MI250", 987.65),
		gpu(models.BrandNVIDIA, "L4", 321.09),
	}
	history := []models.PriceObservation{obs(time.Hour, 1001.1), obs(5*Day, 777.7), obs(6*Day, 888.8)}
	engine := NewEngine(DefaultConfig())

	assert.Equal(t, engine.Compute(gpus, history, now), engine.Compute(gpus, history, now))
}

func TestVolatility(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single observation", []float64{1000}, 0},
		{"two points", []float64{90, 110}, 10},
		{"flat", []float64{500, 500, 500}, 0},
		{"zero mean", []float64{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Volatility(tt.prices))
		})
	}
}

func TestCompute_VolatilitySingleWeekObservation(t *testing.T) {
	gpus := []models.GPU{gpu(models.BrandNVIDIA, "H100", 1000)}
	history := []models.PriceObservation{obs(time.Hour, 1000), obs(10*Day, 500)}

	snap := NewEngine(DefaultConfig()).Compute(gpus, history, now)

	assert.Equal(t, 0.0, snap.Volatility)
}

func TestTrailingAverage(t *testing.T) {
	history := []models.PriceObservation{obs(time.Hour, 100), obs(2*Day, 200), obs(10*Day, 900)}

	avg, n := TrailingAverage(history, now, 7*Day)
	assert.Equal(t, 150.0, avg)
	assert.Equal(t, 2, n)

	avg, n = TrailingAverage(nil, now, 7*Day)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 0, n)
}

func TestIsFlagship(t *testing.T) {
	engine := NewEngine(Config{FlagshipModels: []string{"h100", " "}})

	assert.True(t, engine.IsFlagship("H100"))
	assert.True(t, engine.IsFlagship("H100 NVL"))
	assert.False(t, engine.IsFlagship("A100"))
}

func TestIsFlagship_WholeTokens(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		model string
		want  bool
	}{
		{"A100", true},
		{"RTX A1000", false},
		{"A1000", false},
		{"H200", true},
		{"GH200", false},
		{"RTX 4090", true},
		{"RTX  4090", true},
		{"RTX 40900", false},
		{"RX 7900 XTX", true},
		{"RX 7900 XT", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.IsFlagship(tt.model))
		})
	}
}
