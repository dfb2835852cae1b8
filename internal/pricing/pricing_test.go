package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

func TestHourlyToMonthly(t *testing.T) {
	tests := []struct {
		hourly float64
		want   float64
	}{
		{1.0, 730},
		{0.5, 365},
		{2.49, 1817.7},
		{0.333, 243.09},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HourlyToMonthly(tt.hourly), "hourly %v", tt.hourly)
	}
}

func TestMonthlyToHourly_RoundTrip(t *testing.T) {
	for _, hourly := range []float64{0.44, 1.99, 2.5, 3.89} {
		monthly := HourlyToMonthly(hourly)
		assert.InDelta(t, hourly, MonthlyToHourly(monthly), 0.0001)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, -2.35, Round2(-2.345))
}

func TestModelPrice_Key(t *testing.T) {
	p := ModelPrice{Brand: models.BrandNVIDIA, Model: "H100"}
	assert.Equal(t, "NVIDIA|H100", p.Key())
	assert.Equal(t, p.Key(), ModelName{Brand: models.BrandNVIDIA, Model: "H100"}.Key())
}
