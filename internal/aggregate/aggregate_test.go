package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

// exactParser maps a handful of vendor names directly.
func exactParser(names map[string]pricing.ModelName) NameParser {
	return func(vendorName string) (pricing.ModelName, bool) {
		n, ok := names[vendorName]
		return n, ok
	}
}

var testNames = exactParser(map[string]pricing.ModelName{
	"rtx4090": {Brand: models.BrandNVIDIA, Model: "RTX 4090"},
	"4090":    {Brand: models.BrandNVIDIA, Model: "RTX 4090"},
	"h100":    {Brand: models.BrandNVIDIA, Model: "H100"},
})

func offer(name, seller string, hourly float64) pricing.Offer {
	return pricing.Offer{Provider: "test", GPUName: name, Seller: seller, NumGPUs: 1, HourlyPrice: hourly}
}

func TestAverage(t *testing.T) {
	a := offer("rtx4090", "", 0.5)
	a.CPUCores = models.Float(8)
	b := offer("4090", "", 1.0)
	b.CPUCores = models.Float(16)
	offers := []pricing.Offer{
		a,
		b,
		offer("h100", "", 2.0),
		offer("unknown", "", 1.0),
		offer("h100", "", 0),
	}

	set := Average("test", offers, testNames)
	require.Len(t, set, 2)

	rtx, ok := set[models.ModelKey(models.BrandNVIDIA, "RTX 4090")]
	require.True(t, ok)
	assert.Equal(t, 547.5, rtx.Price)
	assert.Equal(t, rtx.Price, rtx.AvgPrice)
	assert.Equal(t, 365.0, rtx.MinPrice)
	assert.Equal(t, 730.0, rtx.MaxPrice)
	assert.Equal(t, 2, rtx.SampleCount)
	assert.Equal(t, "test", rtx.Source)
	require.NotNil(t, rtx.Specs.CPUCores)
	assert.Equal(t, 12.0, *rtx.Specs.CPUCores)
	assert.Nil(t, rtx.Specs.RAMGB)

	h100 := set["NVIDIA|H100"]
	assert.Equal(t, 1460.0, h100.Price)
	assert.Equal(t, 1, h100.SampleCount)
}

func TestCheapest(t *testing.T) {
	cheap := offer("h100", "community", 1.99)
	cheap.RAMGB = models.Float(225)
	offers := []pricing.Offer{
		offer("h100", "secure", 2.49),
		cheap,
		offer("h100", "spot", 1.99),
	}

	set := Cheapest("test", offers, testNames)
	require.Len(t, set, 1)

	h100 := set["NVIDIA|H100"]
	assert.Equal(t, 1452.7, h100.Price)
	assert.Equal(t, "test - community", h100.Source)
	assert.Equal(t, "test", h100.Provider)
	assert.Equal(t, 3, h100.SampleCount)
	assert.Equal(t, 1817.7, h100.MaxPrice)
	require.NotNil(t, h100.Specs.RAMGB)
	assert.Equal(t, 225.0, *h100.Specs.RAMGB)
}

func TestAggregate_KeysMatchModelKey(t *testing.T) {
	offers := []pricing.Offer{offer("rtx4090", "", 1), offer("h100", "", 2)}

	for _, set := range []pricing.Set{
		Average("test", offers, testNames),
		Cheapest("test", offers, testNames),
	} {
		for key, price := range set {
			assert.Equal(t, models.ModelKey(price.Brand, price.Model), key)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Average("test", nil, testNames))
	assert.Empty(t, Cheapest("test", nil, testNames))
}
