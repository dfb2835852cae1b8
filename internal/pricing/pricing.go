// Package pricing holds the shapes exchanged between provider adapters, the
// per-provider aggregators and the merge step, plus the unit conversions they
// all share.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

// HoursPerMonth converts hourly rental prices to monthly ones for every source.
const HoursPerMonth = 730

var hoursPerMonth = decimal.NewFromInt(HoursPerMonth)

// HourlyToMonthly returns p * 730 rounded to cents.
func HourlyToMonthly(p float64) float64 {
	return decimal.NewFromFloat(p).Mul(hoursPerMonth).Round(2).InexactFloat64()
}

// MonthlyToHourly is the unrounded inverse of HourlyToMonthly.
func MonthlyToHourly(m float64) float64 {
	return decimal.NewFromFloat(m).Div(hoursPerMonth).InexactFloat64()
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Offer is one raw quote from a provider, before name normalization.
// HourlyPrice and the resource fields are per single GPU.
type Offer struct {
	Provider     string
	GPUName      string
	Seller       string
	NumGPUs      int
	HourlyPrice  float64
	CPUCores     *float64
	RAMGB        *float64
	DiskGB       *float64
	NetworkMbps  *float64
	ComputeScore *float64
	Reliability  *float64
}

// ModelName is a canonical (brand, model) pair.
type ModelName struct {
	Brand models.Brand
	Model string
}

func (n ModelName) Key() string {
	return models.ModelKey(n.Brand, n.Model)
}

// Specs carries the optional resource fields of an aggregate. Nil means no
// contributing offer reported the field.
type Specs struct {
	CPUCores     *float64
	RAMGB        *float64
	DiskGB       *float64
	NetworkMbps  *float64
	ComputeScore *float64
	Reliability  *float64
}

// ModelPrice summarizes one provider's offers for a canonical model.
// All prices are monthly.
type ModelPrice struct {
	Brand       models.Brand
	Model       string
	Provider    string
	Source      string
	Price       float64
	AvgPrice    float64
	MinPrice    float64
	MaxPrice    float64
	SampleCount int
	Specs       Specs
}

func (p ModelPrice) Key() string {
	return models.ModelKey(p.Brand, p.Model)
}

// Set is one provider's aggregate, keyed by models.ModelKey.
type Set map[string]ModelPrice

// MergedPrice is the winning aggregate for a key plus the names of every
// provider that carried the key, highest priority first.
type MergedPrice struct {
	ModelPrice
	Providers []string
}

type MergedSet map[string]MergedPrice
