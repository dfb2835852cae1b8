// Package index computes the composite GPU price indices, windowed price
// changes and volatility from current catalog prices and recent history.
package index

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	Day = 24 * time.Hour

	// HistoryWindow is the longest trailing window any statistic reads.
	HistoryWindow = 30 * Day
)

// Config holds the index constants. Zero fields take DefaultConfig values.
type Config struct {
	Base             float64
	OverallDivisor   float64
	HighEndDivisor   float64
	MidRangeDivisor  float64
	BrandDivisor     float64
	HighEndThreshold float64
	MidRangeMin      float64
	MidRangeMax      float64
	FlagshipModels   []string
	// HistoryLimit caps how many observations one computation reads.
	HistoryLimit int
}

func DefaultConfig() Config {
	return Config{
		Base:             100,
		OverallDivisor:   1000,
		HighEndDivisor:   1000,
		MidRangeDivisor:  500,
		BrandDivisor:     1000,
		HighEndThreshold: 1000,
		MidRangeMin:      400,
		MidRangeMax:      1000,
		FlagshipModels:   []string{"RTX 4090", "RTX 5090", "H100", "H200", "A100", "RX 7900 XTX"},
		HistoryLimit:     10000,
	}
}

type Engine struct {
	cfg      Config
	flagship []string
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Base <= 0 {
		cfg.Base = def.Base
	}
	if cfg.OverallDivisor <= 0 {
		cfg.OverallDivisor = def.OverallDivisor
	}
	if cfg.HighEndDivisor <= 0 {
		cfg.HighEndDivisor = def.HighEndDivisor
	}
	if cfg.MidRangeDivisor <= 0 {
		cfg.MidRangeDivisor = def.MidRangeDivisor
	}
	if cfg.BrandDivisor <= 0 {
		cfg.BrandDivisor = def.BrandDivisor
	}
	if cfg.HighEndThreshold <= 0 {
		cfg.HighEndThreshold = def.HighEndThreshold
	}
	if cfg.MidRangeMin <= 0 && cfg.MidRangeMax <= 0 {
		cfg.MidRangeMin = def.MidRangeMin
		cfg.MidRangeMax = def.MidRangeMax
	}
	if cfg.FlagshipModels == nil {
		cfg.FlagshipModels = def.FlagshipModels
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}

	flagship := make([]string, 0, len(cfg.FlagshipModels))
	for _, m := range cfg.FlagshipModels {
		if m = tokenPadded(m); m != "  " {
			flagship = append(flagship, m)
		}
	}

	return &Engine{cfg: cfg, flagship: flagship}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Compute builds a snapshot. GPUs without a positive current price are
// ignored, and with none left every change and the volatility are 0.
// Observations outside (now-30d, now] are ignored.
func (e *Engine) Compute(gpus []models.GPU, history []models.PriceObservation, now time.Time) models.IndexSnapshot {
	var all, highEnd, midRange, nvidia, amd []float64

	for _, g := range gpus {
		price := g.CurrentPrice
		if price <= 0 {
			continue
		}
		all = append(all, price)
		if price >= e.cfg.HighEndThreshold || e.IsFlagship(g.Model) {
			highEnd = append(highEnd, price)
		}
		if price >= e.cfg.MidRangeMin && price < e.cfg.MidRangeMax {
			midRange = append(midRange, price)
		}
		switch g.Brand {
		case models.BrandNVIDIA:
			nvidia = append(nvidia, price)
		case models.BrandAMD:
			amd = append(amd, price)
		}
	}

	current, _ := mean(all)

	var volatility float64
	if len(all) > 0 {
		volatility = Volatility(windowPrices(history, now, 7*Day))
	}

	return models.IndexSnapshot{
		Timestamp:       now.UTC(),
		GPUComputeIndex: e.subIndex(all, e.cfg.OverallDivisor),
		HighEndIndex:    e.subIndex(highEnd, e.cfg.HighEndDivisor),
		MidRangeIndex:   e.subIndex(midRange, e.cfg.MidRangeDivisor),
		NVIDIAIndex:     e.subIndex(nvidia, e.cfg.BrandDivisor),
		AMDIndex:        e.subIndex(amd, e.cfg.BrandDivisor),
		Change24h:       change(current, windowPrices(history, now, Day)),
		Change7d:        change(current, windowPrices(history, now, 7*Day)),
		Change30d:       change(current, windowPrices(history, now, 30*Day)),
		Volatility:      volatility,
	}
}

// IsFlagship reports whether the model contains a flagship name as whole
// tokens, so "H100 NVL" matches H100 while "A1000" and "GH200" do not match
// A100 or H200.
func (e *Engine) IsFlagship(model string) bool {
	padded := tokenPadded(model)
	for _, f := range e.flagship {
		if strings.Contains(padded, f) {
			return true
		}
	}
	return false
}

// tokenPadded upper-cases s, collapses whitespace and pads it with a space on
// each side so substring checks only hit token boundaries.
func tokenPadded(s string) string {
	return " " + strings.Join(strings.Fields(strings.ToUpper(s)), " ") + " "
}

func (e *Engine) subIndex(prices []float64, divisor float64) float64 {
	avg, ok := mean(prices)
	if !ok {
		return round2(e.cfg.Base)
	}
	return round2(e.cfg.Base * avg / divisor)
}

// change is the percent move of current against the window average, 0 when
// there is no usable baseline.
func change(current float64, window []float64) float64 {
	baseline, ok := mean(window)
	if !ok || baseline <= 0 || current <= 0 {
		return 0
	}
	return round2((current - baseline) / baseline * 100)
}

// Volatility is the coefficient of variation of prices as a percentage,
// using the population standard deviation. Fewer than two prices yield 0.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	avg, _ := mean(prices)
	if avg == 0 {
		return 0
	}
	var sq float64
	for _, p := range prices {
		d := p - avg
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(prices)))
	return round2(stddev / avg * 100)
}

// TrailingAverage averages observations recorded in the window ending at now.
func TrailingAverage(history []models.PriceObservation, now time.Time, window time.Duration) (float64, int) {
	prices := windowPrices(history, now, window)
	avg, ok := mean(prices)
	if !ok {
		return 0, 0
	}
	return round2(avg), len(prices)
}

func windowPrices(history []models.PriceObservation, now time.Time, window time.Duration) []float64 {
	since := now.Add(-window)
	var prices []float64
	for _, obs := range history {
		if obs.RecordedAt.After(since) && !obs.RecordedAt.After(now) {
			prices = append(prices, obs.Price)
		}
	}
	return prices
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), true
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
