package config

import (
	"github.com/gpuindex/gpu-price-index/internal/index"
)

func (i IndexConfig) ToEngineConfig() index.Config {
	return index.Config{
		Base:             i.Base,
		OverallDivisor:   i.OverallDivisor,
		HighEndDivisor:   i.HighEndDivisor,
		MidRangeDivisor:  i.MidRangeDivisor,
		BrandDivisor:     i.BrandDivisor,
		HighEndThreshold: i.HighEndThreshold,
		MidRangeMin:      i.MidRangeMin,
		MidRangeMax:      i.MidRangeMax,
		FlagshipModels:   i.FlagshipModels,
		HistoryLimit:     i.HistoryLimit,
	}
}
