package models

import "time"

// IndexSnapshot is recomputed on every query and never stored.
type IndexSnapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	GPUComputeIndex float64   `json:"gpuComputeIndex"`
	HighEndIndex    float64   `json:"highEndIndex"`
	MidRangeIndex   float64   `json:"midRangeIndex"`
	NVIDIAIndex     float64   `json:"nvidiaIndex"`
	AMDIndex        float64   `json:"amdIndex"`
	Change24h       float64   `json:"change24h"`
	Change7d        float64   `json:"change7d"`
	Change30d       float64   `json:"change30d"`
	Volatility      float64   `json:"volatility"`
}
