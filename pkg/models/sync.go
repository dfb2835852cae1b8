package models

import (
	"fmt"
	"time"
)

// PriceUpdate is one sampled line of a sync report.
type PriceUpdate struct {
	GPU           string  `json:"gpu"`
	OldPrice      float64 `json:"oldPrice"`
	NewPrice      float64 `json:"newPrice"`
	ChangePercent float64 `json:"changePercent"`
	Source        string  `json:"source"`
	SampleSize    int     `json:"sampleSize"`
}

type SyncStats struct {
	TotalGPUs     int            `json:"totalGPUs"`
	Updated       int            `json:"updated"`
	NotFound      int            `json:"notFound"`
	Failed        int            `json:"failed"`
	HistoryFailed int            `json:"historyFailed"`
	Sources       map[string]int `json:"sources"`
	UpdateRate    string         `json:"updateRate"`
}

// SyncReport is the result of one persistence pass.
type SyncReport struct {
	StartedAt    time.Time     `json:"startedAt"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Stats        SyncStats     `json:"stats"`
	Updates      []PriceUpdate `json:"updates"`
	NotFoundGPUs []string      `json:"notFoundGPUs"`
	FailedGPUs   []string      `json:"failedGPUs,omitempty"`
}

// FormatUpdateRate renders updated/total as a percentage string with one decimal.
func FormatUpdateRate(updated, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(updated)/float64(total)*100)
}

// SyncRun is a persisted summary of a completed sync.
type SyncRun struct {
	ID         int64          `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	TotalGPUs  int            `json:"total_gpus"`
	Updated    int            `json:"updated"`
	NotFound   int            `json:"not_found"`
	Failed     int            `json:"failed"`
	Sources    map[string]int `json:"sources"`
}
