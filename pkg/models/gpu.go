package models

import (
	"time"
)

type Brand string

const (
	BrandNVIDIA Brand = "NVIDIA"
	BrandAMD    Brand = "AMD"
	BrandOther  Brand = "other"
)

type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityLimited    Availability = "limited"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// KeySeparator joins brand and model in the canonical key. Stored brand/model
// text on the gpus table is joined against provider output with it.
const KeySeparator = "|"

// ModelKey builds the canonical "brand|model" join key.
func ModelKey(brand Brand, model string) string {
	return string(brand) + KeySeparator + model
}

// GPUSpecs holds the optional extended columns refreshed on every sync.
// A nil field means no provider reported it.
type GPUSpecs struct {
	CPUCores      *float64 `json:"cpu_cores,omitempty"`
	RAMGB         *float64 `json:"ram_gb,omitempty"`
	DiskGB        *float64 `json:"disk_gb,omitempty"`
	NetworkMbps   *float64 `json:"network_mbps,omitempty"`
	ComputeScore  *float64 `json:"compute_score,omitempty"`
	Reliability   *float64 `json:"reliability,omitempty"`
	ProviderCount *int     `json:"provider_count,omitempty"`
	PriceMin      *float64 `json:"price_min,omitempty"`
	PriceMax      *float64 `json:"price_max,omitempty"`
	DataSources   []string `json:"data_sources,omitempty"`
}

type GPU struct {
	ID           int64        `json:"id"`
	Brand        Brand        `json:"brand"`
	Model        string       `json:"model"`
	MSRP         float64      `json:"msrp"`
	CurrentPrice float64      `json:"current_price"`
	Availability Availability `json:"availability"`
	Specs        GPUSpecs     `json:"specs"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (g *GPU) Key() string {
	return ModelKey(g.Brand, g.Model)
}

func (g *GPU) Label() string {
	return string(g.Brand) + " " + g.Model
}

// PriceObservation is one append-only row of price_history.
type PriceObservation struct {
	ID         int64     `json:"id"`
	GPUID      int64     `json:"gpu_id"`
	Price      float64   `json:"price"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}
