// Package vastai reads spot listings from the Vast.ai marketplace. Offers are
// many and noisy per model, so they are averaged.
package vastai

import (
	"context"
	"encoding/json"

	"github.com/go-resty/resty/v2"

	"github.com/gpuindex/gpu-price-index/internal/aggregate"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	Name           = "vastai"
	DefaultBaseURL = "https://console.vast.ai/api/v0"
)

// defaultQuery limits the search to rentable, verified machines.
var defaultQuery = map[string]interface{}{
	"rentable": map[string]bool{"eq": true},
	"verified": map[string]bool{"eq": true},
	"rented":   map[string]bool{"eq": false},
	"type":     "on-demand",
	"limit":    1000,
}

type Config struct {
	BaseURL string
	APIKey  string
	HTTP    *resty.Client
}

type Client struct {
	http   *resty.Client
	apiKey string
}

func New(cfg Config) *Client {
	client := cfg.HTTP
	if client == nil {
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		client = provider.NewHTTPClient(provider.HTTPConfig{BaseURL: baseURL})
	}
	return &Client{http: client, apiKey: cfg.APIKey}
}

type bundlesResponse struct {
	Offers []offer `json:"offers"`
}

type offer struct {
	ID                int64    `json:"id"`
	GPUName           string   `json:"gpu_name"`
	NumGPUs           int      `json:"num_gpus"`
	DPHTotal          float64  `json:"dph_total"`
	Reliability       *float64 `json:"reliability2"`
	CPUCoresEffective *float64 `json:"cpu_cores_effective"`
	CPURAM            *float64 `json:"cpu_ram"`
	DiskSpace         *float64 `json:"disk_space"`
	InetDown          *float64 `json:"inet_down"`
	DLPerf            *float64 `json:"dlperf"`
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) FetchOffers(ctx context.Context) ([]pricing.Offer, error) {
	query, err := json.Marshal(defaultQuery)
	if err != nil {
		return nil, provider.DecodeError(Name, err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", string(query))
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}

	resp, err := req.Get("/bundles/")
	if err := provider.CheckResponse(ctx, Name, resp, err); err != nil {
		return nil, err
	}

	var body bundlesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, provider.DecodeError(Name, err)
	}

	offers := make([]pricing.Offer, 0, len(body.Offers))
	for _, o := range body.Offers {
		if o.NumGPUs <= 0 || o.DPHTotal <= 0 {
			continue
		}
		n := float64(o.NumGPUs)
		offers = append(offers, pricing.Offer{
			Provider:     Name,
			GPUName:      o.GPUName,
			NumGPUs:      o.NumGPUs,
			HourlyPrice:  o.DPHTotal / n,
			CPUCores:     perGPU(o.CPUCoresEffective, n),
			RAMGB:        perGPU(mbToGB(o.CPURAM), n),
			DiskGB:       perGPU(o.DiskSpace, n),
			NetworkMbps:  o.InetDown,
			ComputeScore: perGPU(o.DLPerf, n),
			Reliability:  o.Reliability,
		})
	}

	logger.WithProvider(Name).Debugf("Fetched %d offers", len(offers))
	return offers, nil
}

func (c *Client) ParseName(vendorName string) (pricing.ModelName, bool) {
	return provider.ParseGPUName(vendorName, models.BrandNVIDIA)
}

func (c *Client) Aggregate(offers []pricing.Offer) pricing.Set {
	return aggregate.Average(Name, offers, c.ParseName)
}

func perGPU(v *float64, n float64) *float64 {
	if v == nil {
		return nil
	}
	per := *v / n
	return &per
}

func mbToGB(v *float64) *float64 {
	if v == nil {
		return nil
	}
	gb := *v / 1024
	return &gb
}
