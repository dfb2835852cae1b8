// Package lambda reads the Lambda Cloud instance-type catalog. Each model
// keeps its cheapest configuration.
package lambda

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/gpuindex/gpu-price-index/internal/aggregate"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	Name           = "lambda"
	DefaultBaseURL = "https://cloud.lambdalabs.com/api/v1"
)

// Descriptions look like "8x H100 (80 GB SXM5)"; the parenthetical is noise.
var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	countPrefix   = regexp.MustCompile(`^\d+\s*x\s+`)
)

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

type instanceTypesResponse struct {
	Data map[string]instanceTypeEntry `json:"data"`
}

type instanceTypeEntry struct {
	InstanceType instanceType `json:"instance_type"`
	Regions      []region     `json:"regions_with_capacity_available"`
}

type instanceType struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	PriceCentsPerHour int64  `json:"price_cents_per_hour"`
	Specs             specs  `json:"specs"`
}

type specs struct {
	VCPUs      float64 `json:"vcpus"`
	MemoryGiB  float64 `json:"memory_gib"`
	StorageGiB float64 `json:"storage_gib"`
	GPUs       int     `json:"gpus"`
}

type region struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) FetchOffers(ctx context.Context) ([]pricing.Offer, error) {
	if c.apiKey == "" {
		logger.WithProvider(Name).WithError(provider.ErrMissingAPIKey).Warn("Skipping provider")
		return []pricing.Offer{}, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.apiKey, "").
		Get("/instance-types")
	if err := provider.CheckResponse(ctx, Name, resp, err); err != nil {
		return nil, err
	}

	var body instanceTypesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, provider.DecodeError(Name, err)
	}
	if body.Data == nil {
		return nil, provider.Errorf(Name, provider.ErrInvalidResponse, "missing data field")
	}

	// Map iteration order is random; sort so tie-breaks are stable.
	names := make([]string, 0, len(body.Data))
	for name := range body.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	offers := make([]pricing.Offer, 0, len(names))
	for _, name := range names {
		it := body.Data[name].InstanceType
		gpus := it.Specs.GPUs
		if gpus <= 0 || it.PriceCentsPerHour <= 0 {
			continue
		}
		n := float64(gpus)
		offers = append(offers, pricing.Offer{
			Provider:    Name,
			GPUName:     GPUDescription(it.Description),
			NumGPUs:     gpus,
			HourlyPrice: float64(it.PriceCentsPerHour) / 100 / n,
			CPUCores:    models.Float(it.Specs.VCPUs / n),
			RAMGB:       models.Float(it.Specs.MemoryGiB / n),
			DiskGB:      models.Float(it.Specs.StorageGiB / n),
		})
	}

	logger.WithProvider(Name).Debugf("Fetched %d instance types", len(offers))
	return offers, nil
}

// GPUDescription strips the GPU count prefix and the parenthetical memory
// note from an instance description.
func GPUDescription(description string) string {
	s := parenthetical.ReplaceAllString(description, "")
	s = countPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

func (c *Client) ParseName(vendorName string) (pricing.ModelName, bool) {
	return provider.ParseGPUName(vendorName, models.BrandNVIDIA)
}

func (c *Client) Aggregate(offers []pricing.Offer) pricing.Set {
	return aggregate.Cheapest(Name, offers, c.ParseName)
}
