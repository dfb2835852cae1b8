// Package runpod reads GPU type pricing from the RunPod GraphQL API. Secure
// and community tiers become separate offers; each model keeps the cheaper.
package runpod

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/gpuindex/gpu-price-index/internal/aggregate"
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
	"github.com/gpuindex/gpu-price-index/internal/provider"
	"github.com/gpuindex/gpu-price-index/pkg/models"
)

const (
	Name           = "runpod"
	DefaultBaseURL = "https://api.runpod.io"

	SellerSecure    = "secure"
	SellerCommunity = "community"
)

const gpuTypesQuery = `query GpuTypes {
  gpuTypes {
    id
    displayName
    manufacturer
    memoryInGb
    secureCloud
    communityCloud
    securePrice
    communityPrice
    lowestPrice(input: {gpuCount: 1}) {
      minimumBidPrice
      uninterruptablePrice
    }
  }
}`

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

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data *struct {
		GPUTypes []gpuType `json:"gpuTypes"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type gpuType struct {
	ID             string       `json:"id"`
	DisplayName    string       `json:"displayName"`
	Manufacturer   string       `json:"manufacturer"`
	MemoryInGB     float64      `json:"memoryInGb"`
	SecureCloud    bool         `json:"secureCloud"`
	CommunityCloud bool         `json:"communityCloud"`
	SecurePrice    float64      `json:"securePrice"`
	CommunityPrice float64      `json:"communityPrice"`
	LowestPrice    *lowestPrice `json:"lowestPrice"`
}

type lowestPrice struct {
	MinimumBidPrice      *float64 `json:"minimumBidPrice"`
	UninterruptablePrice *float64 `json:"uninterruptablePrice"`
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
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(graphQLRequest{Query: gpuTypesQuery}).
		Post("/graphql")
	if err := provider.CheckResponse(ctx, Name, resp, err); err != nil {
		return nil, err
	}

	var body graphQLResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, provider.DecodeError(Name, err)
	}
	if len(body.Errors) > 0 {
		msgs := make([]string, 0, len(body.Errors))
		for _, e := range body.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, provider.Errorf(Name, provider.ErrInvalidResponse, "graphql errors: %s", strings.Join(msgs, "; "))
	}
	if body.Data == nil {
		return nil, provider.Errorf(Name, provider.ErrInvalidResponse, "missing data field")
	}

	var offers []pricing.Offer
	for _, t := range body.Data.GPUTypes {
		offers = append(offers, tierOffers(t)...)
	}

	logger.WithProvider(Name).Debugf("Fetched %d offers from %d GPU types", len(offers), len(body.Data.GPUTypes))
	return offers, nil
}

// tierOffers yields one offer per available price tier. When a tier flag is
// set without a list price, the lowest-price quote fills in.
func tierOffers(t gpuType) []pricing.Offer {
	name := t.ID
	if name == "" {
		name = t.DisplayName
	}
	if t.Manufacturer != "" && !strings.Contains(strings.ToUpper(name), strings.ToUpper(t.Manufacturer)) {
		name = t.Manufacturer + " " + name
	}

	secure := t.SecurePrice
	community := t.CommunityPrice
	if t.LowestPrice != nil {
		if secure <= 0 && t.SecureCloud && t.LowestPrice.UninterruptablePrice != nil {
			secure = *t.LowestPrice.UninterruptablePrice
		}
		if community <= 0 && t.CommunityCloud && t.LowestPrice.MinimumBidPrice != nil {
			community = *t.LowestPrice.MinimumBidPrice
		}
	}

	var offers []pricing.Offer
	if t.SecureCloud && secure > 0 {
		offers = append(offers, newOffer(name, SellerSecure, secure))
	}
	if t.CommunityCloud && community > 0 {
		offers = append(offers, newOffer(name, SellerCommunity, community))
	}
	return offers
}

func newOffer(name, seller string, hourly float64) pricing.Offer {
	return pricing.Offer{
		Provider:    Name,
		GPUName:     name,
		Seller:      seller,
		NumGPUs:     1,
		HourlyPrice: hourly,
	}
}

func (c *Client) ParseName(vendorName string) (pricing.ModelName, bool) {
	return provider.ParseGPUName(vendorName, models.BrandNVIDIA)
}

func (c *Client) Aggregate(offers []pricing.Offer) pricing.Set {
	return aggregate.Cheapest(Name, offers, c.ParseName)
}
