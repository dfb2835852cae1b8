package runpod

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpuindex/gpu-price-index/internal/provider"
)

const gpuTypesBody = `{"data":{"gpuTypes":[
  {"id":"NVIDIA GeForce RTX 4090","displayName":"RTX 4090","manufacturer":"Nvidia","memoryInGb":24,"secureCloud":true,"communityCloud":true,"securePrice":0.69,"communityPrice":0.44},
  {"id":"NVIDIA H100 80GB HBM3","displayName":"H100 SXM","manufacturer":"Nvidia","memoryInGb":80,"secureCloud":true,"communityCloud":false,"securePrice":0,"communityPrice":0,"lowestPrice":{"minimumBidPrice":null,"uninterruptablePrice":2.99}},
  {"id":"AMD Instinct MI300X OAM","displayName":"MI300X","manufacturer":"AMD","memoryInGb":192,"secureCloud":false,"communityCloud":false,"securePrice":2.49,"communityPrice":0}
]}}`

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "gpuTypes")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOffers(t *testing.T) {
	srv := newServer(t, gpuTypesBody)
	c := New(Config{BaseURL: srv.URL, APIKey: "key"})

	offers, err := c.FetchOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 3)

	assert.Equal(t, SellerSecure, offers[0].Seller)
	assert.Equal(t, SellerCommunity, offers[1].Seller)
	assert.InDelta(t, 2.99, offers[2].HourlyPrice, 1e-9)

	set := c.Aggregate(offers)
	require.Len(t, set, 2)

	rtx := set["NVIDIA|RTX 4090"]
	assert.Equal(t, 321.2, rtx.Price)
	assert.Equal(t, "runpod - community", rtx.Source)

	h100 := set["NVIDIA|H100"]
	assert.Equal(t, 2182.7, h100.Price)
	assert.Equal(t, "runpod - secure", h100.Source)
}

func TestFetchOffers_GraphQLErrors(t *testing.T) {
	srv := newServer(t, `{"errors":[{"message":"unauthorized"}]}`)

	_, err := New(Config{BaseURL: srv.URL, APIKey: "key"}).FetchOffers(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrInvalidResponse))
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestFetchOffers_MissingKey(t *testing.T) {
	offers, err := New(Config{BaseURL: "http://127.0.0.1:0"}).FetchOffers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, offers)
}
