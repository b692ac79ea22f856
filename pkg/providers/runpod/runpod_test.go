package runpod

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/providers"
)

// newTestProvider routes the catalog and graphql endpoints to one server.
func newTestProvider(t *testing.T, apiKey string, mux *http.ServeMux) *Provider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := New(providers.NewClient(5*time.Second), apiKey)
	p.catalogURL = srv.URL + "/gpuTypes"
	p.graphqlURL = srv.URL + "/graphql"
	return p
}

func TestFetch_UsesPricedCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gpuTypes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": "gpu-4090",
					"displayName": "NVIDIA GeForce RTX 4090",
					"costPerHr": 0.69,
					"stockLevel": "High",
					"memoryInGb": 24,
					"secureCloud": true
				},
				{"displayName": "Unpriced Model"}
			]
		}`))
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		t.Error("graphql endpoint should not be called when the catalog is priced")
	})
	p := newTestProvider(t, "", mux)

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, "NVIDIA GeForce RTX 4090", offer.GPUName)
	assert.Equal(t, "0.69", offer.Price)
	assert.Equal(t, "global", offer.Region)
	assert.Equal(t, "High", offer.Availability)
	assert.Equal(t, "gpu-4090", offer.SourceID)
	assert.Equal(t, "24", offer.Extra["memory_gb"])
	assert.Equal(t, "true", offer.Extra["secure_cloud"])
}

func TestFetch_FallsBackToGraphQLWhenCatalogUnpriced(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gpuTypes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"gpuTypes": [{"displayName": "NVIDIA GeForce RTX 4090"}]}`))
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": {
				"gpuTypes": [
					{"id": "gql-4090", "displayName": "NVIDIA GeForce RTX 4090", "memoryInGb": 24},
					{"id": "gql-h100", "displayName": "NVIDIA H100 80GB HBM3"}
				]
			}
		}`))
	})
	p := newTestProvider(t, "", mux)

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 2)

	assert.Equal(t, "0.74", offers[0].Price)
	assert.Equal(t, "true", offers[0].Extra["price_estimated"])
	assert.Equal(t, "24", offers[0].Extra["memory_gb"])
	assert.Equal(t, "4.5", offers[1].Price)
	assert.Equal(t, "1", offers[1].Availability)
}

func TestFetch_FallsBackToGraphQLWhenCatalogMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gpuTypes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"gpuTypes": [{"displayName": "Tesla V100"}]}}`))
	})
	p := newTestProvider(t, "", mux)

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "0.89", offers[0].Price)
}

func TestFetch_SendsBearerTokenWhenConfigured(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gpuTypes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"displayName": "A40", "costPerHr": 0.79}]`))
	})
	p := newTestProvider(t, "test-key", mux)

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
}

func TestFetch_GraphQLErrorIsTransient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gpuTypes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "something broke"}]}`))
	})
	p := newTestProvider(t, "", mux)

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsTransientError(err))
}

func TestEstimatePrice(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"NVIDIA H100 80GB HBM3", 4.50},
		{"NVIDIA A100-SXM4-80GB", 2.80},
		{"NVIDIA GeForce RTX 4090", 0.74},
		{"RTX A4000", 0.79},
		{"Tesla V100-PCIE-16GB", 0.89},
		{"Tesla T4", 0.21},
		{"Some Future GPU", 0.50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, estimatePrice(tt.name))
		})
	}
}
