package vastai

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

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(providers.NewClient(5 * time.Second))
	p.baseURL = srv.URL
	return p
}

func TestFetch_ParsesOfferEnvelope(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"offers": [
				{
					"gpu_name": "RTX 4090",
					"dph_total": 0.42,
					"geolocation": "Sweden, SE",
					"num_gpus": 2,
					"machine_id": 8201,
					"gpu_ram": 24.0,
					"cpu_cores": 16,
					"inet_down": 850.5
				},
				{
					"gpu_display_name": "A100 SXM4",
					"cost_per_hr": "1.35",
					"num_gpus": 1
				}
			]
		}`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 2)

	first := offers[0]
	assert.Equal(t, "RTX 4090", first.GPUName)
	assert.Equal(t, "0.42", first.Price)
	assert.Equal(t, "sweden, se", first.Region)
	assert.Equal(t, "2", first.Availability)
	assert.Equal(t, "8201", first.SourceID)
	assert.Equal(t, "24", first.Extra["gpu_ram"])
	assert.Equal(t, "16", first.Extra["cpu_cores"])
	assert.Equal(t, "850.5", first.Extra["inet_down"])

	second := offers[1]
	assert.Equal(t, "A100 SXM4", second.GPUName)
	assert.Equal(t, "1.35", second.Price)
	assert.Equal(t, "", second.Region)
	assert.Equal(t, "1", second.Availability)
}

func TestFetch_ParsesBareList(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"gpu_name": "RTX 3090", "dph_total": 0.21, "num_gpus": 1}]`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "RTX 3090", offers[0].GPUName)
	assert.Equal(t, "0.21", offers[0].Price)
}

func TestFetch_KeepsUnparsablePriceForNormalizer(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"offers": [{"gpu_name": "RTX 4090", "dph_total": "not-a-number"}]}`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "not-a-number", offers[0].Price)
}

func TestFetch_EmptyOfferListIsTransient(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"offers": []}`))
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsTransientError(err))
}

func TestFetch_MissingEndpointIsConfigError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsConfigError(err))
}

func TestFetch_ServerErrorIsTransient(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsTransientError(err))
}
