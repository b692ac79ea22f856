package ionet

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

type staticRates struct {
	rate float64
	ok   bool
}

func (s staticRates) TokenRate(_ context.Context, _ string) (float64, bool) {
	return s.rate, s.ok
}

func newTestProvider(t *testing.T, rates providers.RateSource, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := New(providers.NewClient(5*time.Second), rates, 0)
	p.baseURL = srv.URL
	return p
}

func TestFetch_ParsesDeviceEnvelope(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gpu", r.URL.Query().Get("type"))
		assert.Equal(t, "available", r.URL.Query().Get("status"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{
			"devices": [
				{
					"device_id": "dev-77",
					"gpu": {"model": "NVIDIA GeForce RTX 4090", "count": 2, "memory": 24},
					"pricing": {"usd_per_hour": 0.48},
					"location": {"country": "Norway"},
					"status": "available",
					"cpu": {"cores": 32},
					"memory": {"total_gb": 128},
					"network": {"bandwidth": 1000}
				}
			]
		}`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, "NVIDIA GeForce RTX 4090", offer.GPUName)
	assert.Equal(t, "0.48", offer.Price)
	assert.Equal(t, "norway", offer.Region)
	assert.Equal(t, "2", offer.Availability)
	assert.Equal(t, "dev-77", offer.SourceID)
	assert.Equal(t, "24", offer.Extra["gpu_memory"])
	assert.Equal(t, "32", offer.Extra["cpu_cores"])
	assert.Equal(t, "128", offer.Extra["ram_gb"])
	assert.Equal(t, "1000", offer.Extra["bandwidth_mbps"])
	assert.Equal(t, "available", offer.Extra["status"])
}

func TestFetch_ResolvesFieldFallbacks(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": 4411,
					"specs": {"gpu": {"name": "Tesla V100", "count": 1}},
					"price": {"hourly_rate": "0.52"},
					"region": "eu-central"
				}
			]
		}`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, "Tesla V100", offer.GPUName)
	assert.Equal(t, "0.52", offer.Price)
	assert.Equal(t, "eu-central", offer.Region)
	assert.Equal(t, "4411", offer.SourceID)
}

func TestFetch_ConvertsTokenPricing(t *testing.T) {
	body := `{
		"devices": [
			{
				"device_id": "dev-io",
				"gpu": {"model": "A100"},
				"pricing": {"io_per_hour": 100}
			}
		]
	}`

	t.Run("static rate", func(t *testing.T) {
		p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		offers, err := p.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, "0.3", offers[0].Price)
	})

	t.Run("live rate", func(t *testing.T) {
		p := newTestProvider(t, staticRates{rate: 0.005, ok: true}, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		offers, err := p.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, "0.5", offers[0].Price)
	})
}

func TestFetch_SkipsMalformedDevices(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"gpu": "not-an-object"},
			{"pricing": {"usd_per_hour": 0.9}},
			{"gpu": {"model": "RTX 3080"}, "pricing": {"usd_per_hour": 0.3}}
		]`))
	})

	offers, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "RTX 3080", offers[0].GPUName)
}

func TestFetch_NoUsableDevicesIsTransient(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"devices": [{"device_id": "x"}]}`))
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsTransientError(err))
}

func TestFetch_RateLimitIsTransient(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, providers.IsTransientError(err))
}
