package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := New(providers.NewClient(5*time.Second), cache.NewMemory(), time.Minute)
	return s.WithEndpoint(srv.URL)
}

func TestTokenRate_FetchesAndCaches(t *testing.T) {
	requests := 0
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "akash-network", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		_, _ = w.Write([]byte(`{"akash-network": {"usd": 3.42}}`))
	})

	rate, ok := s.TokenRate(context.Background(), "akash-network")
	require.True(t, ok)
	assert.Equal(t, 3.42, rate)

	// Second lookup is served from the cache.
	rate, ok = s.TokenRate(context.Background(), "akash-network")
	require.True(t, ok)
	assert.Equal(t, 3.42, rate)
	assert.Equal(t, 1, requests)
}

func TestTokenRate_UpstreamFailureIsSoft(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, ok := s.TokenRate(context.Background(), "io-net")
	assert.False(t, ok)
}

func TestTokenRate_MissingQuoteIsSoft(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, ok := s.TokenRate(context.Background(), "io-net")
	assert.False(t, ok)
}

func TestTokenRate_ZeroQuoteIsSoft(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"io-net": {"usd": 0}}`))
	})

	_, ok := s.TokenRate(context.Background(), "io-net")
	assert.False(t, ok)
}

func TestTokenRate_EmptyTokenIsRejected(t *testing.T) {
	s := New(providers.NewClient(time.Second), nil, 0)

	_, ok := s.TokenRate(context.Background(), "")
	assert.False(t, ok)
}

func TestTokenRate_WorksWithoutCache(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`{"akash-network": {"usd": 2.10}}`))
	}))
	t.Cleanup(srv.Close)

	s := New(providers.NewClient(5*time.Second), nil, 0).WithEndpoint(srv.URL)

	for i := 0; i < 2; i++ {
		rate, ok := s.TokenRate(context.Background(), "akash-network")
		require.True(t, ok)
		assert.Equal(t, 2.10, rate)
	}
	assert.Equal(t, 2, requests)
}
