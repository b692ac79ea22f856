package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"offers":[{"gpu_name":"RTX 4090"}]}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)

	var out struct {
		Offers []struct {
			GPUName string `json:"gpu_name"`
		} `json:"offers"`
	}
	err := c.GetJSON(context.Background(), "vast_ai", srv.URL, nil, &out)
	require.NoError(t, err)
	require.Len(t, out.Offers, 1)
	assert.Equal(t, "RTX 4090", out.Offers[0].GPUName)
}

func TestClient_StatusClassification(t *testing.T) {
	cases := []struct {
		name         string
		status       int
		wantConfig   bool
		wantTransient bool
	}{
		{"not found is config", http.StatusNotFound, true, false},
		{"unauthorized is config", http.StatusUnauthorized, true, false},
		{"forbidden is config", http.StatusForbidden, true, false},
		{"rate limited is transient", http.StatusTooManyRequests, false, true},
		{"server error is transient", http.StatusInternalServerError, false, true},
		{"bad gateway is transient", http.StatusBadGateway, false, true},
		{"teapot is transient", http.StatusTeapot, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewClient(time.Second)
			var out map[string]interface{}
			err := c.GetJSON(context.Background(), "test", srv.URL, nil, &out)

			require.Error(t, err)
			assert.Equal(t, tc.wantConfig, IsConfigError(err))
			assert.Equal(t, tc.wantTransient, IsTransientError(err))
		})
	}
}

func TestClient_MalformedBodyIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"offers": [`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, &out)

	require.Error(t, err)
	assert.True(t, IsTransientError(err))
}

func TestClient_EmptyBodyIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(time.Second)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, &out)

	require.Error(t, err)
	assert.True(t, IsTransientError(err))
}

func TestClient_ConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(time.Second)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "test", srv.URL, nil, &out)

	require.Error(t, err)
	assert.True(t, IsTransientError(err))
}

func TestClient_PostJSONSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data":{"gpuTypes":[]}}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	var out map[string]interface{}
	err := c.PostJSON(context.Background(), "runpod", srv.URL, nil, map[string]string{"query": "{ gpuTypes { displayName } }"}, &out)
	require.NoError(t, err)
}
