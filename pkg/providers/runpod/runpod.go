// Package runpod fetches GPU pricing from the RunPod catalog, falling back
// to the GraphQL API with estimated prices when the REST catalog is
// unavailable or unpriced.
package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

const (
	defaultCatalogEndpoint = "https://api.runpod.io/v2/gpuTypes"
	defaultGraphQLEndpoint = "https://api.runpod.ai/graphql"
	rateLimit              = 3 * time.Second
	defaultEstimate        = 0.5
)

// priceEstimates holds observed community-cloud rates per GPU family, used
// when the API returns models without prices. Matched by substring in
// order, so keep specific families ahead of shorter patterns like A40.
var priceEstimates = []struct {
	model string
	price float64
}{
	{"H100", 4.50},
	{"A100", 2.80},
	{"A6000", 1.50},
	{"RTX 4090", 0.74},
	{"RTX 4080", 0.56},
	{"RTX 4070", 0.39},
	{"RTX 3090", 0.44},
	{"RTX 3080", 0.32},
	{"A40", 0.79},
	{"V100", 0.89},
	{"T4", 0.21},
}

type Provider struct {
	client     *providers.Client
	apiKey     string
	catalogURL string
	graphqlURL string
}

func New(client *providers.Client, apiKey string) *Provider {
	return &Provider{
		client:     client,
		apiKey:     apiKey,
		catalogURL: defaultCatalogEndpoint,
		graphqlURL: defaultGraphQLEndpoint,
	}
}

func Factory(deps providers.Deps) (providers.Provider, error) {
	if deps.Client == nil {
		return nil, errors.New("runpod: http client is required")
	}
	return New(deps.Client, deps.RunPodAPIKey), nil
}

func (p *Provider) Name() string { return providers.SourceRunPod }

func (p *Provider) RateLimit() time.Duration { return rateLimit }

// gpuType covers the field variants both APIs use for the same listing.
type gpuType struct {
	ID          interface{} `json:"id"`
	DisplayName string      `json:"displayName"`
	Name        string      `json:"name"`
	GPUName     string      `json:"gpuName"`
	CostPerHr   interface{} `json:"costPerHr"`
	Price       interface{} `json:"price"`
	PricePerHr  interface{} `json:"pricePerHr"`
	StockLevel  interface{} `json:"stockLevel"`
	MemoryInGb  interface{} `json:"memoryInGb"`
	SecureCloud interface{} `json:"secureCloud"`
}

func (p *Provider) Fetch(ctx context.Context) ([]domain.RawOffer, error) {
	offers, err := p.fetchCatalog(ctx)
	if err == nil && len(offers) > 0 {
		return offers, nil
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("runpod catalog fetch failed, trying graphql")
	}
	return p.fetchGraphQL(ctx)
}

func (p *Provider) fetchCatalog(ctx context.Context) ([]domain.RawOffer, error) {
	var root json.RawMessage
	if err := p.client.GetJSON(ctx, p.Name(), p.catalogURL, p.authHeaders(), &root); err != nil {
		return nil, err
	}

	items, err := parseCatalog(root)
	if err != nil {
		return nil, &providers.TransientError{Source: p.Name(), Err: err}
	}

	offers := make([]domain.RawOffer, 0, len(items))
	for _, item := range items {
		name := firstNonEmpty(item.DisplayName, item.Name, item.GPUName)
		price := providers.FirstField(item.CostPerHr, item.Price, item.PricePerHr)
		// Unpriced catalog rows are served by the graphql path instead.
		if name == "" || price == "" {
			continue
		}

		extra := map[string]string{}
		providers.AddField(extra, "memory_gb", item.MemoryInGb)
		providers.AddField(extra, "secure_cloud", item.SecureCloud)

		offers = append(offers, domain.RawOffer{
			GPUName:      name,
			Price:        price,
			Region:       "global",
			Availability: providers.FieldString(item.StockLevel),
			SourceID:     providers.FieldString(item.ID),
			Extra:        extra,
		})
	}
	return offers, nil
}

func (p *Provider) fetchGraphQL(ctx context.Context) ([]domain.RawOffer, error) {
	request := struct {
		Query string `json:"query"`
	}{Query: "{ gpuTypes { id displayName memoryInGb } }"}

	var response struct {
		Data struct {
			GPUTypes []gpuType `json:"gpuTypes"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := p.client.PostJSON(ctx, p.Name(), p.graphqlURL, p.authHeaders(), request, &response); err != nil {
		return nil, err
	}
	if len(response.Errors) > 0 {
		return nil, &providers.TransientError{
			Source: p.Name(),
			Err:    fmt.Errorf("graphql error: %s", response.Errors[0].Message),
		}
	}
	if len(response.Data.GPUTypes) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no gpu types in response")}
	}

	offers := make([]domain.RawOffer, 0, len(response.Data.GPUTypes))
	for _, item := range response.Data.GPUTypes {
		name := firstNonEmpty(item.DisplayName, item.Name, item.GPUName)
		if name == "" {
			continue
		}

		extra := map[string]string{"price_estimated": "true"}
		providers.AddField(extra, "memory_gb", item.MemoryInGb)

		offers = append(offers, domain.RawOffer{
			GPUName:      name,
			Price:        strconv.FormatFloat(estimatePrice(name), 'f', -1, 64),
			Region:       "global",
			Availability: "1",
			SourceID:     providers.FieldString(item.ID),
			Extra:        extra,
		})
	}
	if len(offers) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no usable gpu types in response")}
	}
	return offers, nil
}

func (p *Provider) authHeaders() map[string]string {
	if p.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

// estimatePrice picks the first family whose pattern appears in the model
// name, so a "NVIDIA GeForce RTX 4090" lands on the RTX 4090 rate.
func estimatePrice(name string) float64 {
	upper := strings.ToUpper(name)
	for _, e := range priceEstimates {
		if strings.Contains(upper, e.model) {
			return e.price
		}
	}
	return defaultEstimate
}

// parseCatalog accepts the shapes the catalog endpoint has served over
// time: a bare array, {"data": [...]}, or {"gpuTypes": [...]}.
func parseCatalog(root json.RawMessage) ([]gpuType, error) {
	body := bytes.TrimSpace(root)
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	if body[0] == '[' {
		var items []gpuType
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decoding catalog list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Data     json.RawMessage `json:"data"`
		GPUTypes []gpuType       `json:"gpuTypes"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding catalog envelope: %w", err)
	}
	if len(envelope.Data) > 0 {
		var items []gpuType
		if err := json.Unmarshal(envelope.Data, &items); err == nil && len(items) > 0 {
			return items, nil
		}
	}
	return envelope.GPUTypes, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
