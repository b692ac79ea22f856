// Package vastai fetches GPU rental offers from the vast.ai marketplace.
package vastai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

const (
	defaultEndpoint = "https://console.vast.ai/api/v0/bundles/"
	rateLimit       = 2 * time.Second
)

type Provider struct {
	client  *providers.Client
	baseURL string
}

func New(client *providers.Client) *Provider {
	return &Provider{client: client, baseURL: defaultEndpoint}
}

func Factory(deps providers.Deps) (providers.Provider, error) {
	if deps.Client == nil {
		return nil, errors.New("vastai: http client is required")
	}
	return New(deps.Client), nil
}

func (p *Provider) Name() string { return providers.SourceVastAI }

func (p *Provider) RateLimit() time.Duration { return rateLimit }

// bundle mirrors one marketplace listing. Numeric fields arrive as numbers
// or strings depending on the listing, so they stay loosely typed until
// normalization.
type bundle struct {
	GPUName        string      `json:"gpu_name"`
	GPUDisplayName string      `json:"gpu_display_name"`
	DPHTotal       interface{} `json:"dph_total"`
	CostPerHr      interface{} `json:"cost_per_hr"`
	Geolocation    string      `json:"geolocation"`
	NumGPUs        interface{} `json:"num_gpus"`
	MachineID      interface{} `json:"machine_id"`
	GPURAM         interface{} `json:"gpu_ram"`
	CPUCores       interface{} `json:"cpu_cores"`
	RAM            interface{} `json:"ram"`
	DiskSpace      interface{} `json:"disk_space"`
	InetDown       interface{} `json:"inet_down"`
}

func (p *Provider) Fetch(ctx context.Context) ([]domain.RawOffer, error) {
	var root json.RawMessage
	if err := p.client.GetJSON(ctx, p.Name(), p.baseURL, nil, &root); err != nil {
		return nil, err
	}

	bundles, err := parseBundles(root)
	if err != nil {
		return nil, &providers.TransientError{Source: p.Name(), Err: err}
	}
	if len(bundles) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no offers in response")}
	}

	offers := make([]domain.RawOffer, 0, len(bundles))
	for _, b := range bundles {
		name := strings.TrimSpace(b.GPUName)
		if name == "" {
			name = strings.TrimSpace(b.GPUDisplayName)
		}

		extra := map[string]string{}
		providers.AddField(extra, "gpu_ram", b.GPURAM)
		providers.AddField(extra, "cpu_cores", b.CPUCores)
		providers.AddField(extra, "ram", b.RAM)
		providers.AddField(extra, "disk_space", b.DiskSpace)
		providers.AddField(extra, "inet_down", b.InetDown)

		offers = append(offers, domain.RawOffer{
			GPUName:      name,
			Price:        providers.FirstField(b.DPHTotal, b.CostPerHr),
			Region:       strings.ToLower(strings.TrimSpace(b.Geolocation)),
			Availability: providers.FieldString(b.NumGPUs),
			SourceID:     providers.FieldString(b.MachineID),
			Extra:        extra,
		})
	}
	return offers, nil
}

// parseBundles accepts both response shapes the API serves: an object with
// an "offers" array, or a bare array.
func parseBundles(root json.RawMessage) ([]bundle, error) {
	body := bytes.TrimSpace(root)
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	if body[0] == '[' {
		var items []bundle
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decoding offer list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Offers []bundle `json:"offers"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding offer envelope: %w", err)
	}
	return envelope.Offers, nil
}
