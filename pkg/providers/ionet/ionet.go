// Package ionet fetches available GPU devices from the io.net API. Device
// payloads vary a lot between worker versions, so every field is resolved
// through a fallback chain and malformed devices are skipped individually.
package ionet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

const (
	defaultEndpoint = "https://api.io.net/v1/devices"
	rateLimit       = 3 * time.Second
	maxDevices      = 100

	// DefaultIOTokenUSDRate approximates 1 IO token in USD when no live
	// quote is available.
	DefaultIOTokenUSDRate = 0.003

	rateToken = "io-net"
)

type Provider struct {
	client    *providers.Client
	rates     providers.RateSource
	tokenRate float64
	baseURL   string
}

func New(client *providers.Client, rates providers.RateSource, tokenRate float64) *Provider {
	if tokenRate <= 0 {
		tokenRate = DefaultIOTokenUSDRate
	}
	return &Provider{
		client:    client,
		rates:     rates,
		tokenRate: tokenRate,
		baseURL:   defaultEndpoint,
	}
}

func Factory(deps providers.Deps) (providers.Provider, error) {
	if deps.Client == nil {
		return nil, errors.New("ionet: http client is required")
	}
	return New(deps.Client, deps.Rates, deps.IOTokenUSDRate), nil
}

func (p *Provider) Name() string { return providers.SourceIONet }

func (p *Provider) RateLimit() time.Duration { return rateLimit }

type gpuInfo struct {
	Model  string      `json:"model"`
	Name   string      `json:"name"`
	Count  interface{} `json:"count"`
	Memory interface{} `json:"memory"`
	VRAM   interface{} `json:"vram"`
}

type priceInfo struct {
	USDPerHour    interface{} `json:"usd_per_hour"`
	HourlyRate    interface{} `json:"hourly_rate"`
	PriceUSD      interface{} `json:"price_usd"`
	IOPerHour     interface{} `json:"io_per_hour"`
	TokensPerHour interface{} `json:"tokens_per_hour"`
}

type device struct {
	GPU   gpuInfo `json:"gpu"`
	Specs struct {
		GPU gpuInfo `json:"gpu"`
	} `json:"specs"`
	Pricing       priceInfo       `json:"pricing"`
	Price         priceInfo       `json:"price"`
	Location      json.RawMessage `json:"location"`
	Region        json.RawMessage `json:"region"`
	GPUModel      string          `json:"gpu_model"`
	DeviceType    string          `json:"device_type"`
	HourlyPrice   interface{}     `json:"hourly_price"`
	PricePerHour  interface{}     `json:"price_per_hour"`
	AvailableGPUs interface{}     `json:"available_gpus"`
	GPUCount      interface{}     `json:"gpu_count"`
	DeviceID      interface{}     `json:"device_id"`
	ID            interface{}     `json:"id"`
	Status        string          `json:"status"`
	CPU           struct {
		Cores interface{} `json:"cores"`
	} `json:"cpu"`
	Memory struct {
		TotalGB interface{} `json:"total_gb"`
	} `json:"memory"`
	Storage struct {
		TotalGB interface{} `json:"total_gb"`
	} `json:"storage"`
	Network struct {
		Bandwidth interface{} `json:"bandwidth"`
	} `json:"network"`
}

func (p *Provider) Fetch(ctx context.Context) ([]domain.RawOffer, error) {
	query := url.Values{}
	query.Set("type", "gpu")
	query.Set("status", "available")
	query.Set("limit", strconv.Itoa(maxDevices))
	endpoint := p.baseURL + "?" + query.Encode()

	var root json.RawMessage
	if err := p.client.GetJSON(ctx, p.Name(), endpoint, nil, &root); err != nil {
		return nil, err
	}

	rawDevices, err := parseDevices(root)
	if err != nil {
		return nil, &providers.TransientError{Source: p.Name(), Err: err}
	}
	if len(rawDevices) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no devices in response")}
	}

	offers := make([]domain.RawOffer, 0, len(rawDevices))
	for _, raw := range rawDevices {
		var d device
		if err := json.Unmarshal(raw, &d); err != nil {
			continue
		}
		offer, ok := p.deviceOffer(ctx, d)
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}
	if len(offers) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no valid offers in response")}
	}
	return offers, nil
}

func (p *Provider) deviceOffer(ctx context.Context, d device) (domain.RawOffer, bool) {
	name := firstNonEmpty(d.GPU.Model, d.GPU.Name, d.Specs.GPU.Model, d.Specs.GPU.Name, d.GPUModel, d.DeviceType)

	price := providers.FirstField(
		d.Pricing.USDPerHour, d.Pricing.HourlyRate, d.Pricing.PriceUSD,
		d.Price.USDPerHour, d.Price.HourlyRate, d.Price.PriceUSD,
		d.HourlyPrice, d.PricePerHour,
	)
	if price == "" {
		price = p.tokenPrice(ctx, d)
	}
	if name == "" || price == "" {
		return domain.RawOffer{}, false
	}

	extra := map[string]string{}
	providers.AddField(extra, "gpu_memory", firstField(d.GPU.Memory, d.GPU.VRAM, d.Specs.GPU.Memory, d.Specs.GPU.VRAM))
	providers.AddField(extra, "cpu_cores", d.CPU.Cores)
	providers.AddField(extra, "ram_gb", d.Memory.TotalGB)
	providers.AddField(extra, "storage_gb", d.Storage.TotalGB)
	providers.AddField(extra, "bandwidth_mbps", d.Network.Bandwidth)
	if d.Status != "" {
		extra["status"] = d.Status
	}

	return domain.RawOffer{
		GPUName:      name,
		Price:        price,
		Region:       strings.ToLower(deviceRegion(d)),
		Availability: providers.FirstField(d.AvailableGPUs, d.GPUCount, d.GPU.Count, d.Specs.GPU.Count),
		SourceID:     providers.FirstField(d.DeviceID, d.ID),
		Extra:        extra,
	}, true
}

// tokenPrice converts devices priced in IO tokens to USD, preferring a
// live token quote over the configured static rate.
func (p *Provider) tokenPrice(ctx context.Context, d device) string {
	tokens := providers.FirstField(
		d.Pricing.IOPerHour, d.Pricing.TokensPerHour,
		d.Price.IOPerHour, d.Price.TokensPerHour,
	)
	if tokens == "" {
		return ""
	}
	amount, err := strconv.ParseFloat(tokens, 64)
	if err != nil {
		return ""
	}

	rate := p.tokenRate
	if p.rates != nil {
		if live, ok := p.rates.TokenRate(ctx, rateToken); ok && live > 0 {
			rate = live
		}
	}
	usd := math.Round(amount*rate*1e6) / 1e6
	return strconv.FormatFloat(usd, 'f', -1, 64)
}

// deviceRegion resolves the location from whichever shape the device
// reports, an object with country/region or a bare string.
func deviceRegion(d device) string {
	locObj, locStr := decodeLocation(d.Location)
	regObj, regStr := decodeLocation(d.Region)
	return firstNonEmpty(locObj.Country, locObj.Region, regObj.Country, regObj.Region, regStr, locStr)
}

type locationInfo struct {
	Country string `json:"country"`
	Region  string `json:"region"`
}

func decodeLocation(raw json.RawMessage) (locationInfo, string) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return locationInfo{}, ""
	}
	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return locationInfo{}, ""
		}
		return locationInfo{}, s
	}
	var loc locationInfo
	if err := json.Unmarshal(body, &loc); err != nil {
		return locationInfo{}, ""
	}
	return loc, ""
}

// parseDevices accepts an object with a "devices" or "data" array, or a
// bare array. Elements stay raw so one malformed device cannot sink the
// whole batch.
func parseDevices(root json.RawMessage) ([]json.RawMessage, error) {
	body := bytes.TrimSpace(root)
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}

	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decoding device list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Devices []json.RawMessage `json:"devices"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding device envelope: %w", err)
	}
	if len(envelope.Devices) > 0 {
		return envelope.Devices, nil
	}
	return envelope.Data, nil
}

func firstField(values ...interface{}) interface{} {
	for _, v := range values {
		if providers.FieldString(v) != "" {
			return v
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
