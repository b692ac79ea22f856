// Package akash fetches active GPU bids from the Akash Network LCD API
// and converts uakt denominated prices to USD.
package akash

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
)

const (
	defaultEndpoint = "https://lcd-1.akash.network/akash/market/v1beta4/bids"
	rateLimit       = 5 * time.Second
	maxBids         = 50

	// DefaultUAKTUSDRate approximates 1 uakt in USD when no live token
	// rate is available.
	DefaultUAKTUSDRate = 0.000001

	// uaktPerAKT is the on-chain denomination: 1 AKT = 1e6 uakt.
	uaktPerAKT = 1e6

	genericModel = "GPU-Generic"
	rateToken    = "akash-network"
)

type Provider struct {
	client   *providers.Client
	rates    providers.RateSource
	uaktRate float64
	baseURL  string
}

func New(client *providers.Client, rates providers.RateSource, uaktRate float64) *Provider {
	if uaktRate <= 0 {
		uaktRate = DefaultUAKTUSDRate
	}
	return &Provider{
		client:   client,
		rates:    rates,
		uaktRate: uaktRate,
		baseURL:  defaultEndpoint,
	}
}

func Factory(deps providers.Deps) (providers.Provider, error) {
	if deps.Client == nil {
		return nil, errors.New("akash: http client is required")
	}
	return New(deps.Client, deps.Rates, deps.UAKTUSDRate), nil
}

func (p *Provider) Name() string { return providers.SourceAkash }

func (p *Provider) RateLimit() time.Duration { return rateLimit }

type attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type bid struct {
	BidID struct {
		Provider string `json:"provider"`
		DSeq     string `json:"dseq"`
	} `json:"bid_id"`
	Price struct {
		Denom  string      `json:"denom"`
		Amount interface{} `json:"amount"`
	} `json:"price"`
	Resources []struct {
		GPU struct {
			Attributes []attribute `json:"attributes"`
		} `json:"gpu"`
	} `json:"resources"`
	Attributes []attribute `json:"attributes"`
}

func (p *Provider) Fetch(ctx context.Context) ([]domain.RawOffer, error) {
	var page struct {
		Bids []struct {
			Bid bid `json:"bid"`
		} `json:"bids"`
	}

	query := url.Values{}
	query.Set("state", "active")
	query.Set("pagination.limit", strconv.Itoa(maxBids))
	endpoint := p.baseURL + "?" + query.Encode()

	if err := p.client.GetJSON(ctx, p.Name(), endpoint, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Bids) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no active bids in response")}
	}

	usdPerUAKT := p.usdPerUAKT(ctx)

	bids := page.Bids
	if len(bids) > maxBids {
		bids = bids[:maxBids]
	}

	offers := make([]domain.RawOffer, 0, len(bids))
	for _, entry := range bids {
		b := entry.Bid
		if b.Price.Denom != "uakt" {
			continue
		}
		amount := providers.FieldString(b.Price.Amount)
		if amount == "" {
			continue
		}
		uakt, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			continue
		}
		usd := math.Round(uakt*usdPerUAKT*1e6) / 1e6

		extra := map[string]string{
			"original_currency": "UAKT",
			"token_price":       amount,
		}
		if b.BidID.Provider != "" {
			extra["provider_address"] = b.BidID.Provider
		}

		offers = append(offers, domain.RawOffer{
			GPUName:      gpuModel(b),
			Price:        strconv.FormatFloat(usd, 'f', -1, 64),
			Region:       "global",
			Availability: "1",
			SourceID:     b.BidID.DSeq,
			Extra:        extra,
		})
	}
	if len(offers) == 0 {
		return nil, &providers.TransientError{Source: p.Name(), Err: errors.New("no valid offers in response")}
	}
	return offers, nil
}

// usdPerUAKT prefers a live AKT quote over the configured static rate.
func (p *Provider) usdPerUAKT(ctx context.Context) float64 {
	if p.rates != nil {
		if aktUSD, ok := p.rates.TokenRate(ctx, rateToken); ok && aktUSD > 0 {
			return aktUSD / uaktPerAKT
		}
	}
	return p.uaktRate
}

// gpuModel digs the GPU model out of the bid, checking GPU resource
// attributes first and top level bid attributes second. Many bids carry
// no hardware attributes at all, those fall back to a generic label.
func gpuModel(b bid) string {
	for _, res := range b.Resources {
		if m := modelFromAttributes(res.GPU.Attributes); m != "" {
			return m
		}
	}
	if m := modelFromAttributes(b.Attributes); m != "" {
		return m
	}
	return genericModel
}

func modelFromAttributes(attrs []attribute) string {
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if !strings.Contains(key, "model") && !strings.Contains(key, "gpu") {
			continue
		}
		if v := strings.TrimSpace(a.Value); v != "" {
			return v
		}
	}
	return ""
}
