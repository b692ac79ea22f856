// Package prices exposes the price feed over HTTP: the delta aggregate,
// provider listings, ROI calculations and scraper statistics.
package prices

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gpu-yield/price-feed/pkg/adapters"
	"github.com/gpu-yield/price-feed/pkg/models/api"
	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

const (
	defaultListingLimit = 50
	maxListingLimit     = 200
)

type Handler struct {
	pricing *pricing.Service
	feed    feed.Store
	status  status.Store
}

func NewHandler(pricingSvc *pricing.Service, feedStore feed.Store, statusStore status.Store) *Handler {
	return &Handler{
		pricing: pricingSvc,
		feed:    feedStore,
		status:  statusStore,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := api.HealthResponse{Status: "ok", Feed: "ok", Time: time.Now().UTC()}

	if err := h.feed.Ping(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("feed store unreachable")
		resp.Status = "degraded"
		resp.Feed = "unavailable"
		writeJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) Delta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := domain.OfferFilter{
		Region: r.URL.Query().Get("region"),
		Model:  r.URL.Query().Get("model"),
	}
	minAvailability, ok := intQuery(w, r, "min_availability")
	if !ok {
		return
	}
	filter.MinAvailability = minAvailability

	resp, err := h.pricing.Delta(ctx, filter)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("delta aggregation failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.pricing.CacheTTL().Seconds())))
	setUpdatedAt(w, resp.LastUpdated)
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) ROI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ROICalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.pricing.ROI(ctx, req)
	if errors.Is(err, pricing.ErrInvalidRequest) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("roi calculation failed")
		writeError(w, r, http.StatusInternalServerError, "roi calculation failed")
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, ok, err := h.status.LoadScrapeStats(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("loading scrape stats failed")
		writeError(w, r, http.StatusServiceUnavailable, "status store unavailable")
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "no scrape statistics recorded yet")
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapScrapeStatsDomainToApi(stats))
}

func (h *Handler) AWSSpotPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	view := domain.PriceView(query.Get("view"))
	if view == "" {
		view = domain.ViewOperator
	}
	if view != domain.ViewOperator && view != domain.ViewRenter {
		writeError(w, r, http.StatusBadRequest, "view must be operator or renter")
		return
	}

	filter := domain.OfferFilter{
		Region: query.Get("region"),
		Model:  query.Get("model"),
	}
	minAvailability, ok := intQuery(w, r, "min_availability")
	if !ok {
		return
	}
	filter.MinAvailability = minAvailability
	filter.Limit = listingLimit(query.Get("limit"))

	offers, total, err := h.pricing.AWSSpotPrices(ctx, filter, view, includeSynthetic(query.Get("include_synthetic")))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("aws spot listing failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}

	resp := api.AWSSpotPricesResponse{
		Prices:     make([]api.AWSSpotPrice, 0, len(offers)),
		TotalCount: total,
	}
	for _, offer := range offers {
		resp.Prices = append(resp.Prices, adapters.MapEnrichedOfferDomainToApi(offer))
		if offer.ObservedAt.After(resp.LastUpdated) {
			resp.LastUpdated = offer.ObservedAt
		}
	}
	setUpdatedAt(w, resp.LastUpdated)
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) AWSRegions(w http.ResponseWriter, r *http.Request) {
	h.writeSourceRegions(w, r, providers.SourceAWSSpot)
}

func (h *Handler) AWSModels(w http.ResponseWriter, r *http.Request) {
	h.writeSourceModels(w, r, providers.SourceAWSSpot)
}

func (h *Handler) AWSSummary(w http.ResponseWriter, r *http.Request) {
	h.writeSourceSummary(w, r, providers.SourceAWSSpot)
}

func (h *Handler) AkashPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := domain.OfferFilter{ModelContains: query.Get("model")}
	minPrice, ok := floatQuery(w, r, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := floatQuery(w, r, "max_price")
	if !ok {
		return
	}
	filter.MinPrice = minPrice
	filter.MaxPrice = maxPrice
	filter.Limit = listingLimit(query.Get("limit"))

	offers, total, err := h.pricing.AkashPrices(ctx, filter, includeSynthetic(query.Get("include_synthetic")))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("akash listing failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}

	resp := api.AkashPricesResponse{
		Prices:     make([]api.AkashPrice, 0, len(offers)),
		TotalCount: total,
	}
	for _, offer := range offers {
		resp.Prices = append(resp.Prices, adapters.MapOfferDomainToAkashApi(offer))
		if offer.ObservedAt.After(resp.LastUpdated) {
			resp.LastUpdated = offer.ObservedAt
		}
	}
	setUpdatedAt(w, resp.LastUpdated)
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) AkashModels(w http.ResponseWriter, r *http.Request) {
	h.writeSourceModels(w, r, providers.SourceAkash)
}

func (h *Handler) AkashSummary(w http.ResponseWriter, r *http.Request) {
	h.writeSourceSummary(w, r, providers.SourceAkash)
}

func (h *Handler) writeSourceModels(w http.ResponseWriter, r *http.Request, source string) {
	ctx := r.Context()
	models, err := h.pricing.SourceModels(ctx, source)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("source", source).Msg("model listing failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, api.ModelsResponse{Models: models, TotalCount: len(models)})
}

func (h *Handler) writeSourceRegions(w http.ResponseWriter, r *http.Request, source string) {
	ctx := r.Context()
	regions, err := h.pricing.SourceRegions(ctx, source)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("source", source).Msg("region listing failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, api.RegionsResponse{Regions: regions, TotalCount: len(regions)})
}

func (h *Handler) writeSourceSummary(w http.ResponseWriter, r *http.Request, source string) {
	ctx := r.Context()
	summary, err := h.pricing.Summary(ctx, source)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("source", source).Msg("summary failed")
		writeError(w, r, http.StatusServiceUnavailable, "price feed unavailable")
		return
	}
	setUpdatedAt(w, summary.LastUpdated)
	writeJSON(w, r, http.StatusOK, adapters.MapSourceSummaryDomainToApi(summary))
}

// listingLimit clamps the limit query into [1, maxListingLimit], using the
// default when absent or unparsable.
func listingLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultListingLimit
	}
	if limit > maxListingLimit {
		return maxListingLimit
	}
	return limit
}

// includeSynthetic defaults to true, matching the deployed behavior of
// always having data to show.
func includeSynthetic(raw string) bool {
	include, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return include
}

func intQuery(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		writeError(w, r, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return value, true
}

func floatQuery(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		writeError(w, r, http.StatusBadRequest, name+" must be a non-negative number")
		return 0, false
	}
	return value, true
}

func setUpdatedAt(w http.ResponseWriter, updatedAt time.Time) {
	if !updatedAt.IsZero() {
		w.Header().Set("X-Updated-At", updatedAt.UTC().Format(time.RFC3339))
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, map[string]string{"error": message})
}
