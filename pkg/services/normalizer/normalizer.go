package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

const (
	// DefaultMaxPriceUSDHour rejects prices above this as implausible.
	DefaultMaxPriceUSDHour = 100.0
	// MinPriceUSDHour rejects prices below this as noise.
	MinPriceUSDHour = 0.001
	// MaxRegionLength truncates free-form region strings.
	MaxRegionLength = 50

	UnknownModel  = "Unknown"
	UnknownRegion = "Unknown"
)

var vendorPrefixes = []string{"NVIDIA ", "AMD ", "GEFORCE ", "RADEON "}

// ValidationError reports which field of a raw offer failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Normalizer turns raw provider offers into canonical ones. The zero value
// uses the default price ceiling.
type Normalizer struct {
	maxPrice float64
}

// New returns a Normalizer with the given price ceiling. A non-positive
// ceiling falls back to DefaultMaxPriceUSDHour.
func New(maxPriceUSDHour float64) *Normalizer {
	if maxPriceUSDHour <= 0 {
		maxPriceUSDHour = DefaultMaxPriceUSDHour
	}
	return &Normalizer{maxPrice: maxPriceUSDHour}
}

// GPUName maps a reported GPU name to its canonical form. The mapping is
// idempotent: feeding the output back in returns it unchanged.
func GPUName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return UnknownModel
	}

	for _, prefix := range vendorPrefixes {
		s = strings.ReplaceAll(s, prefix, "")
	}

	// Reattach a floating RTX marker to the front: "4090 RTX" -> "RTX 4090".
	if strings.Contains(s, "RTX") && !strings.HasPrefix(s, "RTX") {
		s = "RTX " + strings.TrimSpace(strings.ReplaceAll(s, "RTX", ""))
	}

	s = strings.ReplaceAll(s, "RTX4090", "RTX 4090")
	s = strings.ReplaceAll(s, "RTX4080", "RTX 4080")
	s = strings.ReplaceAll(s, "RTX4070", "RTX 4070")

	return titleCase(s)
}

// titleCase uppercases the first letter of every alphabetic run and
// lowercases the rest, leaving digits and punctuation as boundaries.
// "RTX 4090" becomes "Rtx 4090", "A100" stays "A100".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r):
			b.WriteRune(r)
			prevLetter = false
		case prevLetter:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(unicode.ToUpper(r))
			prevLetter = true
		}
	}
	return b.String()
}

// Price parses and bounds-checks an hourly USD price, rounding the result
// to 4 decimal places.
func (n *Normalizer) Price(raw string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ValidationError{Field: "price", Reason: "not a number"}
	}

	maxPrice := n.maxPrice
	if maxPrice <= 0 {
		maxPrice = DefaultMaxPriceUSDHour
	}

	switch {
	case p <= 0:
		return 0, &ValidationError{Field: "price", Reason: "not positive"}
	case p > maxPrice:
		return 0, &ValidationError{Field: "price", Reason: fmt.Sprintf("above ceiling %.2f", maxPrice)}
	case p < MinPriceUSDHour:
		return 0, &ValidationError{Field: "price", Reason: fmt.Sprintf("below floor %v", MinPriceUSDHour)}
	}

	return math.Round(p*10000) / 10000, nil
}

// Region defaults an absent region and truncates over-long ones.
func Region(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return UnknownRegion
	}
	if len(s) > MaxRegionLength {
		s = s[:MaxRegionLength]
	}
	return s
}

// Availability parses a unit count, flooring at 1.
func Availability(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// Offer validates and normalizes a raw offer into a canonical one. The
// quality score is left to the caller; a *ValidationError is returned when
// the offer must be dropped.
func (n *Normalizer) Offer(raw domain.RawOffer, source string) (domain.Offer, error) {
	price, err := n.Price(raw.Price)
	if err != nil {
		return domain.Offer{}, err
	}

	return domain.Offer{
		Source:       source,
		Model:        GPUName(raw.GPUName),
		PriceUSDHour: price,
		Region:       Region(raw.Region),
		Availability: Availability(raw.Availability),
		SourceID:     raw.SourceID,
		ObservedAt:   raw.ObservedAt,
		Synthetic:    raw.Synthetic,
		Extra:        raw.Extra,
	}, nil
}
