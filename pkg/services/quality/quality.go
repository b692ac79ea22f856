package quality

import (
	"strings"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
)

// DefaultMinScore is the publish threshold: offers scoring below it are
// dropped before they reach the feed.
const DefaultMinScore = 0.5

// Field weights. Price and name dominate since an offer without them is
// useless to every consumer.
const (
	weightName         = 0.3
	weightPrice        = 0.4
	weightRegion       = 0.1
	weightSourceID     = 0.1
	weightAvailability = 0.1
)

// Score rates the completeness of a raw offer in [0, 1]. It inspects the
// fields as reported, before normalization fills in defaults.
func Score(raw domain.RawOffer) float64 {
	score := 0.0
	if strings.TrimSpace(raw.GPUName) != "" {
		score += weightName
	}
	if strings.TrimSpace(raw.Price) != "" {
		score += weightPrice
	}
	if strings.TrimSpace(raw.Region) != "" {
		score += weightRegion
	}
	if strings.TrimSpace(raw.SourceID) != "" {
		score += weightSourceID
	}
	if strings.TrimSpace(raw.Availability) != "" {
		score += weightAvailability
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Gate decides whether a scored offer may be published.
type Gate struct {
	minScore float64
}

// NewGate returns a gate with the given threshold. A negative threshold is
// treated as zero, which admits everything.
func NewGate(minScore float64) *Gate {
	if minScore < 0 {
		minScore = 0
	}
	return &Gate{minScore: minScore}
}

// Pass reports whether the score clears the threshold. The threshold
// itself passes.
func (g *Gate) Pass(score float64) bool {
	return score >= g.minScore
}
