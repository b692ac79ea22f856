package quality

import (
	"testing"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name     string
		raw      domain.RawOffer
		expected float64
	}{
		{
			name: "complete offer",
			raw: domain.RawOffer{
				GPUName:      "RTX 4090",
				Price:        "0.74",
				Region:       "eu-west",
				Availability: "2",
				SourceID:     "abc",
			},
			expected: 1.0,
		},
		{
			name:     "name and price only",
			raw:      domain.RawOffer{GPUName: "H100", Price: "4.5"},
			expected: 0.7,
		},
		{
			name:     "price only",
			raw:      domain.RawOffer{Price: "4.5"},
			expected: 0.4,
		},
		{
			name:     "name only",
			raw:      domain.RawOffer{GPUName: "H100"},
			expected: 0.3,
		},
		{
			name:     "empty offer",
			raw:      domain.RawOffer{},
			expected: 0.0,
		},
		{
			name:     "whitespace fields do not count",
			raw:      domain.RawOffer{GPUName: "  ", Price: " ", Region: "\t"},
			expected: 0.0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Score(tc.raw), 1e-9)
		})
	}
}

func TestGate_ThresholdInclusive(t *testing.T) {
	g := NewGate(0.5)

	// region + price lands exactly on the threshold
	score := Score(domain.RawOffer{Price: "1.0", Region: "global"})
	assert.InDelta(t, 0.5, score, 1e-9)
	assert.True(t, g.Pass(score))

	assert.True(t, g.Pass(0.9))
	assert.False(t, g.Pass(0.4))
}

func TestGate_NegativeThresholdAdmitsAll(t *testing.T) {
	g := NewGate(-1)
	assert.True(t, g.Pass(0))
}
