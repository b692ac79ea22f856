package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUName_CanonicalForms(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"vendor prefix stripped", "NVIDIA RTX 4090", "Rtx 4090"},
		{"compact rtx spaced", "RTX4090", "Rtx 4090"},
		{"geforce prefix stripped", "GeForce RTX 3080", "Rtx 3080"},
		{"floating rtx moved to front", "4090 RTX", "Rtx 4090"},
		{"plain name title cased", "Tesla V100", "Tesla V100"},
		{"datacenter name unchanged", "A100", "A100"},
		{"hopper unchanged", "H100", "H100"},
		{"lowercase input", "nvidia rtx 4080", "Rtx 4080"},
		{"whitespace trimmed", "  T4  ", "T4"},
		{"generic sentinel", "GPU-Generic", "Gpu-Generic"},
		{"empty becomes unknown", "", "Unknown"},
		{"blank becomes unknown", "   ", "Unknown"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GPUName(tc.input))
		})
	}
}

func TestGPUName_Idempotent(t *testing.T) {
	inputs := []string{
		"NVIDIA RTX 4090",
		"RTX4070",
		"Tesla V100",
		"A100",
		"GPU-Generic",
		"",
		"GeForce GTX 1080 Ti",
	}

	for _, in := range inputs {
		once := GPUName(in)
		assert.Equal(t, once, GPUName(once), "normalizing %q twice diverged", in)
	}
}

func TestPrice_Bounds(t *testing.T) {
	n := New(0)

	cases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"typical price", "0.74", 0.74, false},
		{"rounded to four decimals", "0.123456", 0.1235, false},
		{"at floor", "0.001", 0.001, false},
		{"below floor", "0.0005", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-1.5", 0, true},
		{"above ceiling", "150", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Price(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "price", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrice_ConfigurableCeiling(t *testing.T) {
	n := New(200)

	got, err := n.Price("150")
	require.NoError(t, err)
	assert.Equal(t, 150.0, got)

	_, err = n.Price("250")
	assert.Error(t, err)
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "Unknown", Region(""))
	assert.Equal(t, "Unknown", Region("   "))
	assert.Equal(t, "us-east-1", Region("us-east-1"))

	long := "this-region-name-is-way-too-long-to-be-stored-anywhere-useful"
	assert.Len(t, Region(long), MaxRegionLength)
}

func TestAvailability(t *testing.T) {
	assert.Equal(t, 1, Availability(""))
	assert.Equal(t, 1, Availability("abc"))
	assert.Equal(t, 1, Availability("0"))
	assert.Equal(t, 1, Availability("-2"))
	assert.Equal(t, 4, Availability("4"))
}

func TestOffer_MapsAllFields(t *testing.T) {
	n := New(0)
	observed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	raw := domain.RawOffer{
		GPUName:      "NVIDIA RTX 4090",
		Price:        "0.74",
		Region:       "eu-west",
		Availability: "3",
		SourceID:     "offer-123",
		ObservedAt:   observed,
		Extra:        map[string]string{"gpu_memory_gb": "24"},
	}

	offer, err := n.Offer(raw, "vast_ai")
	require.NoError(t, err)

	assert.Equal(t, "vast_ai", offer.Source)
	assert.Equal(t, "Rtx 4090", offer.Model)
	assert.Equal(t, 0.74, offer.PriceUSDHour)
	assert.Equal(t, "eu-west", offer.Region)
	assert.Equal(t, 3, offer.Availability)
	assert.Equal(t, "offer-123", offer.SourceID)
	assert.Equal(t, observed, offer.ObservedAt)
	assert.Equal(t, "24", offer.Extra["gpu_memory_gb"])
	assert.False(t, offer.Synthetic)
}

func TestOffer_RejectsBadPrice(t *testing.T) {
	n := New(0)

	_, err := n.Offer(domain.RawOffer{GPUName: "H100", Price: "not-a-number"}, "runpod")
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)
}

func TestOffer_DefaultsMissingFields(t *testing.T) {
	n := New(0)

	offer, err := n.Offer(domain.RawOffer{Price: "1.2"}, "akash")
	require.NoError(t, err)

	assert.Equal(t, "Unknown", offer.Model)
	assert.Equal(t, "Unknown", offer.Region)
	assert.Equal(t, 1, offer.Availability)
}
