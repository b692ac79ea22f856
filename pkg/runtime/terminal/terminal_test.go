package terminal

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
	"github.com/gpu-yield/price-feed/pkg/store/cache"
	"github.com/gpu-yield/price-feed/pkg/store/feed"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

func TestReporter_RendersSections(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	err := reporter.Handle(&domain.Report{
		Title:       "Provider coverage",
		GeneratedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Sections: []domain.ReportSection{{
			Title:   "akash",
			Summary: map[string]interface{}{"Offers": 5},
			Details: []domain.ReportDetail{
				{Name: "A100", Value: "1.4000", Unit: "USD/hr", Description: "akash (global)"},
			},
		}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Provider coverage")
	assert.Contains(t, out, "Generated: 2025-03-01 12:00:00 UTC")
	assert.Contains(t, out, "=== akash ===")
	assert.Contains(t, out, "Offers: 5")
	assert.Contains(t, out, "- A100: 1.4000 USD/hr")
}

func TestNewCLI_RegistersCommands(t *testing.T) {
	cli := NewCLI(Options{
		Pricing: pricing.New(feed.NewMemory(), cache.NewMemory(), pricing.Config{}),
		Status:  status.NewMemory(time.Hour),
	})

	names := make([]string, 0, 3)
	for _, cmd := range cli.rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "delta")
	assert.Contains(t, names, "sources")
	assert.Contains(t, names, "stats")
}
