package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/providers"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
)

type SourcesCmd struct {
	pricing  *pricing.Service
	renderer Renderer
}

func NewSourcesCmd(pricingSvc *pricing.Service, renderer Renderer) *cobra.Command {
	sc := &SourcesCmd{pricing: pricingSvc, renderer: renderer}
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Summarize feed coverage per provider",
		RunE:  sc.run,
	}
	return cmd
}

func (sc *SourcesCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sources := []string{
		providers.SourceAkash,
		providers.SourceAWSSpot,
		providers.SourceIONet,
		providers.SourceRunPod,
		providers.SourceVastAI,
	}

	var sections []domain.ReportSection
	for _, source := range sources {
		summary, err := sc.pricing.Summary(ctx, source)
		if err != nil {
			return fmt.Errorf("failed to summarize %s: %w", source, err)
		}
		if summary.OfferCount == 0 {
			continue
		}
		sections = append(sections, domain.ReportSection{
			Title: source,
			Summary: map[string]interface{}{
				"Offers":      summary.OfferCount,
				"Models":      strings.Join(summary.Models, ", "),
				"Regions":     strings.Join(summary.Regions, ", "),
				"Price range": fmt.Sprintf("%.4f to %.4f USD/hr", summary.MinPrice, summary.MaxPrice),
			},
		})
	}

	if len(sections) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "The price feed is empty.")
		return nil
	}

	return sc.renderer.Handle(&domain.Report{
		Title:       "Provider coverage",
		GeneratedAt: time.Now().UTC(),
		Sections:    sections,
	})
}
