package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/services/pricing"
)

// Renderer turns a report into terminal output.
type Renderer interface {
	Handle(report *domain.Report) error
}

type DeltaCmd struct {
	region          string
	model           string
	minAvailability int
	operatorView    bool
	pricing         *pricing.Service
	renderer        Renderer
}

func NewDeltaCmd(pricingSvc *pricing.Service, renderer Renderer) *cobra.Command {
	dc := &DeltaCmd{pricing: pricingSvc, renderer: renderer}
	cmd := &cobra.Command{
		Use:   "delta",
		Short: "Show the best live offer per GPU model",
		RunE:  dc.run,
	}

	cmd.Flags().StringVar(&dc.region, "region", "", "Only include offers from this region")
	cmd.Flags().StringVar(&dc.model, "model", "", "Only include this GPU model")
	cmd.Flags().IntVar(&dc.minAvailability, "min-availability", 0, "Minimum instance availability")
	cmd.Flags().BoolVar(&dc.operatorView, "operator", false, "Rank by highest price instead of lowest")

	return cmd
}

func (dc *DeltaCmd) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	view := domain.ViewRenter
	sectionTitle := "Cheapest offer per GPU model"
	if dc.operatorView {
		view = domain.ViewOperator
		sectionTitle = "Highest paying offer per GPU model"
	}

	best, err := dc.pricing.BestOffers(ctx, view, domain.OfferFilter{
		Region:          dc.region,
		Model:           dc.model,
		MinAvailability: dc.minAvailability,
	})
	if err != nil {
		return fmt.Errorf("failed to read the price feed: %w", err)
	}

	if len(best) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No offers in the feed match the given filters.")
		return nil
	}

	details := make([]domain.ReportDetail, 0, len(best))
	for _, offer := range best {
		details = append(details, domain.ReportDetail{
			Name:        offer.Model,
			Value:       fmt.Sprintf("%.4f", offer.PriceUSDHour),
			Unit:        "USD/hr",
			Description: fmt.Sprintf("%s (%s), %d available", offer.Source, offer.Region, offer.Availability),
		})
	}

	return dc.renderer.Handle(&domain.Report{
		Title:       "GPU price delta",
		GeneratedAt: time.Now().UTC(),
		Sections: []domain.ReportSection{{
			Title:   sectionTitle,
			Summary: map[string]interface{}{"Models": len(best)},
			Details: details,
		}},
	})
}
