package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpu-yield/price-feed/pkg/models/domain"
	"github.com/gpu-yield/price-feed/pkg/store/status"
)

type StatsCmd struct {
	status   status.Store
	renderer Renderer
}

func NewStatsCmd(statusStore status.Store, renderer Renderer) *cobra.Command {
	sc := &StatsCmd{status: statusStore, renderer: renderer}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the latest scraper statistics",
		RunE:  sc.run,
	}
	return cmd
}

func (sc *StatsCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stats, ok, err := sc.status.LoadScrapeStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scrape stats: %w", err)
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No scrape statistics recorded yet.")
		return nil
	}

	return sc.renderer.Handle(&domain.Report{
		Title:       "Scraper statistics",
		GeneratedAt: time.Now().UTC(),
		Sections: []domain.ReportSection{{
			Title: "Cumulative since " + stats.StartedAt.Format("2006-01-02 15:04:05 MST"),
			Summary: map[string]interface{}{
				"Cycles":       stats.CyclesTotal,
				"Success rate": fmt.Sprintf("%.0f%%", stats.SuccessRate()*100),
			},
			Details: []domain.ReportDetail{
				{Name: "Fetches attempted", Value: stats.FetchesAttempted},
				{Name: "Fetches succeeded", Value: stats.FetchesSucceeded},
				{Name: "Fetches failed", Value: stats.FetchesFailed},
				{Name: "Records processed", Value: stats.RecordsProcessed},
				{Name: "Records filtered", Value: stats.RecordsFiltered},
				{Name: "Records published", Value: stats.RecordsPublished},
				{
					Name:        "Last cycle",
					Value:       stats.LastCycleRecords,
					Unit:        "records",
					Description: fmt.Sprintf("%dms at %s", stats.LastCycleMillis, stats.LastCycleAt.Format(time.RFC3339)),
				},
			},
		}},
	})
}
