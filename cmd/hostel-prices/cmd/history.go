package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/report"
	"bcn-hostel-prices/internal/storage"
)

var historyFlags struct {
	from   string
	to     string
	adults int
}

var historyCmd = &cobra.Command{
	Use:   "history [HOSTEL]",
	Short: "Show stored price observations (all hostels or one by name).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		repo, err := storage.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		if repo == nil {
			return fmt.Errorf("storage.driver is none: history is not recorded")
		}
		defer repo.Close()

		var hostelURL string
		if len(args) == 1 {
			catalog, err := openCatalog()
			if err != nil {
				return err
			}
			_, h, err := resolveHostel(catalog, args[0])
			if err != nil {
				return err
			}
			hostelURL = h.URL
		}

		p := dates.NewParser()
		var from, to time.Time
		if historyFlags.from != "" {
			if from, err = p.Parse(historyFlags.from); err != nil {
				return err
			}
		}
		if historyFlags.to != "" {
			if to, err = p.Parse(historyFlags.to); err != nil {
				return err
			}
		}

		observations, err := repo.ListObservations(ctx, hostelURL, from, to)
		if err != nil {
			return err
		}
		statsAdults := analysis.StatsAdults
		if historyFlags.adults > 0 {
			observations = analysis.ForAdults(observations, historyFlags.adults)
			statsAdults = historyFlags.adults
		}

		t := report.NewTable(out)
		t.AppendHeader(table.Row{"Fecha", "Hostel", "Tipo", "Adultos", "Booking", "Calculado", "Fecha scrape", "Run"})
		for _, o := range observations {
			t.AppendRow(table.Row{
				o.Date.Format("2006-01-02"), o.HostelName, o.Category.String(), o.Adults,
				fmt.Sprintf("%.2f", o.Scraped), fmt.Sprintf("%.2f", o.Derived),
				o.ScrapedAt.Local().Format("2006-01-02 15:04"), o.RunID,
			})
		}
		t.Render()

		if daily := analysis.Daily(analysis.ForAdults(observations, statsAdults)); len(daily) > 0 {
			fmt.Fprintf(out, "Estadística diaria, %d adultos\n", statsAdults)
			report.Daily(out, daily)
		}

		runID, at, err := repo.LatestRun(ctx)
		if err != nil {
			return err
		}
		if runID != "" {
			fmt.Fprintf(out, "Último run: %s (%s)\n", runID, at.Local().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.from, "from", "", "first stay date")
	f.StringVar(&historyFlags.to, "to", "", "last stay date")
	f.IntVar(&historyFlags.adults, "adults", 0, "only observations for this number of adults")
	rootCmd.AddCommand(historyCmd)
}
