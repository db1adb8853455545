package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/app"
	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/export"
	"bcn-hostel-prices/internal/listings"
	"bcn-hostel-prices/internal/report"
)

var searchFlags struct {
	checkin   string
	checkout  string
	adults    int
	pages     int
	details   int
	noDetails bool
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search Booking.com listings through the bypass API and fetch their details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		q := app.SearchQuery{Query: cfg.Search.Query, Adults: cfg.Search.Adults}
		if len(args) > 0 {
			q.Query = strings.Join(args, " ")
		}
		if searchFlags.adults > 0 {
			q.Adults = searchFlags.adults
		}
		if searchFlags.pages > 0 {
			cfg.Search.MaxPages = searchFlags.pages
		}
		if searchFlags.details >= 0 {
			cfg.Search.MaxDetails = searchFlags.details
		}
		if searchFlags.noDetails {
			cfg.Search.FetchDetails = false
		}

		p := dates.NewParser()
		var err error
		if searchFlags.checkin != "" {
			if q.Checkin, err = p.Parse(searchFlags.checkin); err != nil {
				return err
			}
		}
		if searchFlags.checkout != "" {
			if q.Checkout, err = p.Parse(searchFlags.checkout); err != nil {
				return err
			}
		}

		sel, err := cfg.Selectors()
		if err != nil {
			return err
		}

		transports, err := app.OpenTransports(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer transports.Close()

		searcher := app.NewSearcher(cfg, logger, transports.Search(), listings.NewParser(sel))
		started := time.Now()
		outcome, runErr := searcher.Run(ctx, q)
		if outcome == nil {
			return runErr
		}

		report.Listings(out, outcome.Results)
		fmt.Fprintf(out, "%d results, %d pages, %d details (%d failed) in %s; stop: %s\n",
			len(outcome.Results), outcome.TotalPages, outcome.DetailsFetched, outcome.DetailsFailed,
			time.Since(started).Round(time.Second), outcome.StoppedReason)

		if len(outcome.Results) > 0 && cfg.Output.SearchCSVPath != "" {
			if err := export.NewCSVWriter(cfg.Output.SearchCSVPath, logger).WriteListings(outcome.Results); err != nil {
				return err
			}
			fmt.Fprintf(out, "CSV: %s\n", cfg.Output.SearchCSVPath)
		}
		return runErr
	},
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.checkin, "checkin", "", "check-in date")
	f.StringVar(&searchFlags.checkout, "checkout", "", "check-out date (default check-in + 1 day)")
	f.IntVar(&searchFlags.adults, "adults", 0, "number of adults (default search.adults)")
	f.IntVar(&searchFlags.pages, "pages", 0, "max result pages (default search.max_pages)")
	f.IntVar(&searchFlags.details, "details", -1, "max detail pages (default search.max_details)")
	f.BoolVar(&searchFlags.noDetails, "no-details", false, "skip detail pages")
	rootCmd.AddCommand(searchCmd)
}
