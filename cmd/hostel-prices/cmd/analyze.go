package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/app"
	"bcn-hostel-prices/internal/booking"
	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/export"
	"bcn-hostel-prices/internal/report"
	"bcn-hostel-prices/internal/storage"
)

var analyzeFlags struct {
	date    string
	start   string
	end     string
	sortBy  string
	desc    bool
	only    []string
	noChart bool
	noCSV   bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scrape calendar prices for every hostel and show the comparison table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		window, err := analyzeWindow()
		if err != nil {
			return err
		}
		sortKey, err := analysis.ParseSortKey(analyzeFlags.sortBy)
		if err != nil {
			return err
		}

		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		list := catalog.List()
		if len(analyzeFlags.only) > 0 {
			list = list[:0]
			for _, name := range analyzeFlags.only {
				_, h, err := catalog.Find(name)
				if err != nil {
					return err
				}
				list = append(list, h)
			}
		}
		if len(list) == 0 {
			return fmt.Errorf("no hostels to analyze")
		}

		transports, err := app.OpenTransports(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer transports.Close()

		transport, err := transports.Booking()
		if err != nil {
			return err
		}

		repo := openHistory(ctx, cmd.ErrOrStderr())
		if repo != nil {
			defer repo.Close()
		}

		analyzer := app.NewAnalyzer(cfg, logger, booking.NewClient(transport, cfg, logger), repo)
		res, err := analyzer.Run(ctx, list, window)
		if err != nil {
			return err
		}

		analysis.SortRows(res.Rows, sortKey, analyzeFlags.desc)

		fmt.Fprintf(out, "Ventana: %s (%d días), run %s\n", window, window.Days(), res.RunID)
		report.Rows(out, res.Rows)
		report.Warnings(out, res.Warnings)
		report.Summary(out, analysis.Summarize(res.Rows))
		if !analyzeFlags.noChart {
			report.Charts(out, res.Rows)
		}

		var daily []analysis.DailyStat
		if window.IsRange() {
			observations := analysis.ForAdults(res.Observations, analysis.StatsAdults)
			daily = analysis.Daily(observations)
			fmt.Fprintf(out, "Estadística diaria, %d adultos\n", analysis.StatsAdults)
			report.Daily(out, daily)
			if wd, mean, ok := analysis.BestWeekday(observations); ok {
				fmt.Fprintf(out, "Día más barato: %s (media %.2f)\n", wd, mean)
			}
			weekday, weekend := analysis.WeekendSplit(observations)
			fmt.Fprintf(out, "Entre semana: %.2f (%d), fin de semana: %.2f (%d)\n",
				weekday.Mean, weekday.Count, weekend.Mean, weekend.Count)
		}

		if res.StoreErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: history not saved: %v\n", res.StoreErr)
		} else if repo != nil {
			fmt.Fprintf(out, "Historial: %d nuevas, %d actualizadas\n", res.Inserted, res.Updated)
		}

		if analyzeFlags.noCSV {
			return nil
		}
		if err := export.NewCSVWriter(cfg.Output.CSVPath, logger).WriteRows(res.Rows); err != nil {
			return err
		}
		fmt.Fprintf(out, "CSV: %s\n", cfg.Output.CSVPath)
		if len(daily) > 0 && cfg.Output.DailyCSVPath != "" {
			if err := export.NewCSVWriter(cfg.Output.DailyCSVPath, logger).WriteDaily(daily); err != nil {
				return err
			}
			fmt.Fprintf(out, "CSV diario: %s\n", cfg.Output.DailyCSVPath)
		}
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.date, "date", "today", "single check-in date (today, mañana, 2025-03-11, 11/03/2025, 11 marzo)")
	f.StringVar(&analyzeFlags.start, "start", "", "range start date")
	f.StringVar(&analyzeFlags.end, "end", "", "range end date (default start + 7 days)")
	f.StringVar(&analyzeFlags.sortBy, "sort", "name", "sort key: name|type|private|shared|shared1|net|net_shared|net_shared1")
	f.BoolVar(&analyzeFlags.desc, "desc", false, "sort descending")
	f.StringSliceVar(&analyzeFlags.only, "only", nil, "analyze only these hostels (by name)")
	f.BoolVar(&analyzeFlags.noChart, "no-chart", false, "skip the text charts")
	f.BoolVar(&analyzeFlags.noCSV, "no-csv", false, "do not write CSV files")
	rootCmd.AddCommand(analyzeCmd)
}

func analyzeWindow() (dates.Window, error) {
	p := dates.NewParser()
	if analyzeFlags.start == "" && analyzeFlags.end == "" {
		day, err := p.Parse(analyzeFlags.date)
		if err != nil {
			return dates.Window{}, err
		}
		return dates.SingleDay(day), nil
	}

	startRaw := analyzeFlags.start
	if startRaw == "" {
		startRaw = analyzeFlags.date
	}
	start, err := p.Parse(startRaw)
	if err != nil {
		return dates.Window{}, err
	}
	end := start.AddDate(0, 0, 7)
	if analyzeFlags.end != "" {
		if end, err = p.Parse(analyzeFlags.end); err != nil {
			return dates.Window{}, err
		}
	}
	return dates.NewWindow(start, end)
}

// openHistory открывает хранилище истории; без него анализ идёт дальше.
func openHistory(ctx context.Context, stderr io.Writer) storage.Repository {
	repo, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Warn("History storage unavailable", "driver", cfg.Storage.Driver, "error", err.Error())
		fmt.Fprintf(stderr, "Warning: history disabled: %v\n", err)
		return nil
	}
	return repo
}
