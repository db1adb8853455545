package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/pricing"
	"bcn-hostel-prices/internal/report"
)

var quoteFlags struct {
	category string
	adults   int
}

var quoteCmd = &cobra.Command{
	Use:   "quote PRICE [PRICE...]",
	Short: "Apply the pricing rules to prices seen on Booking (no network).",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := hostels.ParseCategory(quoteFlags.category)
		if err != nil {
			return err
		}
		if quoteFlags.adults < 1 {
			return fmt.Errorf("adults must be at least 1")
		}

		observed := make([]float64, 0, len(args))
		for _, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", a, err)
			}
			observed = append(observed, v)
		}

		rules := cfg.Pricing
		q := rules.Quote(category, observed...)

		t := report.NewTable(cmd.OutOrStdout())
		t.SetTitle("%s, %d adultos", category, quoteFlags.adults)
		t.AppendHeader(table.Row{"Habitación", "Bruto", "Tasa", "Interés", "Neto", "Origen"})
		// para 1 adulto solo se ofrece la habitación compartida
		if quoteFlags.adults > 1 {
			appendQuote(t, "Privado", q.Private, q.PrivateDerived, rules)
		}
		appendQuote(t, "Compartido", q.Shared, q.SharedDerived, rules)
		t.Render()
		return nil
	},
}

func appendQuote(t table.Writer, room string, gross float64, derived bool, rules pricing.Rules) {
	b := rules.Net(gross, quoteFlags.adults)
	origin := "Booking"
	if derived {
		origin = "calculado"
	}
	t.AppendRow(table.Row{
		room,
		fmt.Sprintf("%.2f", pricing.Round2(b.Gross)),
		fmt.Sprintf("%.2f", pricing.Round2(b.TouristTax)),
		fmt.Sprintf("%.2f", pricing.Round2(b.Commission)),
		fmt.Sprintf("%.2f", pricing.Round2(b.Net)),
		origin,
	})
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteFlags.category, "type", "t", "Privado", "hostel type: Privado|Compartido|Híbrido")
	quoteCmd.Flags().IntVarP(&quoteFlags.adults, "adults", "a", 2, "number of adults")
	rootCmd.AddCommand(quoteCmd)
}
