package report

import (
	"fmt"
	"io"
	"strings"

	"bcn-hostel-prices/internal/analysis"
)

// ChartWidth - длина самой длинной полосы в символах.
const ChartWidth = 40

type Bar struct {
	Label string
	Value float64
}

// BarChart рисует горизонтальные полосы, масштабированные по максимуму.
func BarChart(w io.Writer, title string, bars []Bar) {
	thin := strings.Repeat("─", ChartWidth+30)
	fmt.Fprintf(w, "\n %s\n%s\n", title, thin)
	if len(bars) == 0 {
		fmt.Fprintln(w, "  (sin datos)")
		return
	}

	var maxValue float64
	labelWidth := 0
	for _, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
		if n := len([]rune(b.Label)); n > labelWidth {
			labelWidth = n
		}
	}
	if labelWidth > 25 {
		labelWidth = 25
	}

	for _, b := range bars {
		n := 0
		if maxValue > 0 && b.Value > 0 {
			n = int(b.Value / maxValue * ChartWidth)
			if n == 0 {
				n = 1
			}
		}
		label := fit(b.Label, labelWidth)
		fmt.Fprintf(w, "  %s %8.2f  %s\n", label, b.Value, strings.Repeat("▓", n))
	}
}

// PriceBars - полосы для одного типа комнаты; хостелы без цены пропускаются.
func PriceBars(rows []analysis.Row, kind analysis.RoomKind) []Bar {
	var bars []Bar
	for _, r := range rows {
		if p := r.Price(kind); p != nil {
			bars = append(bars, Bar{Label: r.Name, Value: p.Gross})
		}
	}
	return bars
}

// Charts печатает по графику на каждый тип комнаты.
func Charts(w io.Writer, rows []analysis.Row) {
	for _, kind := range analysis.RoomKinds() {
		BarChart(w, "Precio "+string(kind)+" (EUR)", PriceBars(rows, kind))
	}
}

func fit(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-len(runes))
}
