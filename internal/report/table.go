package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/listings"
)

// DerivedMark помечает цены, рассчитанные по правилам, а не взятые с Booking.
const DerivedMark = "*"

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// Rows печатает сравнительную таблицу хостелов.
func Rows(w io.Writer, rows []analysis.Row) {
	t := NewTable(w)
	t.AppendHeader(table.Row{
		"Hostel", "Tipo",
		"Privado 2A", "Compartido 2A", "Compartido 1A",
		"Neto Priv 2A", "Neto Comp 2A", "Neto Comp 1A",
		"Días", "Error",
	})

	for _, r := range rows {
		days := ""
		if r.Range {
			days = fmt.Sprintf("%d/%d", r.DaysAvailable2, r.DaysTotal)
		}
		t.AppendRow(table.Row{
			r.Name, r.Category.String(),
			gross(r.Private2), gross(r.Shared2), gross(r.Shared1),
			net(r.Private2), net(r.Shared2), net(r.Shared1),
			days, r.Err,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 40},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.SetCaption("%s = calculado a partir del otro tipo de habitación", DerivedMark)
	t.Render()
}

func Warnings(w io.Writer, warnings []analysis.Warning) {
	if len(warnings) == 0 {
		return
	}
	t := NewTable(w)
	t.SetTitle("Avisos")
	t.AppendHeader(table.Row{"Hostel", "Problema"})
	for _, wr := range warnings {
		t.AppendRow(table.Row{wr.Hostel, wr.Err.Error()})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})
	t.Render()
}

// Summary - средние цены по типу хостела и типу комнаты.
func Summary(w io.Writer, summary []analysis.CategorySummary) {
	t := NewTable(w)
	t.SetTitle("Promedios por tipo")
	t.AppendHeader(table.Row{"Tipo", "Habitación", "Bruto", "Neto", "Hostels"})
	for _, s := range summary {
		t.AppendRow(table.Row{s.Category.String(), string(s.Kind), money(s.MeanGross), money(s.MeanNet), s.Count})
	}
	t.Render()
}

func Daily(w io.Writer, stats []analysis.DailyStat) {
	t := NewTable(w)
	t.SetTitle("Precio por día")
	t.AppendHeader(table.Row{"Fecha", "Día", "Media", "Mín", "Máx", "N"})
	for _, s := range stats {
		t.AppendRow(table.Row{
			s.Date.Format("2006-01-02"), s.Date.Weekday().String(),
			money(s.Mean), money(s.Min), money(s.Max), s.Count,
		})
	}
	t.Render()
}

// Listings печатает результаты поиска; описание обрезано до превью.
func Listings(w io.Writer, results []*listings.SearchResult) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"#", "Title", "Rating", "Price", "Description"})
	for i, l := range results {
		description := l.Description
		if l.Detail != nil && l.Detail.Description != "" {
			description = l.Detail.Description
		}
		t.AppendRow(table.Row{
			i + 1, l.Title, optional(l.Rating), optional(l.Price),
			listings.TruncatePreview(description, 60),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 40}})
	t.Render()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optional(v float64) string {
	if v == 0 {
		return "-"
	}
	return money(v)
}

func gross(p *analysis.Price) string {
	if p == nil {
		return "-"
	}
	if p.Derived {
		return money(p.Gross) + DerivedMark
	}
	return money(p.Gross)
}

func net(p *analysis.Price) string {
	if p == nil {
		return "-"
	}
	return money(p.Net)
}
