package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/listings"
	"bcn-hostel-prices/internal/observability"
)

var rowHeader = []string{
	"Nombre Hotel", "Tipo", "URL",
	"Precio Hab Baño Privado 2 Adultos", "Privado Calculado",
	"Precio Hab Baño Compartido 2 Adultos", "Compartido Calculado",
	"Tasa Turística 2 Adultos",
	"Interés 8% Privado 2 Adultos", "Precio Sin Tasa Privado 2 Adultos",
	"Interés 8% Compartido 2 Adultos", "Precio Sin Tasa Compartido 2 Adultos",
	"Precio Hab Baño Compartido 1 Adulto", "Tasa Turística 1 Adulto",
	"Interés 8% Compartido 1 Adulto", "Precio Sin Tasa Compartido 1 Adulto",
	"Días con Disponibilidad", "Total Días en Rango", "Error",
}

// CSVWriter пишет таблицы в CSV (UTF-8, первая строка - заголовок).
type CSVWriter struct {
	filePath string
	logger   *observability.Logger
}

func NewCSVWriter(filePath string, logger *observability.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

func (w *CSVWriter) Path() string {
	return w.filePath
}

// WriteRows пишет сравнительную таблицу хостелов.
func (w *CSVWriter) WriteRows(rows []analysis.Row) error {
	return w.write(func(cw *csv.Writer) (int, error) {
		return len(rows), EncodeRows(cw, rows)
	})
}

// WriteListings пишет результаты поиска.
func (w *CSVWriter) WriteListings(results []*listings.SearchResult) error {
	return w.write(func(cw *csv.Writer) (int, error) {
		return len(results), EncodeListings(cw, results)
	})
}

// WriteDaily пишет дневную статистику цен.
func (w *CSVWriter) WriteDaily(stats []analysis.DailyStat) error {
	return w.write(func(cw *csv.Writer) (int, error) {
		return len(stats), EncodeDaily(cw, stats)
	})
}

func (w *CSVWriter) write(encode func(cw *csv.Writer) (int, error)) error {
	// Ensure output directory exists
	if dir := filepath.Dir(w.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	writer := csv.NewWriter(file)
	n, encErr := encode(writer)
	writer.Flush()
	if encErr == nil {
		encErr = writer.Error()
	}
	if closeErr := file.Close(); encErr == nil && closeErr != nil {
		encErr = fmt.Errorf("failed to close CSV file: %w", closeErr)
	}
	if encErr != nil {
		return encErr
	}

	w.logger.Info("csv written", "path", w.filePath, "rows", n)
	return nil
}

// EncodeRows пишет строки таблицы в произвольный csv.Writer.
func EncodeRows(cw *csv.Writer, rows []analysis.Row) error {
	if err := cw.Write(rowHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Name, string(r.Category), r.URL,
			gross(r.Private2), derived(r.Private2),
			gross(r.Shared2), derived(r.Shared2),
			taxIf(r.Private2 != nil || r.Shared2 != nil, r.TouristTax2),
			commission(r.Private2), net(r.Private2),
			commission(r.Shared2), net(r.Shared2),
			gross(r.Shared1), taxIf(r.Shared1 != nil, r.TouristTax1),
			commission(r.Shared1), net(r.Shared1),
			countIf(r.Range, r.DaysAvailable2), countIf(r.Range, r.DaysTotal),
			r.Err,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %q: %w", r.Name, err)
		}
	}
	return nil
}

func EncodeListings(cw *csv.Writer, results []*listings.SearchResult) error {
	header := []string{"page", "position", "title", "rating", "price", "raw_price", "description", "address", "url", "hash"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, l := range results {
		description := l.Description
		var address string
		if l.Detail != nil {
			if l.Detail.Description != "" {
				description = l.Detail.Description
			}
			address = l.Detail.Address
		}
		record := []string{
			strconv.Itoa(l.Page + 1),
			strconv.Itoa(l.SequenceNum + 1),
			l.Title,
			number(l.Rating),
			number(l.Price),
			l.PriceRaw,
			description,
			address,
			l.URL,
			l.Hash,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %q: %w", l.Title, err)
		}
	}
	return nil
}

func EncodeDaily(cw *csv.Writer, stats []analysis.DailyStat) error {
	if err := cw.Write([]string{"date", "weekday", "mean", "min", "max", "count"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, s := range stats {
		record := []string{
			s.Date.Format("2006-01-02"),
			s.Date.Weekday().String(),
			money(s.Mean), money(s.Min), money(s.Max),
			strconv.Itoa(s.Count),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", record[0], err)
		}
	}
	return nil
}

// NewWriter - csv.Writer поверх произвольного io.Writer (stdout, буфер в тестах).
func NewWriter(w io.Writer) *csv.Writer {
	return csv.NewWriter(w)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// number - пустая ячейка для нуля (рейтинг или цена не найдены).
func number(v float64) string {
	if v == 0 {
		return ""
	}
	return money(v)
}

func gross(p *analysis.Price) string {
	if p == nil {
		return ""
	}
	return money(p.Gross)
}

func net(p *analysis.Price) string {
	if p == nil {
		return ""
	}
	return money(p.Net)
}

func commission(p *analysis.Price) string {
	if p == nil {
		return ""
	}
	return money(p.Commission)
}

func derived(p *analysis.Price) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(p.Derived)
}

func taxIf(ok bool, v float64) string {
	if !ok {
		return ""
	}
	return money(v)
}

func countIf(ok bool, v int) string {
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}
