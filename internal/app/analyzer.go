package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/booking"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
	"bcn-hostel-prices/internal/pricing"
	"bcn-hostel-prices/internal/storage"
)

// minNameSimilarity - ниже этого порога имя на странице Booking считается чужим.
const minNameSimilarity = 0.6

// CalendarSource - то, что нужно анализатору от booking.Client.
type CalendarSource interface {
	Lookup(ctx context.Context, hostelURL string) (*booking.PageInfo, error)
	QueryCalendar(ctx context.Context, req booking.CalendarRequest) ([]booking.Day, error)
}

type Analyzer struct {
	cfg       *config.Config
	logger    *observability.Logger
	calendars CalendarSource
	repo      storage.Repository
	rules     pricing.Rules
	now       func() time.Time
}

// NewAnalyzer; repo может быть nil - тогда история не сохраняется.
func NewAnalyzer(cfg *config.Config, logger *observability.Logger, calendars CalendarSource, repo storage.Repository) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		logger:    logger,
		calendars: calendars,
		repo:      repo,
		rules:     cfg.Pricing,
		now:       time.Now,
	}
}

type Result struct {
	RunID        string
	Window       dates.Window
	Rows         []analysis.Row
	Warnings     []analysis.Warning
	Observations []analysis.Observation
	Inserted     int
	Updated      int
	// StoreErr - ошибка записи истории; строки таблицы при этом валидны.
	StoreErr  error
	StartedAt time.Time
	Duration  time.Duration
}

type hostelResult struct {
	row          analysis.Row
	warnings     []analysis.Warning
	observations []analysis.Observation
}

// Run собирает цены всех хостелов параллельно (rate_limit.max_concurrent).
// Ошибки отдельных хостелов становятся предупреждениями; порядок строк совпадает с входным.
func (a *Analyzer) Run(ctx context.Context, list []hostels.Hostel, window dates.Window) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Window:    window,
		StartedAt: a.now().UTC(),
	}

	a.logger.Info("Starting analysis",
		"run_id", res.RunID,
		"hostels", len(list),
		"window", window.String(),
		"max_concurrent", a.cfg.RateLimit.MaxConcurrent,
	)

	results := make([]hostelResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.cfg.RateLimit.MaxConcurrent, 1))

	for i, h := range list {
		i, h := i, h
		g.Go(func() error {
			results[i] = a.analyzeHostel(gctx, h, window, res.RunID, res.StartedAt)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	for _, r := range results {
		res.Rows = append(res.Rows, r.row)
		res.Warnings = append(res.Warnings, r.warnings...)
		res.Observations = append(res.Observations, r.observations...)
	}

	if a.repo != nil && len(res.Observations) > 0 {
		res.Inserted, res.Updated, res.StoreErr = storage.SaveAll(ctx, a.repo, res.Observations)
		if res.StoreErr != nil {
			a.logger.Error("Failed to store observations", "run_id", res.RunID, "error", res.StoreErr.Error())
		}
	}

	res.Duration = a.now().UTC().Sub(res.StartedAt)
	a.logger.Info("Analysis completed",
		"run_id", res.RunID,
		"rows", len(res.Rows),
		"warnings", len(res.Warnings),
		"observations", len(res.Observations),
		"inserted", res.Inserted,
		"updated", res.Updated,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *Analyzer) analyzeHostel(ctx context.Context, h hostels.Hostel, window dates.Window, runID string, at time.Time) hostelResult {
	page, err := a.calendars.Lookup(ctx, h.URL)
	if err != nil {
		a.logger.Warn("Hotel page failed", "hostel", h.Name, "url", h.URL, "error", err.Error())
		return hostelResult{
			row:      analysis.FailedRow(h, err),
			warnings: []analysis.Warning{{Hostel: h.Name, URL: h.URL, Err: err}},
		}
	}

	if page.Name != "" && hostels.NameSimilarity(h.Name, page.Name) < minNameSimilarity {
		a.logger.Warn("Hostel name differs from Booking page",
			"hostel", h.Name,
			"page_name", page.Name,
			"url", h.URL,
		)
	}

	var out hostelResult
	days := make(map[int][]pricing.DailyPrice, 2)
	failed := make(map[int]bool, 2)
	for _, adults := range []int{2, 1} {
		prices, err := a.calendar(ctx, page, window, adults)
		if err != nil {
			failed[adults] = true
			a.logger.Warn("Calendar failed", "hostel", h.Name, "adults", adults, "error", err.Error())
			out.warnings = append(out.warnings, analysis.Warning{
				Hostel: h.Name,
				URL:    h.URL,
				Adults: adults,
				Err:    fmt.Errorf("calendar for %d adults: %w", adults, err),
			})
			continue
		}
		days[adults] = prices
	}

	row, warnings := analysis.BuildRow(h, days[2], days[1], window, a.rules)
	out.row = row
	for _, w := range warnings {
		// причина уже записана как ошибка запроса
		if failed[w.Adults] {
			continue
		}
		out.warnings = append(out.warnings, w)
	}

	for _, adults := range []int{2, 1} {
		for _, obs := range analysis.Observations(h, days[adults], adults, window, a.rules) {
			obs.RunID = runID
			obs.ScrapedAt = at
			out.observations = append(out.observations, obs)
		}
	}

	a.logger.Debug("Hostel analyzed",
		"hostel", h.Name,
		"has_prices", row.HasPrices(),
		"warnings", len(out.warnings),
	)
	return out
}

// calendar запрашивает окно кусками по MaxCalendarDays дней.
func (a *Analyzer) calendar(ctx context.Context, page *booking.PageInfo, window dates.Window, adults int) ([]pricing.DailyPrice, error) {
	var out []pricing.DailyPrice
	for start := window.Start; !start.After(window.End); start = start.AddDate(0, 0, dates.MaxCalendarDays) {
		chunk, err := dates.NewWindow(start, minTime(window.End, start.AddDate(0, 0, dates.MaxCalendarDays-1)))
		if err != nil {
			return nil, err
		}
		days, err := a.calendars.QueryCalendar(ctx, booking.CalendarRequest{
			Page:   page,
			Start:  chunk.Start,
			Days:   chunk.CalendarDays(),
			Adults: adults,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, booking.DailyPrices(days)...)
	}
	return out, nil
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
