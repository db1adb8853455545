package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/booking"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
	"bcn-hostel-prices/internal/storage/sqlite"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

// fakeCalendars отдаёт цену по (url, adults); цена 0 - нет доступности.
type fakeCalendars struct {
	mu       sync.Mutex
	prices   map[string]map[int]float64
	failPage map[string]error
	failCal  map[string]map[int]error
	requests []booking.CalendarRequest
}

func (f *fakeCalendars) Lookup(_ context.Context, hostelURL string) (*booking.PageInfo, error) {
	if err := f.failPage[hostelURL]; err != nil {
		return nil, err
	}
	return &booking.PageInfo{URL: hostelURL, PageName: hostelURL}, nil
}

func (f *fakeCalendars) QueryCalendar(_ context.Context, req booking.CalendarRequest) ([]booking.Day, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := f.failCal[req.Page.URL][req.Adults]; err != nil {
		return nil, err
	}
	price := f.prices[req.Page.URL][req.Adults]
	days := make([]booking.Day, 0, req.Days)
	for i := 0; i < req.Days; i++ {
		days = append(days, booking.Day{Date: req.Start.AddDate(0, 0, i), Price: price})
	}
	return days, nil
}

func testHostels() []hostels.Hostel {
	return []hostels.Hostel{
		{Name: "Hostal Ramos", Category: hostels.Private, URL: "ramos"},
		{Name: "Broken", Category: hostels.Shared, URL: "broken"},
		{Name: "Generator", Category: hostels.Shared, URL: "generator"},
	}
}

func TestAnalyzerRun(t *testing.T) {
	src := &fakeCalendars{
		prices: map[string]map[int]float64{
			"ramos":     {2: 100, 1: 80},
			"generator": {2: 50},
		},
		failPage: map[string]error{"broken": errors.New("status 403")},
		failCal:  map[string]map[int]error{"generator": {1: booking.ErrNoCalendar}},
	}

	a := NewAnalyzer(config.Default(), observability.Nop(), src, nil)
	res, err := a.Run(context.Background(), testHostels(), dates.SingleDay(day(10)))
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Hostal Ramos", res.Rows[0].Name)
	assert.Equal(t, "Broken", res.Rows[1].Name)
	assert.Equal(t, "Generator", res.Rows[2].Name)

	assert.Equal(t, 100.0, res.Rows[0].Private2.Gross)
	assert.InDelta(t, 64.0, res.Rows[0].Shared1.Gross, 1e-9)
	assert.Equal(t, "status 403", res.Rows[1].Err)
	assert.Equal(t, 50.0, res.Rows[2].Shared2.Gross)
	assert.Nil(t, res.Rows[2].Shared1)

	// отказ страницы + отказ календаря на 1 взрослого, без дубля "no availability"
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "Broken", res.Warnings[0].Hostel)
	assert.True(t, errors.Is(res.Warnings[1], booking.ErrNoCalendar))
	assert.Equal(t, 1, res.Warnings[1].Adults)

	assert.Len(t, res.Observations, 3)
	for _, obs := range res.Observations {
		assert.Equal(t, res.RunID, obs.RunID)
	}
}

func TestAnalyzerNoAvailabilityWarning(t *testing.T) {
	src := &fakeCalendars{prices: map[string]map[int]float64{"ramos": {2: 100}}}

	a := NewAnalyzer(config.Default(), observability.Nop(), src, nil)
	res, err := a.Run(context.Background(), testHostels()[:1], dates.SingleDay(day(10)))
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.True(t, errors.Is(res.Warnings[0], analysis.ErrNoAvailability))
}

func TestAnalyzerSplitsLongWindows(t *testing.T) {
	src := &fakeCalendars{prices: map[string]map[int]float64{"ramos": {2: 100, 1: 80}}}
	w, err := dates.NewWindow(day(1), day(1).AddDate(0, 0, 44))
	require.NoError(t, err)

	a := NewAnalyzer(config.Default(), observability.Nop(), src, nil)
	res, err := a.Run(context.Background(), testHostels()[:1], w)
	require.NoError(t, err)

	// 45 дней: 30 + 15 на каждое число взрослых
	require.Len(t, src.requests, 4)
	var total2 int
	for _, r := range src.requests {
		if r.Adults == 2 {
			total2 += r.Days
		}
	}
	assert.Equal(t, 45, total2)
	assert.Equal(t, 45, res.Rows[0].DaysAvailable2)
	assert.Equal(t, 45, res.Rows[0].DaysTotal)
}

func TestAnalyzerPersistsObservations(t *testing.T) {
	repo, err := sqlite.NewRepository(context.Background(), ":memory:", 5000, observability.Nop())
	require.NoError(t, err)
	defer repo.Close()

	src := &fakeCalendars{prices: map[string]map[int]float64{"ramos": {2: 100, 1: 80}}}
	w, _ := dates.NewWindow(day(10), day(11))

	a := NewAnalyzer(config.Default(), observability.Nop(), src, repo)
	res, err := a.Run(context.Background(), testHostels()[:1], w)
	require.NoError(t, err)
	require.NoError(t, res.StoreErr)
	assert.Equal(t, 4, res.Inserted)

	stored, err := repo.ListObservations(context.Background(), "ramos", day(10), day(11))
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	runID, _, err := repo.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.RunID, runID)
}

func TestAnalyzerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(config.Default(), observability.Nop(), &fakeCalendars{}, nil)
	_, err := a.Run(ctx, testHostels(), dates.SingleDay(day(10)))
	assert.True(t, errors.Is(err, context.Canceled))
}
