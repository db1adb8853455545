package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/analysis"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/observability"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), ":memory:", 5000, observability.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestUpsertObservation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	obs := analysis.Observation{
		RunID:      "run-1",
		HostelName: "Hostal Ramos",
		HostelURL:  "https://www.booking.com/hotel/es/hostal-ramos.html",
		Category:   hostels.Private,
		Date:       day(10),
		Adults:     2,
		Scraped:    101,
		Derived:    80.8,
		ScrapedAt:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	isNew, err := repo.UpsertObservation(ctx, &obs)
	require.NoError(t, err)
	assert.True(t, isNew)

	obs.RunID = "run-2"
	obs.Scraped = 110
	obs.ScrapedAt = obs.ScrapedAt.Add(time.Hour)
	isNew, err = repo.UpsertObservation(ctx, &obs)
	require.NoError(t, err)
	assert.False(t, isNew)

	got, err := repo.ListObservations(ctx, obs.HostelURL, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 110.0, got[0].Scraped)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, hostels.Private, got[0].Category)
	assert.True(t, got[0].Date.Equal(day(10)))
	assert.True(t, got[0].ScrapedAt.Equal(obs.ScrapedAt))
}

func TestListObservationsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, o := range []analysis.Observation{
		{RunID: "r", HostelName: "A", HostelURL: "https://www.booking.com/hotel/es/a.html", Category: hostels.Shared, Date: day(12), Adults: 1, Scraped: 30, ScrapedAt: at},
		{RunID: "r", HostelName: "A", HostelURL: "https://www.booking.com/hotel/es/a.html", Category: hostels.Shared, Date: day(10), Adults: 2, Scraped: 50, ScrapedAt: at},
		{RunID: "r", HostelName: "B", HostelURL: "https://www.booking.com/hotel/es/b.html", Category: hostels.Hybrid, Date: day(11), Adults: 2, Scraped: 70, ScrapedAt: at},
	} {
		o := o
		_, err := repo.UpsertObservation(ctx, &o)
		require.NoError(t, err)
	}

	all, err := repo.ListObservations(ctx, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.Equal(day(10)))
	assert.True(t, all[2].Date.Equal(day(12)))

	a, err := repo.ListObservations(ctx, "https://www.booking.com/hotel/es/a.html", day(11), day(12))
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Equal(t, 1, a[0].Adults)
}

func TestLatestRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, at, err := repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.True(t, at.IsZero())

	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, run := range []string{"old", "new"} {
		o := analysis.Observation{RunID: run, HostelName: "A", HostelURL: "u", Category: hostels.Shared,
			Date: day(10 + i), Adults: 2, Scraped: 40, ScrapedAt: first.Add(time.Duration(i) * time.Hour)}
		_, err := repo.UpsertObservation(ctx, &o)
		require.NoError(t, err)
	}

	id, at, err = repo.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	assert.True(t, at.Equal(first.Add(time.Hour)))
}
