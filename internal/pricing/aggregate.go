package pricing

import "time"

// MinValidPrice: Booking отдаёт 0 для дат без свободных мест.
const MinValidPrice = 0.01

type DailyPrice struct {
	Date  time.Time
	Price float64
}

type Aggregate struct {
	Value         float64
	DaysAvailable int
	DaysTotal     int
	Range         bool
}

// Aggregated collapses a calendar into one price. A single-day window takes the
// minimum price on that date; a range takes the mean over available days.
// ok is false when no day in the window has a valid price.
func Aggregated(days []DailyPrice, start, end time.Time) (agg Aggregate, ok bool) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		end = start
	}

	agg.Range = !end.Equal(start)
	agg.DaysTotal = int(end.Sub(start).Hours()/24) + 1

	var (
		sum   float64
		min   float64
		count int
	)
	for _, d := range days {
		if d.Price <= MinValidPrice {
			continue
		}
		day := truncateDay(d.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		if count == 0 || d.Price < min {
			min = d.Price
		}
		sum += d.Price
		count++
	}

	if count == 0 {
		return agg, false
	}

	agg.DaysAvailable = count
	if agg.Range {
		agg.Value = sum / float64(count)
	} else {
		agg.Value = min
	}
	return agg, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
