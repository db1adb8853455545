package analysis

import (
	"time"

	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/pricing"
)

// Observation - цена хостела на одну дату для заданного числа взрослых.
// Scraped - цена комнаты того типа, что продаётся на Booking; Derived - цена второго типа.
type Observation struct {
	RunID      string
	HostelName string
	HostelURL  string
	Category   hostels.Category
	Date       time.Time
	Adults     int
	Scraped    float64
	Derived    float64
	ScrapedAt  time.Time
}

// Observations переводит календарь в наблюдения внутри окна; дни без цены пропускаются.
func Observations(h hostels.Hostel, days []pricing.DailyPrice, adults int, window dates.Window, rules pricing.Rules) []Observation {
	var out []Observation
	for _, d := range days {
		if d.Price <= pricing.MinValidPrice {
			continue
		}
		day := dates.SingleDay(d.Date).Start
		if day.Before(window.Start) || day.After(window.End) {
			continue
		}

		obs := Observation{
			HostelName: h.Name,
			HostelURL:  h.URL,
			Category:   h.Category,
			Date:       day,
			Adults:     adults,
			Scraped:    d.Price,
		}
		if h.Category == hostels.Private {
			obs.Derived = rules.SharedFromPrivate(d.Price)
		} else {
			obs.Derived = rules.PrivateFromShared(d.Price)
		}
		out = append(out, obs)
	}
	return out
}
