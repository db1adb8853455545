package analysis

import (
	"errors"
	"fmt"

	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/pricing"
)

var (
	// ErrNoPricingData - ни для 2, ни для 1 взрослого нет цены в окне дат.
	ErrNoPricingData  = errors.New("no pricing data")
	ErrNoAvailability = errors.New("no availability")
)

// Price - цена одного типа комнаты: брутто с Booking (или выведенная) и нетто.
type Price struct {
	Gross      float64
	Net        float64
	Commission float64
	Derived    bool
}

// Row - строка сравнительной таблицы для одного хостела.
type Row struct {
	Name     string
	Category hostels.Category
	URL      string

	Private2 *Price
	Shared2  *Price
	Shared1  *Price

	TouristTax2 float64
	TouristTax1 float64

	Range          bool
	DaysTotal      int
	DaysAvailable2 int
	DaysAvailable1 int

	// Err заполняется, когда цен нет совсем.
	Err string
}

func (r Row) HasPrices() bool {
	return r.Private2 != nil || r.Shared2 != nil || r.Shared1 != nil
}

// Warning - проблема с одним хостелом; прогон продолжается.
// Adults == 0, если проблема не связана с конкретным календарём.
type Warning struct {
	Hostel string
	URL    string
	Adults int
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Hostel, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// BuildRow применяет правила цен к календарям на 2 и 1 взрослого.
// Для 2 взрослых показываются обе комнаты, для 1 взрослого - только общая.
func BuildRow(h hostels.Hostel, days2, days1 []pricing.DailyPrice, window dates.Window, rules pricing.Rules) (Row, []Warning) {
	row := Row{
		Name:      h.Name,
		Category:  h.Category,
		URL:       h.URL,
		Range:     window.IsRange(),
		DaysTotal: window.Days(),
	}
	var warnings []Warning

	if agg, ok := pricing.Aggregated(days2, window.Start, window.End); ok {
		q := rules.Quote(h.Category, agg.Value)
		row.Private2 = price(rules, q.Private, 2, q.PrivateDerived)
		row.Shared2 = price(rules, q.Shared, 2, q.SharedDerived)
		row.TouristTax2 = rules.Net(0, 2).TouristTax
		row.DaysAvailable2 = agg.DaysAvailable
	} else {
		warnings = append(warnings, Warning{
			Hostel: h.Name,
			URL:    h.URL,
			Adults: 2,
			Err:    fmt.Errorf("%w for 2 adults in %s", ErrNoAvailability, window),
		})
	}

	if agg, ok := pricing.Aggregated(days1, window.Start, window.End); ok {
		q := rules.Quote(h.Category, agg.Value)
		row.Shared1 = price(rules, q.Shared, 1, q.SharedDerived)
		row.TouristTax1 = rules.Net(0, 1).TouristTax
		row.DaysAvailable1 = agg.DaysAvailable
	} else {
		warnings = append(warnings, Warning{
			Hostel: h.Name,
			URL:    h.URL,
			Adults: 1,
			Err:    fmt.Errorf("%w for 1 adult in %s", ErrNoAvailability, window),
		})
	}

	if !row.HasPrices() {
		row.Err = ErrNoPricingData.Error()
	}
	return row, warnings
}

// FailedRow - строка для хостела, который не удалось загрузить.
func FailedRow(h hostels.Hostel, err error) Row {
	return Row{
		Name:     h.Name,
		Category: h.Category,
		URL:      h.URL,
		Err:      err.Error(),
	}
}

func price(rules pricing.Rules, gross float64, adults int, derived bool) *Price {
	b := rules.Net(gross, adults)
	return &Price{
		Gross:      b.Gross,
		Net:        b.Net,
		Commission: b.Commission,
		Derived:    derived,
	}
}
