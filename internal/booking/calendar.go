package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bcn-hostel-prices/internal/dates"
	"bcn-hostel-prices/internal/listings"
	"bcn-hostel-prices/internal/pricing"
)

var ErrNoCalendar = errors.New("no availability calendar in response")

const calendarQuery = `query AvailabilityCalendar($input: AvailabilityCalendarQueryInput!) {
  availabilityCalendar(input: $input) {
    ... on AvailabilityCalendarQueryResult {
      hotelId
      days {
        available
        avgPriceFormatted
        checkin
        minLengthOfStay
        __typename
      }
      __typename
    }
    ... on AvailabilityCalendarQueryError {
      message
      __typename
    }
    __typename
  }
}
`

// CalendarRequest - один запрос календаря: Days дней начиная со Start.
type CalendarRequest struct {
	Page   *PageInfo
	Start  time.Time
	Days   int
	Adults int
}

// clampDays ограничивает длину запроса диапазоном [1, 30].
func clampDays(n int) int {
	if n < 1 {
		return 1
	}
	if n > dates.MaxCalendarDays {
		return dates.MaxCalendarDays
	}
	return n
}

type calendarBody struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    map[string]any `json:"extensions"`
	Query         string         `json:"query"`
}

// Body собирает JSON тела GraphQL-запроса AvailabilityCalendar.
func (r CalendarRequest) Body() ([]byte, error) {
	if r.Page == nil {
		return nil, ErrNoPageName
	}
	adults := r.Adults
	if adults < 1 {
		adults = 1
	}

	body := calendarBody{
		OperationName: "AvailabilityCalendar",
		Variables: map[string]any{
			"input": map[string]any{
				"travelPurpose": 2,
				"pagenameDetails": map[string]any{
					"countryCode": r.Page.Country,
					"pagename":    r.Page.PageName,
				},
				"searchConfig": map[string]any{
					"searchConfigDate": map[string]any{
						"startDate":    r.Start.Format("2006-01-02"),
						"amountOfDays": clampDays(r.Days),
					},
					"nbAdults": adults,
					"nbRooms":  1,
				},
			},
		},
		Extensions: map[string]any{},
		Query:      calendarQuery,
	}
	return json.Marshal(body)
}

// Day - один день календаря. Price = 0, если цены нет.
type Day struct {
	Available         bool   `json:"available"`
	AvgPriceFormatted string `json:"avgPriceFormatted"`
	Checkin           string `json:"checkin"`
	MinLengthOfStay   int    `json:"minLengthOfStay"`

	Date  time.Time `json:"-"`
	Price float64   `json:"-"`
}

type calendarResponse struct {
	Data *struct {
		AvailabilityCalendar *struct {
			Days    []Day  `json:"days"`
			Message string `json:"message"`
		} `json:"availabilityCalendar"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// DecodeCalendar разбирает ответ GraphQL. Нет data.availabilityCalendar.days - ErrNoCalendar.
func DecodeCalendar(body []byte) ([]Day, error) {
	var resp calendarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}

	if resp.Data == nil || resp.Data.AvailabilityCalendar == nil {
		if len(resp.Errors) > 0 {
			msgs := make([]string, 0, len(resp.Errors))
			for _, e := range resp.Errors {
				msgs = append(msgs, e.Message)
			}
			return nil, fmt.Errorf("%w: %s", ErrNoCalendar, strings.Join(msgs, "; "))
		}
		return nil, ErrNoCalendar
	}

	cal := resp.Data.AvailabilityCalendar
	if cal.Days == nil {
		if cal.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoCalendar, cal.Message)
		}
		return nil, ErrNoCalendar
	}

	days := cal.Days
	for i := range days {
		if t, err := time.Parse("2006-01-02", days[i].Checkin); err == nil {
			days[i].Date = t
		}
		days[i].Price = ParsePrice(days[i].AvgPriceFormatted)
	}
	return days, nil
}

// ParsePrice: "€101", "€ 1,234", "US$95.50" -> число; пустая строка -> 0.
func ParsePrice(formatted string) float64 {
	return listings.ParseNumber(formatted)
}

// DailyPrices переводит календарь в ряд цен; дни без даты пропускаются.
func DailyPrices(days []Day) []pricing.DailyPrice {
	out := make([]pricing.DailyPrice, 0, len(days))
	for _, d := range days {
		if d.Date.IsZero() {
			continue
		}
		out = append(out, pricing.DailyPrice{Date: d.Date, Price: d.Price})
	}
	return out
}
