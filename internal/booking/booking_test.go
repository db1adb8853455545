package booking

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/observability"
)

const hotelHTML = `<html><head><script>
var booking = {
  env: {
    b_csrf_token: 'csrf-abc',
    hotelName: "hostal-lausanne",
    hotelCountry: "es",
  }
};
</script></head><body><h2>Hostal Lausanne</h2></body></html>`

const calendarJSON = `{"data":{"availabilityCalendar":{"hotelId":123,"days":[
 {"available":true,"avgPriceFormatted":"€101","checkin":"2025-03-10","minLengthOfStay":1},
 {"available":true,"avgPriceFormatted":"€ 1,234","checkin":"2025-03-11","minLengthOfStay":2},
 {"available":false,"avgPriceFormatted":"","checkin":"2025-03-12","minLengthOfStay":1}
]}}}`

func TestParseHotelPage(t *testing.T) {
	info, err := ParseHotelPage(hotelHTML, "https://www.booking.com/hotel/es/hostal-lausanne.es.html")
	require.NoError(t, err)

	want := &PageInfo{
		URL:       "https://www.booking.com/hotel/es/hostal-lausanne.es.html",
		PageName:  "hostal-lausanne",
		Country:   "es",
		CSRFToken: "csrf-abc",
		Name:      "Hostal Lausanne",
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("ParseHotelPage mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHotelPageFallsBackToURL(t *testing.T) {
	info, err := ParseHotelPage("<html></html>", "https://www.booking.com/hotel/es/sixtytwo-barcelona.es.html?aid=1")
	require.NoError(t, err)
	assert.Equal(t, "sixtytwo-barcelona", info.PageName)
	assert.Equal(t, "es", info.Country)
	assert.Equal(t, "Sixtytwo Barcelona", info.Name)
	assert.Empty(t, info.CSRFToken)

	_, err = ParseHotelPage("<html></html>", "https://example.com/")
	assert.True(t, errors.Is(err, ErrNoPageName))
}

func TestPrettyName(t *testing.T) {
	assert.Equal(t, "Casa Gracia Barcelona Hostel", PrettyName("casa-gracia-barcelona-hostel"))
	assert.Equal(t, "Hostal", PrettyName("hostal"))
	assert.Equal(t, "", PrettyName(""))
}

func TestCalendarRequestBody(t *testing.T) {
	req := CalendarRequest{
		Page:   &PageInfo{PageName: "hostal-lausanne", Country: "es"},
		Start:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Days:   45,
		Adults: 2,
	}
	body, err := req.Body()
	require.NoError(t, err)

	var decoded struct {
		OperationName string `json:"operationName"`
		Variables     struct {
			Input struct {
				TravelPurpose   int `json:"travelPurpose"`
				PagenameDetails struct {
					CountryCode string `json:"countryCode"`
					Pagename    string `json:"pagename"`
				} `json:"pagenameDetails"`
				SearchConfig struct {
					SearchConfigDate struct {
						StartDate    string `json:"startDate"`
						AmountOfDays int    `json:"amountOfDays"`
					} `json:"searchConfigDate"`
					NbAdults int `json:"nbAdults"`
					NbRooms  int `json:"nbRooms"`
				} `json:"searchConfig"`
			} `json:"input"`
		} `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))

	in := decoded.Variables.Input
	assert.Equal(t, "AvailabilityCalendar", decoded.OperationName)
	assert.Equal(t, 2, in.TravelPurpose)
	assert.Equal(t, "hostal-lausanne", in.PagenameDetails.Pagename)
	assert.Equal(t, "es", in.PagenameDetails.CountryCode)
	assert.Equal(t, "2025-03-10", in.SearchConfig.SearchConfigDate.StartDate)
	assert.Equal(t, 30, in.SearchConfig.SearchConfigDate.AmountOfDays)
	assert.Equal(t, 2, in.SearchConfig.NbAdults)
	assert.Equal(t, 1, in.SearchConfig.NbRooms)

	_, err = CalendarRequest{}.Body()
	assert.Error(t, err)
}

func TestDecodeCalendar(t *testing.T) {
	days, err := DecodeCalendar([]byte(calendarJSON))
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, 101.0, days[0].Price)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.Equal(t, 1234.0, days[1].Price)
	assert.Equal(t, 2, days[1].MinLengthOfStay)
	assert.Zero(t, days[2].Price)
	assert.False(t, days[2].Available)

	prices := DailyPrices(days)
	assert.Len(t, prices, 3)
}

func TestDecodeCalendarErrors(t *testing.T) {
	cases := []string{
		`{}`,
		`{"data":{"availabilityCalendar":null}}`,
		`{"data":{"availabilityCalendar":{"message":"Invalid pagename"}}}`,
		`{"errors":[{"message":"Unauthorized"}]}`,
	}
	for _, body := range cases {
		_, err := DecodeCalendar([]byte(body))
		assert.True(t, errors.Is(err, ErrNoCalendar), "body %s: %v", body, err)
	}

	_, err := DecodeCalendar([]byte(`not json`))
	assert.Error(t, err)
}

func newBookingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hotel/es/hostal-lausanne.es.html":
			_, _ = io.WriteString(w, hotelHTML)
		case "/dml/graphql":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "csrf-abc", r.Header.Get("X-Booking-Csrf-Token"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = io.WriteString(w, calendarJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.DelayMS = 0
	cfg.HTTP.MaxRetries = 0
	cfg.Booking.GraphQLURL = srvURL + "/dml/graphql?lang=en-gb"

	f, err := fetcher.NewFetcher(cfg, observability.Nop())
	require.NoError(t, err)
	return NewClient(f, cfg, observability.Nop())
}

func TestClientCalendar(t *testing.T) {
	srv := newBookingServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	days, err := c.Calendar(context.Background(), srv.URL+"/hotel/es/hostal-lausanne.es.html",
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 3, 2)
	require.NoError(t, err)
	assert.Len(t, days, 3)
}

func TestClientLookupNotFound(t *testing.T) {
	srv := newBookingServer(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Lookup(context.Background(), srv.URL+"/hotel/es/missing.es.html")

	var statusErr *fetcher.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
