package listings

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ResultsPerPage - шаг параметра offset в выдаче Booking.
const ResultsPerPage = 25

// SearchURL собирает адрес выдачи. Нулевые даты не добавляются в запрос.
func SearchURL(base, query string, checkin, checkout time.Time, adults int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search base url %q: %w", base, err)
	}
	if query == "" {
		return "", fmt.Errorf("search query is empty")
	}

	q := u.Query()
	q.Set("ss", query)
	if !checkin.IsZero() {
		q.Set("checkin", checkin.Format("2006-01-02"))
		if checkout.IsZero() || !checkout.After(checkin) {
			checkout = checkin.AddDate(0, 0, 1)
		}
		q.Set("checkout", checkout.Format("2006-01-02"))
	}
	if adults > 0 {
		q.Set("group_adults", strconv.Itoa(adults))
	}
	q.Set("no_rooms", "1")
	q.Set("group_children", "0")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// PageURL добавляет offset для страницы page (с нуля).
func PageURL(searchURL string, page int) string {
	if page <= 0 {
		return searchURL
	}
	u, err := url.Parse(searchURL)
	if err != nil {
		return searchURL
	}
	q := u.Query()
	q.Set("offset", strconv.Itoa(page*ResultsPerPage))
	u.RawQuery = q.Encode()
	return u.String()
}
