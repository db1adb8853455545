package bypass

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/observability"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Bypass.BaseURL = baseURL
	cfg.Bypass.DelayMS = 0
	cfg.Bypass.MaxRetries = 0
	c, err := NewClient(cfg, "test-key", observability.Nop())
	require.NoError(t, err)
	return c
}

func TestMissingAPIKey(t *testing.T) {
	_, err := NewClient(config.Default(), "", observability.Nop())
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "https://www.booking.com/hotel/es/a.html", q.Get("url"))
		assert.Equal(t, "true", q.Get("asp"))
		assert.Equal(t, "es", q.Get("country"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"content":          "<html>hotel</html>",
				"status_code":      200,
				"url":              "https://www.booking.com/hotel/es/a.es.html",
				"response_headers": map[string]string{"content-type": "text/html"},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Scrape(context.Background(), "https://www.booking.com/hotel/es/a.html")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "<html>hotel</html>", string(resp.Body))
	assert.Equal(t, "https://www.booking.com/hotel/es/a.es.html", resp.URL)
	assert.Equal(t, "text/html", resp.Headers.Get("Content-Type"))
}

func TestDoForwardsPostBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "csrf-1", q.Get("headers[x-booking-csrf-token]"))
		assert.Equal(t, "hostel-1", q.Get("session"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"operationName":"AvailabilityCalendar"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":{"content":"{\"data\":{}}","status_code":200}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	var transport fetcher.Transport = c
	resp, err := transport.Do(context.Background(), &fetcher.Request{
		Method: http.MethodPost,
		URL:    "https://www.booking.com/dml/graphql?lang=en-gb",
		Header: http.Header{
			"Content-Type":         []string{"application/json"},
			"X-Booking-Csrf-Token": []string{"csrf-1"},
		},
		Body:    []byte(`{"operationName":"AvailabilityCalendar"}`),
		Session: "hostel-1",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"data":{}}`, string(resp.Body))
	assert.Equal(t, "https://www.booking.com/dml/graphql?lang=en-gb", resp.URL)
}

func TestAPIErrorIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid API key","code":"ERR::SCRAPE::UNAUTHORIZED"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Scrape(context.Background(), "https://www.booking.com/")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "Invalid API key", statusErr.Message)
}
