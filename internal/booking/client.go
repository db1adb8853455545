package booking

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/observability"
)

// Client получает календарь цен отеля: страница отеля (CSRF, page name), затем GraphQL.
// Транспорт - прямой fetcher.Fetcher или bypass.Client.
type Client struct {
	transport  fetcher.Transport
	graphqlURL string
	origin     string
	logger     *observability.Logger
}

func NewClient(transport fetcher.Transport, cfg *config.Config, logger *observability.Logger) *Client {
	return &Client{
		transport:  transport,
		graphqlURL: cfg.Booking.GraphQLURL,
		origin:     cfg.Booking.Origin,
		logger:     logger,
	}
}

// Lookup загружает страницу отеля и разбирает её переменные.
func (c *Client) Lookup(ctx context.Context, hostelURL string) (*PageInfo, error) {
	_, slug := SlugFromURL(hostelURL)

	resp, err := c.transport.Do(ctx, &fetcher.Request{
		URL:     hostelURL,
		NoCache: true,
		Session: sessionName(slug),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch hotel page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &fetcher.StatusError{URL: hostelURL, StatusCode: resp.StatusCode}
	}

	finalURL := resp.URL
	if finalURL == "" {
		finalURL = hostelURL
	}
	info, err := ParseHotelPage(string(resp.Body), finalURL)
	if err != nil {
		return nil, fmt.Errorf("parse hotel page %s: %w", hostelURL, err)
	}
	if info.CSRFToken == "" {
		c.logger.Warn("csrf token not found on hotel page", "url", hostelURL)
	}
	return info, nil
}

// QueryCalendar отправляет AvailabilityCalendar для уже разобранной страницы.
func (c *Client) QueryCalendar(ctx context.Context, req CalendarRequest) ([]Day, error) {
	body, err := req.Body()
	if err != nil {
		return nil, err
	}

	_, slug := SlugFromURL(req.Page.URL)
	if slug == "" {
		slug = req.Page.PageName
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Booking-Csrf-Token", req.Page.CSRFToken)
	header.Set("Origin", c.origin)
	header.Set("Referer", req.Page.URL)

	resp, err := c.transport.Do(ctx, &fetcher.Request{
		Method:  http.MethodPost,
		URL:     c.graphqlURL,
		Header:  header,
		Body:    body,
		Session: sessionName(slug),
	})
	if err != nil {
		return nil, fmt.Errorf("calendar request: %w", err)
	}
	if !resp.OK() {
		return nil, &fetcher.StatusError{URL: c.graphqlURL, StatusCode: resp.StatusCode}
	}

	days, err := DecodeCalendar(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("calendar fetched",
		"hotel", req.Page.PageName,
		"adults", req.Adults,
		"start", req.Start.Format("2006-01-02"),
		"days", len(days),
	)
	return days, nil
}

// Calendar - Lookup + QueryCalendar для одного числа взрослых.
func (c *Client) Calendar(ctx context.Context, hostelURL string, start time.Time, days, adults int) ([]Day, error) {
	page, err := c.Lookup(ctx, hostelURL)
	if err != nil {
		return nil, err
	}
	return c.QueryCalendar(ctx, CalendarRequest{
		Page:   page,
		Start:  start,
		Days:   days,
		Adults: adults,
	})
}

func sessionName(slug string) string {
	if slug == "" {
		return ""
	}
	return "hp-" + slug
}
