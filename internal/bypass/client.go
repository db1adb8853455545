package bypass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/observability"
)

var ErrMissingAPIKey = errors.New("bypass api key is not set")

// StatusError - ошибка самого API или неуспешный код целевого сайта.
type StatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bypass: status %d for %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("bypass: status %d for %s", e.StatusCode, e.URL)
}

type scrapeResponse struct {
	Result struct {
		Content         string            `json:"content"`
		StatusCode      int               `json:"status_code"`
		URL             string            `json:"url"`
		ResponseHeaders map[string]string `json:"response_headers"`
	} `json:"result"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Client ходит на сайты через ScrapFly-совместимый anti-bot API.
type Client struct {
	http     *resty.Client
	cfg      config.BypassConfig
	apiKey   string
	logger   *observability.Logger
	delay    time.Duration
	mu       sync.Mutex
	lastCall time.Time
}

func NewClient(cfg *config.Config, apiKey string, logger *observability.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w (env %s)", ErrMissingAPIKey, cfg.Bypass.APIKeyEnv)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.Bypass.BaseURL, "/"))
	client.SetTimeout(cfg.GetBypassTimeout())
	client.SetRetryCount(cfg.Bypass.MaxRetries)
	client.SetRetryWaitTime(cfg.GetBackoffMin())
	client.SetRetryMaxWaitTime(cfg.GetBackoffMax())
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
	})
	client.SetHeader("accept", "application/json")

	return &Client{
		http:   client,
		cfg:    cfg.Bypass,
		apiKey: apiKey,
		logger: logger,
		delay:  cfg.GetBypassDelay(),
	}, nil
}

// Scrape - GET целевой страницы.
func (c *Client) Scrape(ctx context.Context, target string) (*fetcher.Response, error) {
	return c.Do(ctx, &fetcher.Request{URL: target})
}

// Do пересылает запрос через API. Метод, заголовки и тело передаются целевому сайту.
func (c *Client) Do(ctx context.Context, req *fetcher.Request) (*fetcher.Response, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(c.params(req))
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
		if ct := req.Header.Get("Content-Type"); ct != "" {
			r.SetHeader("content-type", ct)
		}
	}

	res, err := r.Execute(method, "/scrape")
	if err != nil {
		return nil, fmt.Errorf("bypass request %s: %w", req.URL, err)
	}

	if res.IsError() {
		var apiErr apiError
		_ = json.Unmarshal(res.Body(), &apiErr)
		return nil, &StatusError{URL: req.URL, StatusCode: res.StatusCode(), Message: apiErr.Message}
	}

	var out scrapeResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return nil, fmt.Errorf("bypass: decode response for %s: %w", req.URL, err)
	}

	headers := make(http.Header, len(out.Result.ResponseHeaders))
	for k, v := range out.Result.ResponseHeaders {
		headers.Set(k, v)
	}
	finalURL := out.Result.URL
	if finalURL == "" {
		finalURL = req.URL
	}

	c.logger.Debug("bypass response",
		"method", method,
		"url", req.URL,
		"status", out.Result.StatusCode,
		"bytes", len(out.Result.Content),
	)

	return &fetcher.Response{
		StatusCode: out.Result.StatusCode,
		Body:       []byte(out.Result.Content),
		URL:        finalURL,
		Headers:    headers,
	}, nil
}

func (c *Client) params(req *fetcher.Request) url.Values {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("url", req.URL)
	q.Set("asp", strconv.FormatBool(c.cfg.ASP))
	q.Set("render_js", strconv.FormatBool(c.cfg.RenderJS && req.Render))
	if c.cfg.Country != "" {
		q.Set("country", c.cfg.Country)
	}
	if req.Session != "" {
		q.Set("session", req.Session)
	}
	for name, values := range req.Header {
		if len(values) == 0 {
			continue
		}
		q.Set("headers["+strings.ToLower(name)+"]", values[0])
	}
	return q
}

// wait выдерживает фиксированную паузу между запросами к API.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.delay > 0 && !c.lastCall.IsZero() {
		if pause := c.delay - time.Since(c.lastCall); pause > 0 {
			timer := time.NewTimer(pause)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	c.lastCall = time.Now()
	return nil
}
