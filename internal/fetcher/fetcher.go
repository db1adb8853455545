package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"golang.org/x/net/publicsuffix"

	"bcn-hostel-prices/internal/cache"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/observability"
)

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
	renderer    *Renderer
	cache       cache.Cache
}

type Option func(*Fetcher)

// WithCache кэширует тела успешных GET-ответов.
func WithCache(c cache.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithRenderer включает отрисовку браузером для запросов с Render=true.
func WithRenderer(r *Renderer) Option {
	return func(f *Fetcher) { f.renderer = r }
}

func NewFetcher(cfg *config.Config, logger *observability.Logger, opts ...Option) (*Fetcher, error) {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: cfg.GetConnectTimeout(),
		}).DialContext,
		TLSHandshakeTimeout: cfg.GetConnectTimeout(),
		MaxIdleConns:        cfg.HTTP.MaxIdleConnections,
		MaxIdleConnsPerHost: cfg.HTTP.MaxIdleConnectionsPerHost,
		IdleConnTimeout:     cfg.GetIdleConnectionTimeout(),
	}
	if cfg.HTTP.CloudflareBypass {
		transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	// Общая cookie-сессия: страница отеля и запрос календаря идут с одними cookies
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout:   cfg.GetTotalTimeout(),
			Transport: transport,
			Jar:       jar,
		},
		cfg:         cfg,
		logger:      logger,
		robotsCache: NewRobotsCache(cfg.GetRobotsCacheTTL()),
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM, cfg.GetRequestDelay()),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch - GET страницы с возможной отрисовкой браузером.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Response, error) {
	return f.Do(ctx, &Request{URL: urlStr, Render: true})
}

func (f *Fetcher) Do(ctx context.Context, req *Request) (*Response, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host in %q", req.URL)
	}

	method := req.method()

	if f.cfg.RespectRobots && !f.robotsCache.IsAllowed(ctx, parsedURL, f.client, f.cfg.HTTP.UserAgent) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, req.URL)
	}

	cacheable := f.cache != nil && method == http.MethodGet && !req.NoCache
	if cacheable {
		body, ok, err := f.cache.Get(ctx, req.URL)
		if err != nil {
			f.logger.Warn("cache get failed", "url", req.URL, "error", err)
		} else if ok {
			f.logger.Debug("cache hit", "url", req.URL)
			return &Response{StatusCode: http.StatusOK, Body: body, URL: req.URL, FromCache: true}, nil
		}
	}

	// Apply rate limiting
	release, err := f.rateLimiter.Acquire(ctx, parsedURL.Host)
	if err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	defer release()

	var resp *Response
	if method == http.MethodGet && req.Render && f.renderer != nil {
		resp, err = f.renderer.Render(ctx, req.URL)
	} else {
		resp, err = f.doWithRetries(ctx, req, method)
	}
	if err != nil {
		return nil, err
	}

	if cacheable && resp.OK() {
		if err := f.cache.Set(ctx, req.URL, resp.Body, f.cfg.GetCacheTTL()); err != nil {
			f.logger.Warn("cache set failed", "url", req.URL, "error", err)
		}
	}

	return resp, nil
}

func (f *Fetcher) doWithRetries(ctx context.Context, req *Request, method string) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt)
			f.logger.Debug("retrying request", "url", req.URL, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := f.fetchOnce(ctx, req, method)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		// Retry on 5xx or 429
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &StatusError{URL: req.URL, StatusCode: resp.StatusCode}
			if attempt < f.cfg.HTTP.MaxRetries {
				continue
			}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, req *Request, method string) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	httpReq.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	httpReq.Header.Set("Accept-Encoding", "gzip")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for name, values := range req.Header {
		httpReq.Header.Del(name)
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("failed to close response body", "url", req.URL, "error", err)
		}
	}()

	reader := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("response",
		"method", method,
		"url", req.URL,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(data),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minMS := f.cfg.Backoff.MinMS
	maxMS := f.cfg.Backoff.MaxMS
	jitterPct := f.cfg.Backoff.JitterPct

	// Exponential backoff: min * 2^(attempt-1)
	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	// Apply jitter: ±jitterPct%
	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}

func (f *Fetcher) Close() error {
	if f.renderer != nil {
		return f.renderer.Close()
	}
	return nil
}
