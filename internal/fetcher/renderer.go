package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/observability"
)

// Renderer отдаёт HTML страницы после выполнения JS. Браузер запускается при первом вызове.
type Renderer struct {
	cfg     *config.Config
	logger  *observability.Logger
	mu      sync.Mutex
	browser *rod.Browser
}

func NewRenderer(cfg *config.Config, logger *observability.Logger) *Renderer {
	return &Renderer{cfg: cfg, logger: logger}
}

func (r *Renderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	if r.cfg.Rod.ChromePath != "" {
		l = l.Bin(r.cfg.Rod.ChromePath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	r.logger.Debug("browser started", "control_url", controlURL)

	r.browser = browser
	return browser, nil
}

func (r *Renderer) Render(ctx context.Context, urlStr string) (*Response, error) {
	browser, err := r.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(r.cfg.GetRodPageTimeout())

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      r.cfg.HTTP.UserAgent,
		AcceptLanguage: r.cfg.HTTP.AcceptLanguage,
	}); err != nil {
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := page.Navigate(urlStr); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", urlStr, err)
	}
	if err := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", urlStr, err)
	}

	// Выдача Booking догружает карточки после load
	if delay := r.cfg.GetRodLazyLoadDelay(); delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read html %s: %w", urlStr, err)
	}

	info, err := page.Info()
	finalURL := urlStr
	if err == nil && info != nil {
		finalURL = info.URL
	}

	return &Response{
		StatusCode: 200,
		Body:       []byte(html),
		URL:        finalURL,
	}, nil
}

func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
