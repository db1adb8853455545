package app

import (
	"context"
	"errors"
	"fmt"

	"bcn-hostel-prices/internal/bypass"
	"bcn-hostel-prices/internal/cache"
	"bcn-hostel-prices/internal/config"
	"bcn-hostel-prices/internal/fetcher"
	"bcn-hostel-prices/internal/observability"
)

// Transports держит прямой fetcher и (если есть ключ) клиент bypass API.
type Transports struct {
	Direct *fetcher.Fetcher
	Bypass *bypass.Client

	cfg    *config.Config
	cache  cache.Cache
	logger *observability.Logger
}

func OpenTransports(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Transports, error) {
	pageCache, err := cache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	var opts []fetcher.Option
	if pageCache != nil {
		opts = append(opts, fetcher.WithCache(pageCache))
	}
	if cfg.Rod.Enabled {
		opts = append(opts, fetcher.WithRenderer(fetcher.NewRenderer(cfg, logger)))
	}

	direct, err := fetcher.NewFetcher(cfg, logger, opts...)
	if err != nil {
		if pageCache != nil {
			_ = pageCache.Close()
		}
		return nil, err
	}

	t := &Transports{Direct: direct, cfg: cfg, cache: pageCache, logger: logger}

	client, err := bypass.NewClient(cfg, cfg.APIKey(), logger)
	switch {
	case err == nil:
		t.Bypass = client
	case errors.Is(err, bypass.ErrMissingAPIKey):
		logger.Debug("bypass API disabled", "env", cfg.Bypass.APIKeyEnv)
	default:
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

// Booking - транспорт для календаря по booking.transport.
func (t *Transports) Booking() (fetcher.Transport, error) {
	if t.cfg.Booking.Transport != "bypass" {
		return t.Direct, nil
	}
	if t.Bypass == nil {
		return nil, fmt.Errorf("booking.transport is bypass: %w (env %s)", bypass.ErrMissingAPIKey, t.cfg.Bypass.APIKeyEnv)
	}
	return t.Bypass, nil
}

// Search - поиск идёт через bypass API, без ключа - напрямую.
func (t *Transports) Search() fetcher.Transport {
	if t.Bypass != nil {
		return t.Bypass
	}
	t.logger.Warn("bypass API key not set, search pages are fetched directly", "env", t.cfg.Bypass.APIKeyEnv)
	return t.Direct
}

func (t *Transports) Close() error {
	var errs []error
	if t.Direct != nil {
		errs = append(errs, t.Direct.Close())
	}
	if t.cache != nil {
		errs = append(errs, t.cache.Close())
	}
	return errors.Join(errs...)
}
