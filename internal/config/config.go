package config

import (
	"fmt"
	"os"
	"time"

	"bcn-hostel-prices/internal/pricing"
)

type Config struct {
	HostelsFile         string              `yaml:"hostels_file"`
	SelectorsFile       string              `yaml:"selectors_file"`
	RespectRobots       bool                `yaml:"respect_robots"`
	RobotsCacheTTLHours int                 `yaml:"robots_cache_ttl_hours"`
	HTTP                HttpConfig          `yaml:"http"`
	RateLimit           RateLimitConfig     `yaml:"rate_limit"`
	Backoff             BackoffConfig       `yaml:"backoff"`
	Rod                 RodConfig           `yaml:"rod"`
	Booking             BookingConfig       `yaml:"booking"`
	Bypass              BypassConfig        `yaml:"bypass"`
	Cache               CacheConfig         `yaml:"cache"`
	Pricing             pricing.Rules       `yaml:"pricing"`
	Search              SearchConfig        `yaml:"search"`
	Storage             StorageConfig       `yaml:"storage"`
	Output              OutputConfig        `yaml:"output"`
	Observability       ObservabilityConfig `yaml:"observability"`
}

type HttpConfig struct {
	UserAgent                 string `yaml:"user_agent"`
	AcceptLanguage            string `yaml:"accept_language"`
	ConnectTimeoutMS          int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS            int    `yaml:"total_timeout_ms"`
	MaxRetries                int    `yaml:"max_retries"`
	MaxIdleConnections        int    `yaml:"max_idle_connections"`
	MaxIdleConnectionsPerHost int    `yaml:"max_idle_connections_per_host"`
	IdleConnectionTimeoutS    int    `yaml:"idle_connection_timeout_s"`
	CloudflareBypass          bool   `yaml:"cloudflare_bypass"`
}

type RateLimitConfig struct {
	MaxConcurrent        int `yaml:"max_concurrent"`
	MaxConcurrentPerHost int `yaml:"max_concurrent_per_host"`
	RPM                  int `yaml:"rpm"`
	DelayMS              int `yaml:"delay_ms"`
}

type BackoffConfig struct {
	MinMS     int `yaml:"min_ms"`
	MaxMS     int `yaml:"max_ms"`
	JitterPct int `yaml:"jitter_pct"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled"`
	ChromePath       string `yaml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s"`
	LazyLoadDelayS   int    `yaml:"lazy_load_delay_s"`
}

type BookingConfig struct {
	// direct | bypass
	Transport  string `yaml:"transport"`
	GraphQLURL string `yaml:"graphql_url"`
	Origin     string `yaml:"origin"`
}

type BypassConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKeyEnv  string `yaml:"api_key_env"`
	ASP        bool   `yaml:"asp"`
	RenderJS   bool   `yaml:"render_js"`
	Country    string `yaml:"country"`
	DelayMS    int    `yaml:"delay_ms"`
	TimeoutS   int    `yaml:"timeout_s"`
	MaxRetries int    `yaml:"max_retries"`
}

type CacheConfig struct {
	// none | memory | redis
	Driver     string `yaml:"driver"`
	RedisAddr  string `yaml:"redis_addr"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

type SearchConfig struct {
	BaseURL      string `yaml:"base_url"`
	Query        string `yaml:"query"`
	Adults       int    `yaml:"adults"`
	MaxPages     int    `yaml:"max_pages"`
	MaxDetails   int    `yaml:"max_details"`
	FetchDetails bool   `yaml:"fetch_details"`
}

type StorageConfig struct {
	// none | sqlite | postgres | mssql
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type OutputConfig struct {
	CSVPath       string `yaml:"csv_path"`
	DailyCSVPath  string `yaml:"daily_csv_path"`
	SearchCSVPath string `yaml:"search_csv_path"`
}

type ObservabilityConfig struct {
	LogPath  string `yaml:"log_path"`
	LogLevel string `yaml:"log_level"`
}

// Default - рабочая конфигурация без файла.
func Default() *Config {
	return &Config{
		HostelsFile:         "configs/hostels.json",
		RespectRobots:       false,
		RobotsCacheTTLHours: 12,
		HTTP: HttpConfig{
			UserAgent:                 "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			AcceptLanguage:            "es-ES,es;q=0.9,en;q=0.8",
			ConnectTimeoutMS:          10000,
			TotalTimeoutMS:            30000,
			MaxRetries:                2,
			MaxIdleConnections:        100,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeoutS:    90,
		},
		RateLimit: RateLimitConfig{
			MaxConcurrent:        4,
			MaxConcurrentPerHost: 2,
			RPM:                  60,
			DelayMS:              1000,
		},
		Backoff: BackoffConfig{
			MinMS:     500,
			MaxMS:     5000,
			JitterPct: 20,
		},
		Rod: RodConfig{
			PageTimeoutS:     60,
			WaitLoadTimeoutS: 30,
			LazyLoadDelayS:   2,
		},
		Booking: BookingConfig{
			Transport:  "direct",
			GraphQLURL: "https://www.booking.com/dml/graphql?lang=en-gb",
			Origin:     "https://www.booking.com",
		},
		Bypass: BypassConfig{
			BaseURL:    "https://api.scrapfly.io",
			APIKeyEnv:  "SCRAPFLY_KEY",
			ASP:        true,
			Country:    "es",
			DelayMS:    1000,
			TimeoutS:   150,
			MaxRetries: 1,
		},
		Cache: CacheConfig{
			Driver:     "none",
			RedisAddr:  "localhost:6379",
			TTLMinutes: 60,
		},
		Pricing: pricing.DefaultRules(),
		Search: SearchConfig{
			BaseURL:      "https://www.booking.com/searchresults.html",
			Query:        "Barcelona",
			Adults:       2,
			MaxPages:     1,
			MaxDetails:   10,
			FetchDetails: true,
		},
		Storage: StorageConfig{
			Driver:           "none",
			DSN:              "hostel-prices.db",
			CommandTimeoutMS: 5000,
		},
		Output: OutputConfig{
			CSVPath:       "output/hostel_prices.csv",
			DailyCSVPath:  "output/daily_prices.csv",
			SearchCSVPath: "output/search_results.csv",
		},
		Observability: ObservabilityConfig{
			LogPath:  "",
			LogLevel: "info",
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms must be > 0")
	}
	if c.HTTP.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.total_timeout_ms must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.RateLimit.MaxConcurrent <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent must be > 0")
	}
	if c.RateLimit.MaxConcurrentPerHost <= 0 {
		return fmt.Errorf("rate_limit.max_concurrent_per_host must be > 0")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RateLimit.DelayMS < 0 {
		return fmt.Errorf("rate_limit.delay_ms must be >= 0")
	}
	if c.Backoff.MinMS <= 0 {
		return fmt.Errorf("backoff.min_ms must be > 0")
	}
	if c.Backoff.MaxMS <= 0 {
		return fmt.Errorf("backoff.max_ms must be > 0")
	}
	if c.Backoff.MinMS > c.Backoff.MaxMS {
		return fmt.Errorf("backoff.min_ms must be <= backoff.max_ms")
	}
	if c.Backoff.JitterPct < 0 || c.Backoff.JitterPct > 100 {
		return fmt.Errorf("backoff.jitter_pct must be between 0 and 100")
	}
	if c.RespectRobots && c.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("robots_cache_ttl_hours must be > 0")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
		if c.Rod.LazyLoadDelayS < 0 {
			return fmt.Errorf("rod.lazy_load_delay_s must be >= 0")
		}
	}
	if c.Booking.Transport != "direct" && c.Booking.Transport != "bypass" {
		return fmt.Errorf("booking.transport must be 'direct' or 'bypass'")
	}
	if c.Booking.GraphQLURL == "" {
		return fmt.Errorf("booking.graphql_url is required")
	}
	if c.Bypass.BaseURL == "" {
		return fmt.Errorf("bypass.base_url is required")
	}
	if c.Bypass.APIKeyEnv == "" {
		return fmt.Errorf("bypass.api_key_env is required")
	}
	if c.Bypass.DelayMS < 0 {
		return fmt.Errorf("bypass.delay_ms must be >= 0")
	}
	if c.Bypass.TimeoutS <= 0 {
		return fmt.Errorf("bypass.timeout_s must be > 0")
	}
	switch c.Cache.Driver {
	case "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required when cache.driver is 'redis'")
		}
	default:
		return fmt.Errorf("cache.driver must be 'none', 'memory' or 'redis'")
	}
	if c.Cache.Driver != "none" && c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be > 0")
	}
	if c.Pricing.SharedFactor <= 0 || c.Pricing.PrivateFactor <= 0 {
		return fmt.Errorf("pricing factors must be > 0")
	}
	if c.Pricing.TouristTaxPerAdult < 0 {
		return fmt.Errorf("pricing.tourist_tax_per_adult must be >= 0")
	}
	if c.Pricing.Commission < 0 || c.Pricing.Commission >= 1 {
		return fmt.Errorf("pricing.commission must be in [0, 1)")
	}
	if c.Search.BaseURL == "" {
		return fmt.Errorf("search.base_url is required")
	}
	if c.Search.MaxPages <= 0 {
		return fmt.Errorf("search.max_pages must be > 0")
	}
	if c.Search.Adults <= 0 {
		return fmt.Errorf("search.adults must be > 0")
	}
	if c.Search.MaxDetails < 0 {
		return fmt.Errorf("search.max_details must be >= 0")
	}
	switch c.Storage.Driver {
	case "none":
	case "sqlite", "postgres", "mssql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	default:
		return fmt.Errorf("storage.driver must be 'none', 'sqlite', 'postgres' or 'mssql'")
	}
	return nil
}

// APIKey читает ключ bypass-сервиса из окружения; в файле конфигурации ключ не хранится.
func (c *Config) APIKey() string {
	return os.Getenv(c.Bypass.APIKeyEnv)
}

// Getters
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleConnectionTimeout() time.Duration {
	return time.Duration(c.HTTP.IdleConnectionTimeoutS) * time.Second
}

func (c *Config) GetRequestDelay() time.Duration {
	return time.Duration(c.RateLimit.DelayMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.Backoff.MinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLHours) * time.Hour
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}

func (c *Config) GetRodLazyLoadDelay() time.Duration {
	return time.Duration(c.Rod.LazyLoadDelayS) * time.Second
}

func (c *Config) GetBypassDelay() time.Duration {
	return time.Duration(c.Bypass.DelayMS) * time.Millisecond
}

func (c *Config) GetBypassTimeout() time.Duration {
	return time.Duration(c.Bypass.TimeoutS) * time.Second
}

func (c *Config) GetCacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}
