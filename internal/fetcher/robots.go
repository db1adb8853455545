package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

type RobotsCache struct {
	cache map[string]*robotsEntry
	ttl   time.Duration
	mu    sync.RWMutex
}

type robotsEntry struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration) *RobotsCache {
	return &RobotsCache{
		cache: make(map[string]*robotsEntry),
		ttl:   ttl,
	}
}

// IsAllowed проверяет путь по robots.txt хоста. Любая ошибка загрузки или
// разбора трактуется как "разрешено".
func (rc *RobotsCache) IsAllowed(ctx context.Context, u *url.URL, client *http.Client, agent string) bool {
	key := u.Scheme + "://" + u.Host

	rc.mu.RLock()
	cached, exists := rc.cache[key]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		data := rc.load(ctx, key, client)
		if data == nil {
			return true
		}
		cached = &robotsEntry{data: data, expiresAt: time.Now().Add(rc.ttl)}

		rc.mu.Lock()
		rc.cache[key] = cached
		rc.mu.Unlock()
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return cached.data.TestAgent(path, agent)
}

func (rc *RobotsCache) load(ctx context.Context, origin string, client *http.Client) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		// Network error: assume allowed
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
