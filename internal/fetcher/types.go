package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// Request описывает один HTTP-запрос. Пустой Method означает GET.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Render разрешает отрисовку страницы браузером, если он включён.
	Render bool
	// NoCache отключает кэш для этого запроса.
	NoCache bool
	// Session связывает запросы одной cookie-сессией у bypass API.
	// Прямой транспорт и так держит общий cookie jar.
	Session string
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

type Response struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
	FromCache  bool
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError - ответ пришёл, но с неуспешным кодом.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Transport - то, через что ходят клиенты сайтов: напрямую или через bypass API.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}
