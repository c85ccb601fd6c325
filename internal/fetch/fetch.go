// Package fetch retrieves the archive payload over HTTP and retries transient failures.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Fetcher performs a single GET. A response with any status code is returned
// without error; errors are reserved for transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// Sleeper waits between retries. Implementations must return early with the
// context error when ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Response is the outcome of one HTTP exchange.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// OK reports whether the status is in the 2xx range.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ClientError reports whether the status is in the 4xx range.
func (e *StatusError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode <= 499
}

// ServerError reports whether the status is 500 or above.
func (e *StatusError) ServerError() bool {
	return e.StatusCode >= 500
}
