package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const userAgent = "snowwatch/1.0"

// ErrNoResults is returned when a geocoding search matches nothing
var ErrNoResults = errors.New("no results")

// httpClient wraps an *http.Client with a circuit breaker so a failing
// upstream is not hammered on every location of every check cycle
type httpClient struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newHTTPClient(name string, timeout time.Duration) *httpClient {
	return &httpClient{
		client: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}
}

// get fetches url and returns the body of a 200 response
func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
		}
		return body, nil
	})
}
