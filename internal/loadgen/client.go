package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slopetrace/slopetrace/internal/domain/model"
)

const defaultRetries = 5

// Result records one POST attempt.
type Result struct {
	Start      time.Time
	Method     string
	Latency    time.Duration
	StatusCode int
}

// Client posts lift ride events to a running gateway, retrying failed
// requests a bounded number of times.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
}

// NewClient creates a posting client against baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		retries: defaultRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PostRide posts one event, retrying on transport errors and non-201
// responses. It returns every attempt's result and whether any succeeded.
func (c *Client) PostRide(ctx context.Context, e model.LiftRideEvent) ([]Result, bool) {
	url := fmt.Sprintf("%s/skiers/%d/seasons/%d/days/%d/skiers/%d",
		c.baseURL, e.ResortID, e.SeasonID, e.DayID, e.SkierID)

	body, err := json.Marshal(map[string]int{
		"liftID": e.LiftRide.LiftID,
		"time":   e.LiftRide.Time,
	})
	if err != nil {
		return nil, false
	}

	results := make([]Result, 0, 1)
	for attempt := 0; attempt < c.retries; attempt++ {
		start := time.Now()
		status, err := c.post(ctx, url, body)
		r := Result{
			Start:      start,
			Method:     http.MethodPost,
			Latency:    time.Since(start),
			StatusCode: status,
		}
		if err != nil {
			// Transport failures count as server errors in the log, matching
			// how the latency record treats an unreachable gateway.
			r.StatusCode = http.StatusInternalServerError
		}
		results = append(results, r)

		if status == http.StatusCreated {
			return results, true
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results, false
}

func (c *Client) post(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithRetries sets the per-event attempt limit.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}
