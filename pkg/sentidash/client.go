// Package sentidash is a Go client for the sentidash HTTP API.
package sentidash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Stats mirrors the /api/stats response.
type Stats struct {
	TotalAssets      int64   `json:"totalAssets"`
	TotalMentions    int64   `json:"totalMentions"`
	AverageSentiment float64 `json:"averageSentiment"`
}

// TopStock mirrors one row of the /api/top-stocks response.
type TopStock struct {
	Ticker       string  `json:"ticker"`
	Mentions     int64   `json:"mentions"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

// TrendPoint mirrors one row of the /api/trends response.
type TrendPoint struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sentidash: HTTP %d: %s", e.Status, e.Message)
}

// Client provides a Go SDK for interacting with the sentidash-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new sentidash API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Assets retrieves every ticker in ascending order.
func (c *Client) Assets(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/assets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats retrieves dashboard-wide statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.get(ctx, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopStocks retrieves the most-mentioned tickers.
func (c *Client) TopStocks(ctx context.Context) ([]TopStock, error) {
	var out []TopStock
	if err := c.get(ctx, "/api/top-stocks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Trends retrieves daily mean sentiment. days is an integer string or "all"
// and ticker may be empty; empty values use the server defaults.
func (c *Client) Trends(ctx context.Context, days, ticker string) ([]TrendPoint, error) {
	q := url.Values{}
	if days != "" {
		q.Set("days", days)
	}
	if ticker != "" {
		q.Set("ticker", ticker)
	}
	var out []TrendPoint
	if err := c.get(ctx, "/api/trends", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var eb struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			apiErr.Message = eb.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
