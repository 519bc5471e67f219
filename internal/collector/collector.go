package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/iwanhae/kickoff/internal/metrics"
)

const (
	// DefaultURL is the apifootball endpoint listing events for a date window.
	DefaultURL = "http://apiv3.apifootball.com/?action=get_events"
	UserAgent  = "kickoff/1.0 (github.com/iwanhae/kickoff)"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Date       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s: %s", e.StatusCode, e.Date, e.Body)
}

// Client fetches football events, one calendar day per request.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New creates a Client. An empty baseURL falls back to DefaultURL.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// FetchEvents requests the events of a single date (from=to=date) and returns the
// response as a list of raw records. A JSON array yields one record per element;
// any other JSON value is returned as-is as the only record.
func (c *Client) FetchEvents(ctx context.Context, date string) ([]json.RawMessage, error) {
	raw, err := c.get(ctx, date)
	if err != nil {
		metrics.APICalls.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.APICalls.WithLabelValues("success").Inc()
	return decodeRecords(raw)
}

func (c *Client) get(ctx context.Context, date string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api url: %w", err)
	}
	q := u.Query()
	q.Set("from", date)
	q.Set("to", date)
	q.Set("APIkey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for %s: %w", date, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", date, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Date: date, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func decodeRecords(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("failed to decode response: malformed JSON")
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("failed to decode event list: %w", err)
		}
		return records, nil
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
