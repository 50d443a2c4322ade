// Package graph fetches signal updates from a ThreatExchange-style graph
// API: sequential /threat_updates pages per privacy group, resumable via an
// opaque page cursor.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultPageSize = 500

	// The API enforces per-app request quotas; stay politely under them.
	requestsPerSecond = 4
	requestBurst      = 2
)

// ThreatUpdate is one row of a /threat_updates response.
type ThreatUpdate struct {
	ID            string   `json:"id"`
	Indicator     string   `json:"indicator"`
	Type          string   `json:"type"`
	ShouldDelete  bool     `json:"should_delete"`
	UpdateTime    int64    `json:"last_updated"`
	Tags          []string `json:"tags,omitempty"`
	Owner         int64    `json:"owner,omitempty"`
	ReactionCount int      `json:"reaction_count,omitempty"`
}

type updatesPage struct {
	Data   []ThreatUpdate `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// Client is a rate-limited HTTP client for the graph API.
type Client struct {
	baseURL     string
	accessToken string
	pageSize    int
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient builds a Client. baseURL is the API root (no trailing slash
// required); accessToken authenticates every request.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		pageSize:    defaultPageSize,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
	}
}

// ThreatUpdates fetches one page of updates for a privacy group. startTime
// bounds the window (unix seconds, 0 = beginning of time); cursor resumes a
// previous page walk. It returns the page rows, the cursor for the next
// page ("" when drained), and the raw next-page presence flag.
func (c *Client) ThreatUpdates(ctx context.Context, privacyGroup string, startTime int64, cursor string) ([]ThreatUpdate, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	q := url.Values{}
	q.Set("access_token", c.accessToken)
	q.Set("limit", strconv.Itoa(c.pageSize))
	if startTime > 0 {
		q.Set("start_time", strconv.FormatInt(startTime, 10))
	}
	if cursor != "" {
		q.Set("after", cursor)
	}
	reqURL := fmt.Sprintf("%s/%s/threat_updates?%s", c.baseURL, url.PathEscape(privacyGroup), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("threat_updates request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", fmt.Errorf("cannot read threat_updates response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("threat_updates returned HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var page updatesPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("invalid threat_updates JSON: %w", err)
	}

	next := ""
	if page.Paging.Next != "" {
		next = page.Paging.Cursors.After
	}
	return page.Data, next, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
