// Package feed talks to the external marketplace feed and normalizes its
// loosely-typed responses into canonical offer candidates.
//
// The client issues one search request per ingestion cycle. The response
// payload is decoded permissively (json.Number preserved) and handed to the
// normalizer in this package; untyped data never leaks past this boundary.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultFetchTimeout = 15 * time.Second

// Client fetches raw search results from the marketplace feed API.
//
// It expects a JSON endpoint at {BaseURL}/items/search accepting
// POST {"query": ..., "limit": ...} and returning an object whose item list
// lives under one of the keys "items", "data", or "result".
type Client struct {
	baseURL string
	query   string
	limit   int
	httpc   *http.Client
}

// ClientOptions configures a feed Client.
type ClientOptions struct {
	// BaseURL is the feed API root, without a trailing slash.
	BaseURL string
	// Query is the search term sent on every cycle.
	Query string
	// Limit caps the number of items requested per cycle.
	Limit int
	// Timeout bounds the whole fetch round trip. Zero selects a default.
	Timeout time.Duration
}

// NewClient builds a feed Client from opts.
func NewClient(opts ClientOptions) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("feed: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	return &Client{
		baseURL: base,
		query:   opts.Query,
		limit:   limit,
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// Search performs one feed request and returns the decoded payload.
//
// Numbers are decoded as json.Number so the normalizer can tell integer
// price encodings (minor units) apart from decimal ones. Any transport
// error, non-200 status, or undecodable body yields an error; the caller
// (the ingestion cycle) treats every error as "zero offers this cycle".
func (c *Client) Search(ctx context.Context) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{
		"query": c.query,
		"limit": c.limit,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/items/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; feeds tend to
		// put the reason in the first line.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed: search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("feed: decode search response: %w", err)
	}
	return payload, nil
}
