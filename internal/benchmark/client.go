// Package benchmark provides a client for fetching published salary
// benchmarks from a compensation survey API, as an alternative source
// of reference unit costs.
package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pbb/internal/config"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the API key is missing or invalid.
	ErrUnauthorized = errors.New("benchmark: unauthorized (check the API key)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("benchmark: rate limited")
)

// Client fetches role salary benchmarks from a survey API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the given endpoint and key.
// Returns nil if the base URL is empty or not a valid URL.
func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{},
	}
}

// RoleBenchmark is one role's published annual salary benchmark.
type RoleBenchmark struct {
	Role   string          `json:"role"`
	Salary json.RawMessage `json:"salary"`
	Region string          `json:"region,omitempty"`
}

// FetchBenchmarks returns all published role benchmarks.
func (c *Client) FetchBenchmarks(ctx context.Context) ([]RoleBenchmark, error) {
	body, err := c.get(ctx, "/v1/benchmarks")
	if err != nil {
		return nil, err
	}

	var benchmarks []RoleBenchmark
	if err := json.Unmarshal(body, &benchmarks); err != nil {
		return nil, fmt.Errorf("benchmark: parsing benchmarks: %w", err)
	}
	return benchmarks, nil
}

// FetchRole returns the benchmark for a single role.
func (c *Client) FetchRole(ctx context.Context, role string) (*RoleBenchmark, error) {
	body, err := c.get(ctx, "/v1/benchmarks/"+url.PathEscape(role))
	if err != nil {
		return nil, err
	}

	var b RoleBenchmark
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("benchmark: parsing role: %w", err)
	}
	return &b, nil
}

// CostTable converts fetched benchmarks into a reference cost table,
// skipping entries whose salary cannot be parsed.
func CostTable(benchmarks []RoleBenchmark) *config.CostTable {
	entries := make(map[string]float64, len(benchmarks))
	for _, b := range benchmarks {
		if b.Role == "" {
			continue
		}
		if v, ok := parseSalary(b.Salary); ok {
			entries[b.Role] = v
		}
	}
	return config.NewCostTable(entries)
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("benchmark: creating request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pbb/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("benchmark: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("benchmark: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("benchmark: reading response: %w", err)
	}
	return body, nil
}

// parseSalary defensively parses the polymorphic salary field.
// Handles numbers (85000, 85000.5) and strings ("$85,000" or "85000").
func parseSalary(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, f >= 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		s = strings.ReplaceAll(s, ",", "")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, v >= 0
		}
	}

	return 0, false
}
