// Package source fetches graph payloads for the viewer.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"vouch-graph/backend/internal/graph"
	apperrors "vouch-graph/backend/pkg/errors"
	"vouch-graph/backend/pkg/logger"
)

// Fetcher produces a graph payload
type Fetcher interface {
	Fetch(ctx context.Context) (*graph.GraphData, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context) (*graph.GraphData, error)

// Fetch implements Fetcher
func (f FetcherFunc) Fetch(ctx context.Context) (*graph.GraphData, error) {
	return f(ctx)
}

// HTTPFetcher reads GraphData JSON from a URL
type HTTPFetcher struct {
	url        string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for url
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{url: url, httpClient: &http.Client{Timeout: timeout}}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context) (*graph.GraphData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailable(f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewSourceUnavailable(f.url, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var data graph.GraphData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.NewSourceUnavailable(f.url, fmt.Errorf("invalid payload: %w", err))
	}
	return &data, nil
}

// WithFallback returns a fetcher that tries primary and, on any error, serves
// fallback instead. The primary failure is logged, not returned.
func WithFallback(primary, fallback Fetcher) Fetcher {
	log := logger.Named("source")
	return FetcherFunc(func(ctx context.Context) (*graph.GraphData, error) {
		data, err := primary.Fetch(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, apperrors.NewContextCancelled("fetch graph", ctx.Err())
		}
		log.Warn("Graph source failed, using fallback data", zap.Error(err))
		return fallback.Fetch(ctx)
	})
}
