package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch-graph/backend/internal/source"
	"vouch-graph/backend/pkg/config"
)

func testConfig(dataURL string) *config.Config {
	return &config.Config{
		DataURL:            dataURL,
		ResolveTimeout:     500 * time.Millisecond,
		ResolveConcurrency: 4,
		RPCRateLimit:       10,
		LinkDistance:       100,
		ChargeStrength:     -200,
		TickInterval:       time.Millisecond,
		CanvasWidth:        800,
		CanvasHeight:       600,
	}
}

func TestRunExport_FromDataURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nodes":[{"id":"a","fname":"alice"},{"id":"b","fname":"bob"}],"links":[{"source":"a","target":"b"}]}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	var buf bytes.Buffer
	frame, err := runExport(context.Background(), cfg, fetcher(cfg, false), exportOptions{ticks: 300}, &buf)
	require.NoError(t, err)

	assert.Len(t, frame.Nodes, 2)
	assert.Len(t, frame.Links, 1)
	assert.Contains(t, buf.String(), "<svg")
	assert.Contains(t, buf.String(), "alice")
	assert.Contains(t, buf.String(), `width="800"`)
}

func TestRunExport_FallsBackToSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	var buf bytes.Buffer
	frame, err := runExport(context.Background(), cfg, fetcher(cfg, false), exportOptions{ticks: 50, width: 400, height: 300}, &buf)
	require.NoError(t, err)

	assert.Len(t, frame.Nodes, 4)
	assert.Contains(t, buf.String(), `width="400"`)
}

func TestViewOptions_CurrentUser(t *testing.T) {
	cfg := testConfig("")
	cfg.CurrentUser = "user2"

	var buf bytes.Buffer
	frame, err := runExport(context.Background(), cfg, source.StaticFetcher{}, exportOptions{ticks: 10}, &buf)
	require.NoError(t, err)

	n, ok := frame.Node("user2")
	require.True(t, ok)
	assert.Equal(t, "#ff3e00", n.Color)
}

func TestFetcher(t *testing.T) {
	cfg := testConfig("")
	assert.IsType(t, source.StaticFetcher{}, fetcher(cfg, false), "no data url means sample data")

	cfg.DataURL = "http://localhost:1"
	assert.IsType(t, source.StaticFetcher{}, fetcher(cfg, true))
	assert.IsType(t, source.FetcherFunc(nil), fetcher(cfg, false), "data url is read with a sample fallback")
}
