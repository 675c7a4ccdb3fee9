// Package metrics holds the prometheus collectors shared by the resolver,
// the layout loop and the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NameResolutions counts settled resolutions by the rule that produced the name.
	NameResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "names",
		Name:      "resolutions_total",
		Help:      "Display name resolutions by source rule",
	}, []string{"source"})

	// LookupFailures counts degraded lookups by reason (timeout, empty, error).
	LookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "names",
		Name:      "lookup_failures_total",
		Help:      "Reverse lookups that fell back to the shortened address",
	}, []string{"reason"})

	// LookupDuration observes reverse lookup latency including timeouts.
	LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vouchgraph",
		Subsystem: "names",
		Name:      "lookup_duration_seconds",
		Help:      "Reverse lookup latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
	})

	// RPCRequests counts JSON-RPC calls made against the naming provider.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "ens",
		Name:      "rpc_requests_total",
		Help:      "JSON-RPC requests by outcome",
	}, []string{"outcome"})

	// LayoutTicks counts simulation ticks.
	LayoutTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "layout",
		Name:      "ticks_total",
		Help:      "Force simulation ticks",
	})

	// LayoutAlpha reports the current simulation energy.
	LayoutAlpha = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vouchgraph",
		Subsystem: "layout",
		Name:      "alpha",
		Help:      "Current force simulation alpha",
	})

	// DroppedLinks counts links excluded during normalization.
	DroppedLinks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "graph",
		Name:      "dropped_links_total",
		Help:      "Links dropped for referencing unknown nodes",
	})

	// HTTPRequests counts server requests by route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vouchgraph",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served",
	}, []string{"route", "status"})
)
