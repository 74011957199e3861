// Package metrics exposes Prometheus metrics on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gitgraph"

// Collector holds all Prometheus metrics for the service.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	RefreshSkipped  prometheus.Counter
	RenderedNodes   prometheus.Gauge
	Lanes           prometheus.Gauge
	Commands        *prometheus.CounterVec
	WSClients       prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Graph refreshes by outcome",
		}, []string{"status"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching the log and recomputing the layout",
			Buckets:   prometheus.DefBuckets,
		}),
		RefreshSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_skipped_total",
			Help:      "Refresh requests dropped because one was already running",
		}),
		RenderedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rendered_nodes",
			Help:      "Commits in the current layout",
		}),
		Lanes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lanes",
			Help:      "Lanes used by the current layout",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Ref-mutating commands by name and outcome",
		}, []string{"command", "status"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Refreshes,
		c.RefreshDuration,
		c.RefreshSkipped,
		c.RenderedNodes,
		c.Lanes,
		c.Commands,
		c.WSClients,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveRefresh records a completed or failed refresh.
func (c *Collector) ObserveRefresh(d time.Duration, nodes, lanes int, err error) {
	c.RefreshDuration.Observe(d.Seconds())
	if err != nil {
		c.Refreshes.WithLabelValues("error").Inc()
		return
	}
	c.Refreshes.WithLabelValues("ok").Inc()
	c.RenderedNodes.Set(float64(nodes))
	c.Lanes.Set(float64(lanes))
}

// ObserveCommand counts one command run.
func (c *Collector) ObserveCommand(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Commands.WithLabelValues(name, status).Inc()
}

// ObserveHTTP records one request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
