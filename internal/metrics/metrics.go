// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "subtrack"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector holds every metric on a private registry. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Operations          *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
	Subscriptions       prometheus.Gauge
	EventsPublished     *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimited         prometheus.Counter
}

// New creates a Collector with its own registry, including the Go runtime
// and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_operations_total",
			Help:      "Subscription store operations by outcome",
		}, []string{"operation", "status"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Duration of subscription store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "subscriptions",
			Help:      "Number of subscriptions currently stored",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_published_total",
			Help:      "Change events handed to the broker by outcome",
		}, []string{"type", "status"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Dashboard cache lookups by result",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}

	reg.MustRegister(
		c.Operations,
		c.OperationDuration,
		c.Subscriptions,
		c.EventsPublished,
		c.CacheLookups,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the registry for tests and custom collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordOperation(operation string, err error, d time.Duration) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	c.Operations.WithLabelValues(operation, status).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) SetSubscriptions(n int) {
	if c == nil {
		return
	}
	c.Subscriptions.Set(float64(n))
}

func (c *Collector) RecordEvent(eventType string, err error) {
	if c == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	c.EventsPublished.WithLabelValues(eventType, status).Inc()
}

func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one request. path should be the route pattern,
// not the raw URL, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited() {
	if c == nil {
		return
	}
	c.RateLimited.Inc()
}
