package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Every
// recording method is safe on a nil *Collector so services can run without
// metrics in tests.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Counter ledger
	LedgerWrites    *prometheus.CounterVec
	LedgerRetries   *prometheus.CounterVec
	LedgerExhausted *prometheus.CounterVec

	// Feed and search
	FeedPages     prometheus.Counter
	FeedOrphans   prometheus.Counter
	SearchQueries *prometheus.CounterVec

	// Notification events
	EventsPublished *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry under namespace.
func NewCollector(namespace string) *Collector {
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
		LedgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Aggregate membership changes committed, by collection and direction",
		}, []string{"collection", "op"}),
		LedgerRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_retries_total",
			Help:      "Conditional aggregate writes that lost a race and were retried",
		}, []string{"collection"}),
		LedgerExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_retry_exhausted_total",
			Help:      "Aggregate mutations that gave up after the retry ceiling",
		}, []string{"collection"}),
		FeedPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_pages_total",
			Help:      "Feed pages served",
		}),
		FeedOrphans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_orphaned_items_total",
			Help:      "Feed candidates excluded because their author no longer exists",
		}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Search queries by outcome",
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events published, by type and status",
		}, []string{"type", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.LedgerWrites,
		c.LedgerRetries,
		c.LedgerExhausted,
		c.FeedPages,
		c.FeedOrphans,
		c.SearchQueries,
		c.EventsPublished,
	)
	return c
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) LedgerWrite(collection, op string) {
	if c == nil {
		return
	}
	c.LedgerWrites.WithLabelValues(collection, op).Inc()
}

func (c *Collector) LedgerRetry(collection string) {
	if c == nil {
		return
	}
	c.LedgerRetries.WithLabelValues(collection).Inc()
}

func (c *Collector) LedgerGaveUp(collection string) {
	if c == nil {
		return
	}
	c.LedgerExhausted.WithLabelValues(collection).Inc()
}

// FeedPage records one served page and how many candidates were orphaned.
func (c *Collector) FeedPage(orphans int) {
	if c == nil {
		return
	}
	c.FeedPages.Inc()
	c.FeedOrphans.Add(float64(orphans))
}

func (c *Collector) SearchQuery(outcome string) {
	if c == nil {
		return
	}
	c.SearchQueries.WithLabelValues(outcome).Inc()
}

func (c *Collector) EventPublished(eventType string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.EventsPublished.WithLabelValues(eventType, status).Inc()
}
