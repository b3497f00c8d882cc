package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with every metric the server exports.
type Collector struct {
	reg *prometheus.Registry

	ProviderRequests *prometheus.CounterVec   // provider, outcome
	ProviderLatency  *prometheus.HistogramVec // provider

	Computations        *prometheus.CounterVec // outcome
	ComputationDuration prometheus.Histogram
	ReachableStops      prometheus.Histogram

	PlacesCache *prometheus.CounterVec // result: hit|miss

	MarkersPublished  prometheus.Counter
	MarkerPublishErrs prometheus.Counter

	HTTPRequests *prometheus.CounterVec // status class
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitfinder_provider_requests_total",
			Help: "Outbound provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transitfinder_provider_request_duration_seconds",
			Help:    "Latency of outbound provider requests.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider"}),
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitfinder_isochrone_computations_total",
			Help: "Isochrone computations by outcome.",
		}, []string{"outcome"}),
		ComputationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitfinder_isochrone_duration_seconds",
			Help:    "Wall time of isochrone computations, provider calls included.",
			Buckets: prometheus.ExponentialBuckets(0.025, 2, 12),
		}),
		ReachableStops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitfinder_isochrone_reachable_stops",
			Help:    "Number of reachable stops per successful computation.",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		}),
		PlacesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitfinder_places_cache_lookups_total",
			Help: "Places cache lookups by result.",
		}, []string{"result"}),
		MarkersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitfinder_markers_published_total",
			Help: "Marker commands published to the map surface.",
		}),
		MarkerPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transitfinder_markers_publish_errors_total",
			Help: "Marker commands that failed to publish.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitfinder_http_requests_total",
			Help: "API requests served by status class.",
		}, []string{"class"}),
	}

	reg.MustRegister(
		c.ProviderRequests, c.ProviderLatency,
		c.Computations, c.ComputationDuration, c.ReachableStops,
		c.PlacesCache,
		c.MarkersPublished, c.MarkerPublishErrs,
		c.HTTPRequests,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// ObserveComputation records one isochrone computation.
func (c *Collector) ObserveComputation(outcome string, duration time.Duration, reachable int) {
	c.Computations.WithLabelValues(outcome).Inc()
	c.ComputationDuration.Observe(duration.Seconds())
	if outcome == "ok" {
		c.ReachableStops.Observe(float64(reachable))
	}
}

func (c *Collector) CacheHit()  { c.PlacesCache.WithLabelValues("hit").Inc() }
func (c *Collector) CacheMiss() { c.PlacesCache.WithLabelValues("miss").Inc() }

// ObserveMarkers records the result of one marker publish.
func (c *Collector) ObserveMarkers(err error) {
	if err != nil {
		c.MarkerPublishErrs.Inc()
		return
	}
	c.MarkersPublished.Inc()
}

// ObserveHTTP counts a served API request by its status class (2xx, 4xx, ...).
func (c *Collector) ObserveHTTP(status int) {
	c.HTTPRequests.WithLabelValues(statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
