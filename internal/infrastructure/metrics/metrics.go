// Package metrics exposes prometheus collectors for the HTTP layer and the
// recommendation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cropadvisor"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	recommendations *prometheus.CounterVec
	fertilizers     *prometheus.CounterVec
	yields          *prometheus.HistogramVec
}

// New registers every collector, plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crop_recommendations_total",
			Help:      "Crop recommendations by recommended crop.",
		}, []string{"crop"}),
		fertilizers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fertilizer_recommendations_total",
			Help:      "Fertilizer plans by requested crop and product.",
		}, []string{"crop", "type"}),
		yields: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_yield_tons_per_hectare",
			Help:      "Distribution of predicted yields by requested crop.",
			Buckets:   []float64{0.5, 1, 2, 3, 4, 5, 7.5, 10, 25, 50, 75, 100},
		}, []string{"crop"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.recommendations,
		m.fertilizers,
		m.yields,
	)
	return m
}

// CacheStatsSource reports cache counters
type CacheStatsSource interface {
	Stats() cache.Stats
}

// RegisterCache exports hit, miss and entry counts of src. The values are
// read at scrape time.
func (m *Metrics) RegisterCache(src CacheStatsSource) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Measurement cache hits.",
		}, func() float64 { return float64(src.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Measurement cache misses.",
		}, func() float64 { return float64(src.Stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held, expired ones not yet swept included.",
		}, func() float64 { return float64(src.Stats().Entries) }),
	)
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. Unmatched routes are
// grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

// ObserveCropRecommendation counts a crop recommendation.
func (m *Metrics) ObserveCropRecommendation(rec domain.CropRecommendation) {
	m.recommendations.WithLabelValues(rec.Crop).Inc()
}

// ObserveFertilizerPlan counts a fertilizer plan.
func (m *Metrics) ObserveFertilizerPlan(crop string, plan domain.FertilizerPlan) {
	m.fertilizers.WithLabelValues(cropLabel(crop), plan.Type).Inc()
}

// ObserveYieldEstimate records a predicted yield.
func (m *Metrics) ObserveYieldEstimate(crop string, estimate domain.YieldEstimate) {
	m.yields.WithLabelValues(cropLabel(crop)).Observe(estimate.Yield)
}

// cropLabel folds free-form crop names into "other" so callers cannot grow
// the label set.
func cropLabel(crop string) string {
	if domain.IsKnownCrop(crop) {
		return crop
	}
	return "other"
}
