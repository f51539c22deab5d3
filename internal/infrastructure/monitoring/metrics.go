package monitoring

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "foodtrack"

// Metrics handles Prometheus metrics collection
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpActiveRequests  prometheus.Gauge

	// Planning metrics
	selectionsTotal   *prometheus.CounterVec
	selectionShortage prometheus.Counter
	selectionDuration prometheus.Histogram
	selectedRecipes   prometheus.Histogram

	// Domain events
	eventsTotal *prometheus.CounterVec
}

// NewMetrics creates a collector backed by its own registry, so tests and
// several servers in one process never collide on registration.
func NewMetrics(logger *zap.Logger) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		logger:   logger.Named("metrics"),
		registry: registry,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		httpActiveRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_active_requests",
				Help:      "Number of HTTP requests being served",
			},
		),

		selectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "selections_total",
				Help:      "Recipe selections by the stage that produced them",
			},
			[]string{"stage"},
		),
		selectionShortage: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "short_selections_total",
				Help:      "Selections that returned fewer recipes than requested",
			},
		),
		selectionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "selection_duration_seconds",
				Help:      "Time spent selecting recipes for a meal plan",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
		),
		selectedRecipes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "planner",
				Name:      "selected_recipes",
				Help:      "Number of recipes returned per selection",
				Buckets:   prometheus.LinearBuckets(1, 2, 11),
			},
		),

		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_events_total",
				Help:      "Published domain events by name",
			},
			[]string{"event"},
		),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpActiveRequests,
		m.selectionsTotal,
		m.selectionShortage,
		m.selectionDuration,
		m.selectedRecipes,
		m.eventsTotal,
	)
	return m
}

// Registerer exposes the registry for collectors owned by other packages
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Gatherer exposes the registry for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// ObserveHTTP records one served request under its route pattern
func (m *Metrics) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// RequestStarted and RequestFinished track in-flight requests
func (m *Metrics) RequestStarted() {
	m.httpActiveRequests.Inc()
}

func (m *Metrics) RequestFinished() {
	m.httpActiveRequests.Dec()
}

// ObserveSelection implements outbound.PlanningMetrics
func (m *Metrics) ObserveSelection(stage string, requested, selected int, duration time.Duration) {
	m.selectionsTotal.WithLabelValues(stage).Inc()
	m.selectionDuration.Observe(duration.Seconds())
	m.selectedRecipes.Observe(float64(selected))
	if selected < requested {
		m.selectionShortage.Inc()
	}
}

// EventPublished counts one domain event
func (m *Metrics) EventPublished(name string) {
	m.eventsTotal.WithLabelValues(name).Inc()
}

// RegisterCatalogSize exposes the recipe count as a gauge evaluated on scrape
func (m *Metrics) RegisterCatalogSize(count func(ctx context.Context) (int64, error)) error {
	return m.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "recipes",
			Help:      "Number of recipes in the catalog",
		},
		func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := count(ctx)
			if err != nil {
				m.logger.Warn("Failed to count recipes for metrics", zap.Error(err))
				return 0
			}
			return float64(n)
		},
	))
}

// RegisterDB exposes connection pool statistics
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
