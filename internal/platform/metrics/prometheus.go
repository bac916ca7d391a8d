package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/platform/logger"
)

// Manager holds the service's custom Prometheus metrics.
type Manager struct {
	Registry            *prometheus.Registry
	ReviewsCreatedTotal prometheus.Counter
	ReviewUpdatesTotal  prometheus.Counter
	ReviewDeletesTotal  prometheus.Counter
	APIErrorsTotal      *prometheus.CounterVec
	APILatency          *prometheus.HistogramVec
}

// NewManager initializes and registers the service's Prometheus metrics
// on a dedicated registry.
func NewManager(serviceName string) *Manager {
	// Metric namespaces cannot contain dashes.
	namespace := strings.ReplaceAll(serviceName, "-", "_")

	registry := prometheus.NewRegistry()

	reviewsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_created_total",
		Help:      "Total number of reviews created.",
	})
	reviewUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_updates_total",
		Help:      "Total number of reviews updated.",
	})
	reviewDeletesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_deletes_total",
		Help:      "Total number of reviews deleted.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route and error kind.",
	}, []string{"route", "error_kind"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		reviewsCreatedTotal,
		reviewUpdatesTotal,
		reviewDeletesTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:            registry,
		ReviewsCreatedTotal: reviewsCreatedTotal,
		ReviewUpdatesTotal:  reviewUpdatesTotal,
		ReviewDeletesTotal:  reviewDeletesTotal,
		APIErrorsTotal:      apiErrorsTotal,
		APILatency:          apiLatency,
	}
}

// StartMetricsServer starts an HTTP server exposing the registry on /metrics.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
