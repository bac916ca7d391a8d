package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/markethub/review-service/internal/middleware"
	"github.com/markethub/review-service/internal/platform/logger"
	"github.com/markethub/review-service/internal/platform/metrics"
)

const requestTimeout = 30 * time.Second

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Shop      *ShopHandler
	Admin     *AdminHandler
	JWTSecret string
	Metrics   *metrics.Manager
	Logger    *logger.Logger

	// Ready reports whether downstream dependencies are reachable. Used
	// by the readiness probe; nil means always ready.
	Ready func(ctx context.Context) error
}

// NewRouter assembles the full HTTP handler: health probes are open, the
// storefront surface requires an authenticated customer, and the
// administrative surface additionally requires the admin role.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(latencyMiddleware(deps.Metrics))

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "reason": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/shop-api", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.JWTSecret, deps.Logger))

		r.Post("/reviews", deps.Shop.CreateReview)
		r.Get("/reviews", deps.Shop.GetMyReviews)
		r.Put("/reviews/{id}", deps.Shop.UpdateReview)
		r.Delete("/reviews/{id}", deps.Shop.DeleteReview)
	})

	r.Route("/admin-api", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.JWTSecret, deps.Logger))
		r.Use(middleware.RequireRole(middleware.RoleAdmin, deps.Logger))

		r.Get("/reviews", deps.Admin.ListReviews)
		r.Get("/reviews/{id}", deps.Admin.GetReview)
		r.Put("/reviews/{id}", deps.Admin.UpdateReview)
		r.Delete("/reviews/{id}", deps.Admin.DeleteReview)
		r.Get("/sellers/{id}/average-rating", deps.Admin.SellerAverageRating)
		r.Get("/product-variants/{id}/average-rating", deps.Admin.ProductVariantAverageRating)
	})

	return otelhttp.NewHandler(r, "review-service.http")
}

// latencyMiddleware records per-route request latency.
func latencyMiddleware(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.APILatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
