// Package httptransport is the thin HTTP layer over the query and admin
// services. Handlers delegate to domain services and never embed business
// logic; authorization is enforced per route group.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vouch/internal/platform/metrics"
	"vouch/internal/platform/middleware"
)

// RouterConfig carries the credentials and flags the route groups need.
type RouterConfig struct {
	JWTValidator  middleware.JWTValidator
	InternalToken string
	InsightToken  string

	// Production makes the insight credential mandatory. Outside production
	// the insight endpoints are open to ease local exploration; the data is
	// k-anonymized either way.
	Production bool
}

// NewRouter wires all endpoints with their middleware chains.
func NewRouter(
	trust *TrustHandler,
	admin *AdminHandler,
	ins *InsightsHandler,
	cfg RouterConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Steward surface: per-identity reads and the replay trigger.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(cfg.JWTValidator, logger))
		r.Use(middleware.RequireRole(middleware.RoleSteward, logger))
		r.Get("/trust/identities/{id}", trust.handleIdentityView)
		r.Get("/trust/volatile", trust.handleVolatile)
		r.Post("/admin/recompute", admin.handleRecompute)
	})

	// Internal service surface: batch score resolution.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireToken("X-Internal-Token", cfg.InternalToken, logger))
		r.Post("/internal/credibility", trust.handleCredibilityBatch)
	})

	// Insight surface: anonymized rollups.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if cfg.Production {
			r.Use(middleware.RequireToken("X-Insight-Token", cfg.InsightToken, logger))
		}
		r.Get("/insights/divergence", ins.handleDivergence)
		r.Get("/insights/heatmap", ins.handleHeatmap)
		r.Get("/insights/volatility", ins.handleTopicVolatility)
		r.Get("/insights/event-impact", ins.handleWindowImpact)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
