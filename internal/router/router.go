package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalmesh/alertgate/internal/handler"
	customMiddleware "github.com/signalmesh/alertgate/internal/middleware"
)

func NewRouter(ingest *handler.IngestHandler, healthHandler *handler.HealthHandler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(customMiddleware.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Static integration routes win over the parameterized one, so the
	// dedicated endpoints keep their behavior even though the universal
	// pattern also matches their paths.
	r.Route("/integrations/v1", func(r chi.Router) {
		r.Post("/alertmanager/{channelToken}", ingest.Alertmanager)
		r.Post("/grafana_alerting/{channelToken}", ingest.GrafanaAlerting)
		r.Post("/grafana/{channelToken}", ingest.Grafana)
		r.Post("/amazon_sns/{channelToken}", ingest.AmazonSNS)
		r.Post("/{integrationType}/{channelToken}", ingest.Universal)
	})

	// Health & Readiness Routes
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
