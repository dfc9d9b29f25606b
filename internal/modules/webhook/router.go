package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/health"
	healthsvc "signal_bot/internal/modules/health/service"
)

func NewRouter(
	h *Handler,
	state *healthsvc.State,
	outcomes http.Handler,
	reg *prometheus.Registry,
	m *metrics.Metrics,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(Metrics(m))

	r.Post("/webhook", h.Webhook)
	health.Mount(r, state)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if outcomes != nil {
		r.Get("/ws/outcomes", outcomes.ServeHTTP)
	}
	return r
}
