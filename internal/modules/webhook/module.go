package webhook

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"signal_bot/internal/metrics"
	"signal_bot/internal/modules/config"
	health "signal_bot/internal/modules/health/service"
	stream "signal_bot/internal/modules/stream/service"
	"signal_bot/internal/pipeline"
)

func newHandler(cfg *config.Config, p *pipeline.Pipeline, state *health.State, log *zap.Logger) *Handler {
	return NewHandler(p, state, cfg.Service.MaxBodyBytes, log)
}

func newRouter(
	cfg *config.Config,
	h *Handler,
	state *health.State,
	hub *stream.Hub,
	reg *prometheus.Registry,
	m *metrics.Metrics,
) chi.Router {
	var outcomes http.Handler
	if cfg.Audit.Stream {
		outcomes = hub
	}
	return NewRouter(h, state, outcomes, reg, m)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, router chi.Router, state *health.State, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Service.ReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
					state.SetReady(false)
				}
			}()
			state.SetReady(true)
			log.Info("webhook server listening", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("webhook",
		fx.Provide(
			newHandler,
			newRouter,
		),
		fx.Invoke(RunHTTP),
	)
}
