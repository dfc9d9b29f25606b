package health

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"signal_bot/internal/modules/health/service"
)

// Mount вешает /livez, /readyz и /healthz на роутер.
func Mount(r chi.Router, state *service.State) {
	r.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: сервер слушает порт, sink'и подняты
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"ready":       state.Ready(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"signals":     state.Signals(),
			"lastOutcome": state.LastOutcome(),
			"lastSignalUnix": func() int64 {
				t := state.LastSignal()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = sonic.ConfigDefault.NewEncoder(w).Encode(resp)
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(service.NewState),
	)
}
