package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthFunc verifica uma dependência do serviço (Postgres, Redis, ...)
type HealthFunc func(ctx context.Context) error

// Orçamento total do /healthz, compartilhado pelas checagens
const healthTimeout = 500 * time.Millisecond

// Handler monta o mux de observabilidade: /metrics expõe os coletores
// de domínio da plataforma (rodadas, pagamentos, auditoria, loja) e
// /healthz agrega as checagens de dependência do serviço, na ordem,
// parando na primeira falha
func Handler(checks ...HealthFunc) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		for _, check := range checks {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unhealthy: " + err.Error()))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// StartMetricsServer sobe o sidecar de observabilidade numa goroutine.
// Cada serviço da plataforma expõe o seu numa porta própria, separada
// da API pública; workers sem HTTP público só têm esta porta.
func StartMetricsServer(port string, checks ...HealthFunc) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
