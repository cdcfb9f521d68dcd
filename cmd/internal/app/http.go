package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"console/cmd/internal/console"
	"console/cmd/internal/gate"
)

// exemptPaths bypass the auth gate.
var exemptPaths = []string{"/healthz", "/readyz", "/metrics", "/events"}

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	reg *prometheus.Registry,
	identity *gate.Identity,
	views *console.Handler,
) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	// Ready once the first identity query has settled, whatever its outcome.
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		if identity.State() == gate.Loading {
			http.Error(w, "identity loading", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	viewMux := http.NewServeMux()
	views.Register(viewMux)
	g := gate.New(identity, gate.DefaultRoutes, log, exemptPaths...)
	mux.Handle("/", g.Middleware(viewMux))
}
