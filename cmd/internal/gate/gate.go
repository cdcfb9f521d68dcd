package gate

import (
	"log/slog"
	"net/http"
	"strings"
)

// StateSource reports the current gate state.
type StateSource interface {
	State() State
}

// Gate guards console views.
type Gate struct {
	src    StateSource
	routes Routes
	log    *slog.Logger

	// exempt path prefixes bypass the gate (health, metrics, events).
	exempt []string
}

// New builds a gate. Requests whose path starts with any exempt prefix are never gated.
func New(src StateSource, routes Routes, log *slog.Logger, exempt ...string) *Gate {
	if log == nil {
		log = slog.Default()
	}
	if routes.Login == "" {
		routes.Login = DefaultRoutes.Login
	}
	if routes.Home == "" {
		routes.Home = DefaultRoutes.Home
	}
	return &Gate{src: src, routes: routes, log: log, exempt: exempt}
}

// Middleware renders, placeholds, or redirects each request per Decide.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		state := g.src.State()
		d := Decide(state, r.URL.Path, g.routes)

		switch d.Action {
		case Placeholder:
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"state":"loading"}` + "\n"))
		case Redirect:
			code := http.StatusFound
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				code = http.StatusSeeOther
			}
			g.log.Debug("gate.redirect", "path", r.URL.Path, "to", d.Location, "state", state.String())
			http.Redirect(w, r, d.Location, code)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (g *Gate) isExempt(path string) bool {
	for _, p := range g.exempt {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
