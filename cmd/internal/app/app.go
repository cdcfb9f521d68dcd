// Package app wires the console runtime: config, logging, the backend client,
// the auth gate, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"console/cmd/internal/backend"
	"console/cmd/internal/client"
	"console/cmd/internal/console"
	"console/cmd/internal/gate"
	"console/cmd/internal/session"
)

// App is the console runtime. It owns one operator session per process.
type App struct {
	cfg Config
	log Logger

	reg      *prometheus.Registry
	store    *session.Store
	identity *gate.Identity
	handler  http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	base := cfg.BaseURL()
	store, err := session.NewStore(session.Config{
		BaseURL:       base,
		RefreshURL:    base.JoinPath(client.DefaultRefreshPath),
		AccessCookie:  cfg.AccessCookie,
		RefreshCookie: cfg.RefreshCookie,
	})
	if err != nil {
		return nil, err
	}

	// The identity is built after the client; the handler is bound late.
	var identity *gate.Identity
	c, err := client.New(client.Config{
		BaseURL:        base,
		Timeout:        cfg.APITimeout,
		RefreshTimeout: cfg.RefreshTimeout,
	}, store,
		client.WithLogger(log.With("component", "client")),
		client.WithMetrics(client.NewMetrics(reg)),
		client.WithSessionInvalidHandler(func(err error) {
			if identity != nil {
				identity.Invalidate(err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	api := backend.New(c, store, log.With("component", "backend"))
	identity = gate.NewIdentity(api, log.With("component", "gate"), cfg.IdentityRefetch,
		gate.WithSessionMarkers(store))

	bots, err := console.ParseBots(cfg.Bots)
	if err != nil {
		return nil, fmt.Errorf("config: CONSOLE_BOTS: %w", err)
	}
	views := console.NewHandler(log.With("component", "console"), api, identity,
		console.WithBots(bots),
		console.WithSession(store),
		console.WithEvents(console.EventsConfig{AllowedOrigins: cfg.EventsOrigins}),
		console.WithViewTimeout(cfg.APITimeout),
	)

	mux := http.NewServeMux()
	registerHTTP(mux, log, reg, identity, views)

	var h http.Handler = mux
	h = WithCORS(h, cfg, log)
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, log)

	return &App{
		cfg:      cfg,
		log:      log,
		reg:      reg,
		store:    store,
		identity: identity,
		handler:  h,
	}, nil
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and the identity refetch loop and blocks until
// context cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	base := runtimeBaseURL(a.cfg.HTTPAddr)
	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"url", base,
		"events_url", wsBaseURL(base)+"/events",
		"api_base_url", a.cfg.APIBaseURL,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.identity.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("server.stop", "reason", "context_done")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	err := g.Wait()
	a.log.Info("server.stopped")
	return err
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL an operator can open.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}
