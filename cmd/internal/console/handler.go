package console

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"console/cmd/internal/backend"
	"console/cmd/internal/gate"
)

// Handler serves the console views.
type Handler struct {
	log      *slog.Logger
	api      *backend.API
	identity *gate.Identity
	session  gate.SessionMarkers

	bots        []Bot
	botProbe    *http.Client
	throttle    *loginThrottle
	events      EventsConfig
	viewTimeout time.Duration
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithBots lists the chat bots shown on the bots view.
func WithBots(bots []Bot) HandlerOption {
	return func(h *Handler) { h.bots = append([]Bot(nil), bots...) }
}

// WithSession lets /me report which session cookies are held.
func WithSession(m gate.SessionMarkers) HandlerOption {
	return func(h *Handler) { h.session = m }
}

// WithEvents configures the /events WebSocket.
func WithEvents(cfg EventsConfig) HandlerOption {
	return func(h *Handler) { h.events = cfg }
}

// WithViewTimeout bounds the backend work of a single view.
func WithViewTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.viewTimeout = d
		}
	}
}

// WithLoginThrottle replaces the failed-login limits.
func WithLoginThrottle(cfg ThrottleConfig) HandlerOption {
	return func(h *Handler) { h.throttle = newLoginThrottle(cfg) }
}

// NewHandler builds the console handler.
func NewHandler(log *slog.Logger, api *backend.API, identity *gate.Identity, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		log:         log,
		api:         api,
		identity:    identity,
		botProbe:    &http.Client{Timeout: 2 * time.Second},
		throttle:    newLoginThrottle(DefaultThrottleConfig()),
		events:      DefaultEventsConfig(),
		viewTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h
}

// Register wires the console views onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}

	mux.HandleFunc("GET /login", h.handleLoginView)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.HandleFunc("GET /me", h.handleMe)
	mux.HandleFunc("GET /{$}", h.handleDashboard)

	mux.HandleFunc("GET /apps", h.handleListApps)
	mux.HandleFunc("POST /apps", h.handleCreateApp)
	mux.HandleFunc("PATCH /apps/{id}", h.handleUpdateApp)
	mux.HandleFunc("DELETE /apps/{id}", h.handleDeleteApp)

	mux.HandleFunc("GET /games", h.handleListGames)
	mux.HandleFunc("POST /games", h.handleCreateGame)
	mux.HandleFunc("GET /games/{id}", h.handleGetGame)
	mux.HandleFunc("PATCH /games/{id}", h.handleUpdateGame)
	mux.HandleFunc("DELETE /games/{id}", h.handleDeleteGame)

	mux.HandleFunc("GET /patch-notes", h.handleListPatchNotes)
	mux.HandleFunc("POST /patch-notes", h.handleCreatePatchNote)
	mux.HandleFunc("PATCH /patch-notes/{id}", h.handleUpdatePatchNote)
	mux.HandleFunc("DELETE /patch-notes/{id}", h.handleDeletePatchNote)

	mux.HandleFunc("GET /users", h.handleListUsers)
	mux.HandleFunc("POST /users", h.handleCreateUser)
	mux.HandleFunc("PATCH /users/{id}", h.handleUpdateUser)

	mux.HandleFunc("GET /settings", h.handleListSettings)
	mux.HandleFunc("POST /settings", h.handleCreateSetting)
	mux.HandleFunc("PATCH /settings/{id}", h.handleUpdateSetting)

	mux.HandleFunc("GET /bots", h.handleBots)

	mux.HandleFunc("GET /events", h.handleEvents)
}

func pageFromQuery(r *http.Request) backend.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit > 100 {
		limit = 100
	}
	return backend.Page{Page: page, Limit: limit}
}
