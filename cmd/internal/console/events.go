package console

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/coder/websocket"

	"console/cmd/internal/backend"
	"console/cmd/internal/gate"
)

const (
	eventsWriteTimeout  = 5 * time.Second
	eventsHeartbeat     = 30 * time.Second
	eventsPingTimeout   = 10 * time.Second
	eventsMaxPingFailed = 3
)

// EventsConfig controls the /events gate state stream.
type EventsConfig struct {
	// AllowedOrigins lists origins (scheme://host[:port] or bare hosts) allowed
	// to open the stream cross-origin. Same-host origins are always allowed.
	AllowedOrigins []string
	Heartbeat      time.Duration
}

// DefaultEventsConfig allows local development origins only.
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		AllowedOrigins: []string{"http://localhost", "http://127.0.0.1"},
		Heartbeat:      eventsHeartbeat,
	}
}

type stateEvent struct {
	State string        `json:"state"`
	User  *backend.User `json:"user,omitempty"`
	Error string        `json:"error,omitempty"`
}

func eventOf(s gate.Snapshot) stateEvent {
	ev := stateEvent{State: gate.Derive(s).String(), User: s.User}
	if s.Err != nil && s.User == nil {
		ev.Error = s.Err.Error()
	}
	return ev
}

// handleEvents streams gate state changes until the peer goes away.
// Incoming messages are ignored.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.events.AllowedOrigins),
	})
	if err != nil {
		h.log.Info("events.accept.fail", "origin", r.Header.Get("Origin"), "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	updates, unsubscribe := h.identity.Subscribe()
	defer unsubscribe()

	// CloseRead discards peer messages and cancels ctx once the peer closes.
	ctx := conn.CloseRead(r.Context())

	if err := writeEvent(ctx, conn, eventOf(h.identity.Snapshot())); err != nil {
		h.log.Info("events.write.fail", "err", err)
		return
	}

	every := h.events.Heartbeat
	if every <= 0 {
		every = eventsHeartbeat
	}
	t := time.NewTicker(every)
	defer t.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutting down")
				return
			}
			if err := writeEvent(ctx, conn, eventOf(snap)); err != nil {
				h.log.Info("events.write.fail", "close_status", websocket.CloseStatus(err), "err", err)
				return
			}
		case <-t.C:
			pingCtx, cancel := context.WithTimeout(ctx, eventsPingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			failures++
			h.log.Info("events.ping.fail", "failures", failures, "err", err)
			if failures >= eventsMaxPingFailed {
				_ = conn.Close(websocket.StatusGoingAway, "heartbeat failed")
				return
			}
		}
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, ev stateEvent) error {
	ctx, cancel := context.WithTimeout(parent, eventsWriteTimeout)
	defer cancel()

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// originPatterns turns allowed origins into the host patterns websocket.Accept matches.
func originPatterns(allowed []string) []string {
	seen := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		h := originHost(a)
		if h == "" {
			continue
		}
		seen[h] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func originHost(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		s = u.Host
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	return strings.ToLower(s)
}
