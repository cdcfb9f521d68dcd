package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"console/cmd/internal/backend"
	"console/cmd/internal/session"
)

// DefaultRefetchInterval is how often the identity query is re-run in the background.
const DefaultRefetchInterval = 5 * time.Minute

// Identifier answers "who am I" for the current session.
type Identifier interface {
	Me(ctx context.Context) (backend.User, error)
}

// SessionMarkers reports which session cookies are held.
type SessionMarkers interface {
	Snapshot() session.Session
}

// IdentityOption configures an Identity.
type IdentityOption func(*Identity)

// WithSessionMarkers skips the identity query while neither session cookie is held.
func WithSessionMarkers(m SessionMarkers) IdentityOption {
	return func(i *Identity) { i.markers = m }
}

// Identity caches the identity query and notifies subscribers on state changes.
// It is safe for concurrent use.
type Identity struct {
	src      Identifier
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
	markers  SessionMarkers

	// fetchMu serializes queries so results apply in order.
	fetchMu sync.Mutex

	mu   sync.RWMutex
	snap Snapshot
	// gen is bumped by Invalidate; a query started under an older gen is discarded.
	gen uint64

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewIdentity builds an identity cache. interval <= 0 uses DefaultRefetchInterval.
func NewIdentity(src Identifier, log *slog.Logger, interval time.Duration, opts ...IdentityOption) *Identity {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultRefetchInterval
	}
	i := &Identity{
		src:      src,
		log:      log,
		interval: interval,
		now:      time.Now,
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Snapshot returns the cached query result.
func (i *Identity) Snapshot() Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.snap
}

// State derives the gate state from the cached result.
func (i *Identity) State() State {
	return Derive(i.Snapshot())
}

// Refetch runs the identity query now and returns the updated snapshot.
//
// A transient failure keeps a cached user; an auth failure drops it.
// A cancelled ctx leaves the previous result in place, and so does an
// Invalidate that lands while the query is in flight.
func (i *Identity) Refetch(ctx context.Context) Snapshot {
	i.fetchMu.Lock()
	defer i.fetchMu.Unlock()

	if i.markers != nil {
		if m := i.markers.Snapshot(); !m.AccessCookiePresent && !m.RefreshCookiePresent {
			return i.update(func(s *Snapshot) {
				s.User = nil
				s.Err = ErrNoSession
				s.Fetching = false
				s.FetchedAt = i.now()
			})
		}
	}

	var gen uint64
	i.update(func(s *Snapshot) {
		s.Fetching = true
		gen = i.gen
	})

	u, err := i.src.Me(ctx)

	return i.update(func(s *Snapshot) {
		if i.gen != gen {
			return
		}
		s.Fetching = false
		switch {
		case err == nil:
			s.User = &u
			s.Err = nil
			s.FetchedAt = i.now()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		case isAuthFailure(err) || s.User == nil:
			s.User = nil
			s.Err = err
			s.FetchedAt = i.now()
		default:
			s.Err = err
			i.log.Warn("gate.identity.refetch.fail", "err", err, "kept_user", true)
		}
	})
}

// Forget drops the cached user after a local logout.
func (i *Identity) Forget() {
	i.Invalidate(ErrSignedOut)
}

// Invalidate drops the cached user because the session is known to be gone,
// e.g. when the client reports a failed refresh.
func (i *Identity) Invalidate(cause error) {
	if cause == nil {
		cause = ErrSignedOut
	}
	i.update(func(s *Snapshot) {
		i.gen++
		s.User = nil
		s.Err = cause
		s.Fetching = false
		s.FetchedAt = i.now()
	})
}

// Run fetches immediately and then every interval until ctx is done.
func (i *Identity) Run(ctx context.Context) error {
	i.Refetch(ctx)

	t := time.NewTicker(i.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			i.Refetch(ctx)
		}
	}
}

// Subscribe returns a channel that receives the latest snapshot on every state change.
// Slow subscribers only ever see the most recent snapshot. cancel must be called.
func (i *Identity) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	i.subsMu.Lock()
	id := i.nextSub
	i.nextSub++
	i.subs[id] = ch
	i.subsMu.Unlock()

	cancel := func() {
		i.subsMu.Lock()
		delete(i.subs, id)
		i.subsMu.Unlock()
	}
	return ch, cancel
}

func (i *Identity) update(fn func(*Snapshot)) Snapshot {
	i.mu.Lock()
	before := Derive(i.snap)
	fn(&i.snap)
	after := Derive(i.snap)
	snap := i.snap
	i.mu.Unlock()

	if before != after {
		i.log.Info("gate.state.change", "from", before.String(), "to", after.String())
		i.broadcast(snap)
	}
	return snap
}

// broadcast never blocks: a full subscriber buffer is replaced with the newer snapshot.
func (i *Identity) broadcast(snap Snapshot) {
	i.subsMu.Lock()
	defer i.subsMu.Unlock()

	for _, ch := range i.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
