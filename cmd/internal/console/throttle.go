package console

import (
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// lockoutTier blocks logins for Duration after the latest failure once
// Threshold failures fall inside the last Duration.
type lockoutTier struct {
	Threshold int
	Duration  time.Duration
}

// ThrottleConfig bounds failed console logins per client address.
type ThrottleConfig struct {
	WindowMax int
	Window    time.Duration
	Tiers     []lockoutTier
}

// DefaultThrottleConfig is used unless WithLoginThrottle overrides it.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		WindowMax: 10,
		Window:    15 * time.Minute,
		Tiers: []lockoutTier{
			{Threshold: 20, Duration: time.Hour},
			{Threshold: 10, Duration: 15 * time.Minute},
			{Threshold: 5, Duration: time.Minute},
		},
	}
}

type loginThrottle struct {
	cfg ThrottleConfig
	now func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time // newest first
}

func newLoginThrottle(cfg ThrottleConfig) *loginThrottle {
	tiers := append([]lockoutTier(nil), cfg.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold > tiers[j].Threshold })
	cfg.Tiers = tiers
	return &loginThrottle{cfg: cfg, now: time.Now, failures: make(map[string][]time.Time)}
}

// check reports whether key is blocked and for how long.
func (t *loginThrottle) check(key string) (bool, time.Duration) {
	if t == nil || key == "" {
		return false, 0
	}
	now := t.now()

	t.mu.Lock()
	failures := t.prune(key, now)
	t.mu.Unlock()

	if blocked, retry := evaluateProgressiveLockout(now, failures, t.cfg.Tiers); blocked {
		return true, retry
	}
	return evaluateWindowThrottle(now, failures, t.cfg.WindowMax, t.cfg.Window)
}

func (t *loginThrottle) fail(key string) {
	if t == nil || key == "" {
		return
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[key] = append([]time.Time{now}, t.prune(key, now)...)
}

func (t *loginThrottle) reset(key string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	delete(t.failures, key)
	t.mu.Unlock()
}

// prune drops failures no rule can see anymore. Callers hold mu.
func (t *loginThrottle) prune(key string, now time.Time) []time.Time {
	horizon := t.cfg.Window
	for _, tier := range t.cfg.Tiers {
		if tier.Duration > horizon {
			horizon = tier.Duration
		}
	}
	cut := now.Add(-horizon)

	failures := t.failures[key]
	n := 0
	for n < len(failures) && !failures[n].Before(cut) {
		n++
	}
	if n == 0 {
		delete(t.failures, key)
		return nil
	}
	failures = failures[:n]
	t.failures[key] = failures
	return failures
}

// evaluateWindowThrottle blocks once max failures fall inside window.
// failures are newest first.
func evaluateWindowThrottle(now time.Time, failures []time.Time, max int, window time.Duration) (bool, time.Duration) {
	if max <= 0 || window <= 0 {
		return false, 0
	}
	inWindow := countSince(failures, now.Add(-window))
	if inWindow < max {
		return false, 0
	}
	return true, failures[max-1].Add(window).Sub(now)
}

// evaluateProgressiveLockout applies the strictest tier that triggers.
// tiers are ordered by descending threshold; failures are newest first.
func evaluateProgressiveLockout(now time.Time, failures []time.Time, tiers []lockoutTier) (bool, time.Duration) {
	if len(failures) == 0 {
		return false, 0
	}
	for _, tier := range tiers {
		if tier.Threshold <= 0 || tier.Duration <= 0 {
			continue
		}
		if countSince(failures, now.Add(-tier.Duration)) < tier.Threshold {
			continue
		}
		if until := failures[0].Add(tier.Duration); until.After(now) {
			return true, until.Sub(now)
		}
	}
	return false, 0
}

func countSince(failures []time.Time, cut time.Time) int {
	n := 0
	for _, f := range failures {
		if f.Before(cut) {
			break
		}
		n++
	}
	return n
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
