package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeBackend answers 401 on protected paths until a refresh succeeds.
type fakeBackend struct {
	refreshCalls  atomic.Int32
	refreshed     atomic.Bool
	release       chan struct{}
	refreshStatus int
	always401     bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/auth/refresh":
		b.refreshCalls.Add(1)
		if b.release != nil {
			<-b.release
		}
		if b.refreshStatus != 0 && b.refreshStatus != http.StatusOK {
			w.WriteHeader(b.refreshStatus)
			return
		}
		b.refreshed.Store(true)
		http.SetCookie(w, &http.Cookie{Name: "AccessToken", Value: "fresh", Path: "/"})
		w.WriteHeader(http.StatusOK)
	case "/api/auth/login":
		w.WriteHeader(http.StatusUnauthorized)
	case "/api/broken":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		if b.always401 || !b.refreshed.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}
}

func newTestClient(t *testing.T, rawBase string, opts ...Option) *Client {
	t.Helper()
	base, err := url.Parse(rawBase)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	c, err := New(Config{BaseURL: base}, jar, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type callResult struct {
	resp *Response
	err  error
}

func fireProtected(c *Client, paths []string) (func() []callResult, *sync.WaitGroup) {
	results := make([]callResult, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			resp, err := c.Get(context.Background(), p, nil)
			results[i] = callResult{resp: resp, err: err}
		}(i, p)
	}
	return func() []callResult { wg.Wait(); return results }, &wg
}

var protectedPaths = []string{"/protected-a", "/protected-b", "/protected-c"}

func TestConcurrent401_SingleRefreshThenReplay(t *testing.T) {
	b := &fakeBackend{release: make(chan struct{})}
	srv := httptest.NewServer(b)
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := newTestClient(t, srv.URL+"/api", WithMetrics(m))

	results, _ := fireProtected(c, protectedPaths)

	waitFor(t, func() bool { return c.refresh.pending() == len(protectedPaths)-1 })
	close(b.release)

	for i, r := range results() {
		if r.err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, r.err)
		}
		if r.resp.Status != http.StatusOK {
			t.Fatalf("call %d: status %d", i, r.resp.Status)
		}
		var body map[string]string
		if err := r.resp.JSON(&body); err != nil {
			t.Fatalf("call %d: decode: %v", i, err)
		}
		if body["path"] != "/api"+protectedPaths[i] {
			t.Fatalf("call %d: replayed wrong path %q", i, body["path"])
		}
	}

	if got := b.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
	if got := testutil.ToFloat64(m.refreshes.WithLabelValues("ok")); got != 1 {
		t.Fatalf("refresh ok metric: %v", got)
	}
	if got := testutil.ToFloat64(m.replays); got != 3 {
		t.Fatalf("replays metric: %v", got)
	}
	if c.refresh.refreshing || c.refresh.pending() != 0 {
		t.Fatalf("refresh state not reset")
	}
}

func TestConcurrent401_RefreshFailureRejectsAll(t *testing.T) {
	b := &fakeBackend{release: make(chan struct{}), refreshStatus: http.StatusForbidden}
	srv := httptest.NewServer(b)
	defer srv.Close()

	var invalidCalls atomic.Int32
	c := newTestClient(t, srv.URL+"/api", WithSessionInvalidHandler(func(error) { invalidCalls.Add(1) }))

	results, _ := fireProtected(c, protectedPaths)

	waitFor(t, func() bool { return c.refresh.pending() == len(protectedPaths)-1 })
	close(b.release)

	for i, r := range results() {
		if r.err == nil {
			t.Fatalf("call %d: expected error", i)
		}
		if !errors.Is(r.err, ErrSessionInvalid) {
			t.Fatalf("call %d: expected ErrSessionInvalid, got %v", i, r.err)
		}
		if errors.Is(r.err, ErrAuthExpired) {
			t.Fatalf("call %d: callers must see the refresh failure, not the original 401", i)
		}
		if status, ok := StatusOf(r.err); !ok || status != http.StatusForbidden {
			t.Fatalf("call %d: expected refresh status 403, got %d (%v)", i, status, ok)
		}
	}

	if got := b.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
	if got := invalidCalls.Load(); got != 1 {
		t.Fatalf("expected session-invalid policy to run once, got %d", got)
	}
}

func TestLogin401_NeverRefreshes(t *testing.T) {
	b := &fakeBackend{}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")
	_, err := c.SendJSON(context.Background(), http.MethodPost, "/auth/login", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected the 401 surfaced directly, got %v", err)
	}
	if errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("login failure must not look like a refresh failure")
	}
	if got := b.refreshCalls.Load(); got != 0 {
		t.Fatalf("expected no refresh call, got %d", got)
	}
}

func TestRefresh401_NotIntercepted(t *testing.T) {
	b := &fakeBackend{refreshStatus: http.StatusUnauthorized}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")
	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "auth/refresh/"})

	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("expected plain 401 StatusError, got %v", err)
	}
	if got := b.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected only the direct refresh call, got %d", got)
	}
}

func TestRetried401_IsPropagated(t *testing.T) {
	b := &fakeBackend{always401: true}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")
	_, err := c.Get(context.Background(), "/protected-a", nil)

	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected 401 after one retry, got %v", err)
	}
	if errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("refresh succeeded; error must be the replayed 401")
	}
	if got := b.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh call, got %d", got)
	}
}

func TestOtherErrors_Propagated(t *testing.T) {
	b := &fakeBackend{}
	srv := httptest.NewServer(b)

	c := newTestClient(t, srv.URL+"/api")
	_, err := c.Get(context.Background(), "/broken", nil)
	if !errors.Is(err, ErrServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if status, _ := StatusOf(err); status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if got := b.refreshCalls.Load(); got != 0 {
		t.Fatalf("expected no refresh, got %d", got)
	}

	srv.Close()
	_, err = c.Get(context.Background(), "/protected-a", nil)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestWaiter_ContextCancel(t *testing.T) {
	b := &fakeBackend{release: make(chan struct{})}
	srv := httptest.NewServer(b)
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")

	leaderDone := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), "/protected-a", nil)
		leaderDone <- err
	}()
	waitFor(t, func() bool { return b.refreshCalls.Load() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, "/protected-b", nil)
		waiterDone <- err
	}()
	waitFor(t, func() bool { return c.refresh.pending() == 1 })

	cancel()
	if err := <-waiterDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(b.release)
	if err := <-leaderDone; err != nil {
		t.Fatalf("leader: %v", err)
	}
	if c.refresh.pending() != 0 {
		t.Fatalf("queue must be drained after settle")
	}
}

func TestRequestHeadersAndCookies(t *testing.T) {
	var gotAccept, gotReqID, gotCookie, gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "AccessToken", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
			return
		}
		gotAccept.Store(r.Header.Get("Accept"))
		gotReqID.Store(r.Header.Get("X-Request-ID"))
		gotUA.Store(r.UserAgent())
		if c, err := r.Cookie("AccessToken"); err == nil {
			gotCookie.Store(c.Value)
		}
		if r.URL.Query().Get("page") != "2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api")
	if _, err := c.SendJSON(context.Background(), http.MethodPost, "/auth/login", map[string]string{"username": "u"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := c.Get(context.Background(), "/apps", url.Values{"page": {"2"}}); err != nil {
		t.Fatalf("get: %v", err)
	}

	if gotAccept.Load() != "application/json" {
		t.Fatalf("accept header: %v", gotAccept.Load())
	}
	if id, _ := gotReqID.Load().(string); len(id) != 26 {
		t.Fatalf("expected ULID request id, got %q", id)
	}
	if gotCookie.Load() != "abc" {
		t.Fatalf("expected session cookie to be attached, got %v", gotCookie.Load())
	}
	if gotUA.Load() != defaultUserAgent {
		t.Fatalf("user agent: %v", gotUA.Load())
	}
}

func TestNew_RejectsRelativeBase(t *testing.T) {
	base, _ := url.Parse("/api")
	if _, err := New(Config{BaseURL: base}, nil); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
